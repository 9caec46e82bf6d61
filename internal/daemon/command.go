package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
	"github.com/gitsyncd/gitsyncd/internal/execshell"
	"github.com/gitsyncd/gitsyncd/internal/instancelock"
	"github.com/gitsyncd/gitsyncd/internal/netprobe"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
)

const (
	runCommandUseConstant   = "run"
	runCommandShortConstant = "Run synchronization cycles on a schedule"
	runCommandLongConstant  = "Acquires the instance lock and runs synchronization cycles repeatedly at the configured interval. Supports a single foreground pass, a continuous foreground loop, and a detached background daemon."

	stopCommandUseConstant   = "stop"
	stopCommandShortConstant = "Stop a running background daemon"
	stopCommandLongConstant  = "Reads the recorded daemon process identity and requests graceful termination. Reports a no-op when no daemon is running."

	flagIntervalNameConstant        = "interval"
	flagIntervalDescriptionConstant = "Minutes between cycles (minimum 1, default from configuration)"
	flagOnceNameConstant            = "once"
	flagOnceDescriptionConstant     = "Run exactly one cycle and exit"
	flagNoPushNameConstant          = "no-push"
	flagNoPushDescriptionConstant   = "Disable pushing for this run regardless of per-entry settings"
	flagDaemonNameConstant          = "daemon"
	flagDaemonDescriptionConstant   = "Detach and run continuously in the background"
	flagPIDFileNameConstant         = "pidfile"
	flagPIDFileDescriptionConstant  = "Location of the daemon pidfile"
	flagLogFileNameConstant         = "logfile"
	flagLogFileDescriptionConstant  = "Location of the daemon log file"

	daemonChildEnvironmentVariableConstant = "GITSYNCD_DAEMON_CHILD"
	daemonChildEnvironmentValueConstant    = "1"
	daemonEnvironmentTemplateConstant      = "%s=%s"
	logFilePermissionsConstant             = 0o644
	logFileOpenErrorTemplateConstant       = "unable to open daemon log file %s: %w"
	daemonSpawnErrorTemplateConstant       = "unable to start background daemon: %w"
	daemonStartedMessageTemplateConstant   = "gitsyncd daemon started (pid %d), logging to %s\n"
	stopRequestedMessageTemplateConstant   = "termination requested for daemon (pid %d)\n"
	stopNoDaemonMessageConstant            = "no gitsyncd daemon is running\n"

	daemonStartupPollIntervalConstant    = 50 * time.Millisecond
	daemonStartupPollAttemptsConstant    = 100
	daemonStartupFailedTemplateConstant  = "background daemon (pid %d) exited during startup; see %s"
	daemonStartupTimeoutTemplateConstant = "background daemon (pid %d) did not confirm startup; see %s"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// RunCommandBuilder assembles the run cobra command with configurable dependencies.
type RunCommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	EntriesFilePathProvider      func() string
	LockFilePathProvider         func() string
	Repository                   syncer.RepositoryOperations
	Prober                       syncer.ConnectivityProber
}

// Build constructs the cobra command for the scheduler entry point.
func (builder *RunCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortConstant,
		Long:  runCommandLongConstant,
		RunE:  builder.run,
	}

	command.Flags().Int(flagIntervalNameConstant, 0, flagIntervalDescriptionConstant)
	command.Flags().Bool(flagOnceNameConstant, false, flagOnceDescriptionConstant)
	command.Flags().Bool(flagNoPushNameConstant, false, flagNoPushDescriptionConstant)
	command.Flags().Bool(flagDaemonNameConstant, false, flagDaemonDescriptionConstant)
	command.Flags().String(flagPIDFileNameConstant, "", flagPIDFileDescriptionConstant)
	command.Flags().String(flagLogFileNameConstant, "", flagLogFileDescriptionConstant)

	return command, nil
}

func (builder *RunCommandBuilder) run(command *cobra.Command, _ []string) error {
	intervalMinutes, _ := command.Flags().GetInt(flagIntervalNameConstant)
	runOnce, _ := command.Flags().GetBool(flagOnceNameConstant)
	disablePush, _ := command.Flags().GetBool(flagNoPushNameConstant)
	daemonMode, _ := command.Flags().GetBool(flagDaemonNameConstant)
	pidFilePath, _ := command.Flags().GetString(flagPIDFileNameConstant)
	logFilePath, _ := command.Flags().GetString(flagLogFileNameConstant)

	runningAsDaemonChild := os.Getenv(daemonChildEnvironmentVariableConstant) == daemonChildEnvironmentValueConstant
	if daemonMode && !runningAsDaemonChild {
		return builder.spawnBackground(command, pidFilePath, logFilePath)
	}

	logger := builder.resolveLogger()

	lock, lockError := instancelock.Acquire(builder.resolveLockFilePath())
	if lockError != nil {
		return lockError
	}
	defer func() {
		_ = lock.Release()
	}()

	if runningAsDaemonChild {
		resolvedPIDFilePath, pidFilePathError := resolvePIDFilePath(pidFilePath)
		if pidFilePathError != nil {
			return pidFilePathError
		}
		if writeError := WritePIDFile(resolvedPIDFilePath, os.Getpid()); writeError != nil {
			return writeError
		}
		defer func() {
			_ = RemovePIDFile(resolvedPIDFilePath)
		}()
	}

	signalContext, stopSignals := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	service, serviceError := builder.buildCycleService(logger, disablePush)
	if serviceError != nil {
		return serviceError
	}

	scheduler, schedulerError := NewScheduler(service, logger, intervalMinutes, runOnce)
	if schedulerError != nil {
		return schedulerError
	}
	return scheduler.Run(signalContext)
}

// spawnBackground re-launches the current executable detached from the
// terminal with output redirected to the log file, and records the child
// process identity in the pidfile.
func (builder *RunCommandBuilder) spawnBackground(command *cobra.Command, pidFilePath string, logFilePath string) error {
	resolvedPIDFilePath, pidFilePathError := resolvePIDFilePath(pidFilePath)
	if pidFilePathError != nil {
		return pidFilePathError
	}

	resolvedLogFilePath := logFilePath
	if len(resolvedLogFilePath) == 0 {
		defaultLogFilePath, logFilePathError := DefaultLogFilePath()
		if logFilePathError != nil {
			return logFilePathError
		}
		resolvedLogFilePath = defaultLogFilePath
	}

	if directoryError := os.MkdirAll(filepath.Dir(resolvedLogFilePath), pidDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(logFileOpenErrorTemplateConstant, resolvedLogFilePath, directoryError)
	}
	logFile, logFileError := os.OpenFile(resolvedLogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissionsConstant)
	if logFileError != nil {
		return fmt.Errorf(logFileOpenErrorTemplateConstant, resolvedLogFilePath, logFileError)
	}
	defer func() {
		_ = logFile.Close()
	}()

	executablePath, executableError := os.Executable()
	if executableError != nil {
		return fmt.Errorf(daemonSpawnErrorTemplateConstant, executableError)
	}

	childCommand := exec.Command(executablePath, os.Args[1:]...)
	childCommand.Env = append(os.Environ(), fmt.Sprintf(daemonEnvironmentTemplateConstant, daemonChildEnvironmentVariableConstant, daemonChildEnvironmentValueConstant))
	childCommand.Stdout = logFile
	childCommand.Stderr = logFile
	childCommand.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if startError := childCommand.Start(); startError != nil {
		return fmt.Errorf(daemonSpawnErrorTemplateConstant, startError)
	}

	childExit := make(chan error, 1)
	go func() {
		childExit <- childCommand.Wait()
	}()

	if startupError := awaitDaemonStartup(resolvedPIDFilePath, resolvedLogFilePath, childCommand.Process.Pid, childExit); startupError != nil {
		return startupError
	}

	fmt.Fprintf(command.OutOrStdout(), daemonStartedMessageTemplateConstant, childCommand.Process.Pid, resolvedLogFilePath)
	return nil
}

// awaitDaemonStartup blocks until the child records its own pid in the
// pidfile, which it does only after acquiring the instance lock. A child that
// exits first (for example because another instance already holds the lock)
// turns into an error instead of a false success report.
func awaitDaemonStartup(pidFilePath string, logFilePath string, childPID int, childExit <-chan error) error {
	for attempt := 0; attempt < daemonStartupPollAttemptsConstant; attempt++ {
		recordedPID, pidFileFound, readError := ReadPIDFile(pidFilePath)
		if readError == nil && pidFileFound && recordedPID == childPID {
			return nil
		}

		select {
		case <-childExit:
			return fmt.Errorf(daemonStartupFailedTemplateConstant, childPID, logFilePath)
		case <-time.After(daemonStartupPollIntervalConstant):
		}
	}
	return fmt.Errorf(daemonStartupTimeoutTemplateConstant, childPID, logFilePath)
}

func (builder *RunCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *RunCommandBuilder) resolveLockFilePath() string {
	if builder.LockFilePathProvider == nil {
		return ""
	}
	return builder.LockFilePathProvider()
}

func (builder *RunCommandBuilder) buildCycleService(logger *zap.Logger, disablePush bool) (*syncer.CycleService, error) {
	entriesFilePath := ""
	if builder.EntriesFilePathProvider != nil {
		entriesFilePath = builder.EntriesFilePathProvider()
	}
	store, storeError := configstore.NewStore(entriesFilePath)
	if storeError != nil {
		return nil, storeError
	}

	repository := builder.Repository
	if repository == nil {
		humanReadableLogging := false
		if builder.HumanReadableLoggingProvider != nil {
			humanReadableLogging = builder.HumanReadableLoggingProvider()
		}
		executor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), humanReadableLogging)
		if executorError != nil {
			return nil, executorError
		}
		repositoryService, repositoryError := syncer.NewGitRepositoryService(executor)
		if repositoryError != nil {
			return nil, repositoryError
		}
		repository = repositoryService
	}

	prober := builder.Prober
	if prober == nil {
		prober = netprobe.NewProber(nil, 0)
	}

	return syncer.NewCycleService(store, repository, prober, logger, disablePush)
}

func resolvePIDFilePath(pidFilePath string) (string, error) {
	if len(pidFilePath) > 0 {
		return pidFilePath, nil
	}
	return DefaultPIDFilePath()
}

// StopCommandBuilder assembles the stop cobra command.
type StopCommandBuilder struct {
	LoggerProvider LoggerProvider
}

// Build constructs the cobra command requesting daemon termination.
func (builder *StopCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   stopCommandUseConstant,
		Short: stopCommandShortConstant,
		Long:  stopCommandLongConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagPIDFileNameConstant, "", flagPIDFileDescriptionConstant)

	return command, nil
}

func (builder *StopCommandBuilder) run(command *cobra.Command, _ []string) error {
	pidFilePath, _ := command.Flags().GetString(flagPIDFileNameConstant)

	recordedPID, pidFileFound, readError := readRecordedPID(pidFilePath)
	if readError != nil {
		return readError
	}

	stopped, stopError := Stop(pidFilePath)
	if stopError != nil {
		return stopError
	}
	if !stopped || !pidFileFound {
		fmt.Fprint(command.OutOrStdout(), stopNoDaemonMessageConstant)
		return nil
	}

	fmt.Fprintf(command.OutOrStdout(), stopRequestedMessageTemplateConstant, recordedPID)
	return nil
}

func readRecordedPID(pidFilePath string) (int, bool, error) {
	resolvedPath, resolveError := resolvePIDFilePath(pidFilePath)
	if resolveError != nil {
		return 0, false, resolveError
	}
	return ReadPIDFile(resolvedPath)
}
