package syncer

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
	"github.com/gitsyncd/gitsyncd/internal/execshell"
	"github.com/gitsyncd/gitsyncd/internal/netprobe"
)

const (
	syncCommandUseConstant   = "sync"
	syncCommandShortConstant = "Run one synchronization cycle over every tracked directory"
	syncCommandLongConstant  = "Commits local changes in every tracked directory, reconciles each with its remote via fetch and rebase when reachable, and pushes. Exits non-zero when any entry fails."

	flagNoPushNameConstant        = "no-push"
	flagNoPushDescriptionConstant = "Disable pushing for this run regardless of per-entry settings"

	syncCycleFailedMessageConstant = "one or more entries failed to synchronize"
)

// ErrSyncCycleFailed indicates at least one entry finished the cycle in the
// failed outcome.
var ErrSyncCycleFailed = errors.New(syncCycleFailedMessageConstant)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// HumanReadableLoggingProvider reports whether console-friendly command
// logging is enabled.
type HumanReadableLoggingProvider func() bool

// EntriesFilePathProvider supplies the tracked entries file location; an
// empty value selects the well-known default.
type EntriesFilePathProvider func() string

// CommandBuilder assembles the sync cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	EntriesFilePathProvider      EntriesFilePathProvider
	Repository                   RepositoryOperations
	Prober                       ConnectivityProber
}

// Build constructs the cobra command for one-shot synchronization.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   syncCommandUseConstant,
		Short: syncCommandShortConstant,
		Long:  syncCommandLongConstant,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagNoPushNameConstant, false, flagNoPushDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	disablePush, _ := command.Flags().GetBool(flagNoPushNameConstant)

	logger := builder.resolveLogger()

	store, storeError := configstore.NewStore(builder.resolveEntriesFilePath())
	if storeError != nil {
		return storeError
	}

	repository, repositoryError := builder.resolveRepository(logger)
	if repositoryError != nil {
		return repositoryError
	}

	service, serviceError := NewCycleService(store, repository, builder.resolveProber(), logger, disablePush)
	if serviceError != nil {
		return serviceError
	}

	summary, cycleError := service.RunOnce(command.Context())
	if cycleError != nil {
		return cycleError
	}
	if summary.Failed() {
		return ErrSyncCycleFailed
	}
	return nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveEntriesFilePath() string {
	if builder.EntriesFilePathProvider == nil {
		return ""
	}
	return builder.EntriesFilePathProvider()
}

func (builder *CommandBuilder) resolveHumanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveRepository(logger *zap.Logger) (RepositoryOperations, error) {
	if builder.Repository != nil {
		return builder.Repository, nil
	}

	executor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), builder.resolveHumanReadableLogging())
	if executorError != nil {
		return nil, executorError
	}
	return NewGitRepositoryService(executor)
}

func (builder *CommandBuilder) resolveProber() ConnectivityProber {
	if builder.Prober != nil {
		return builder.Prober
	}
	return netprobe.NewProber(nil, 0)
}
