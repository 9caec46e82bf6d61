package daemon_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
	"github.com/gitsyncd/gitsyncd/internal/daemon"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
)

const (
	testTrackedDirectoryConstant          = "/srv/notes"
	testLoadFailureMessageConstant        = "entries file unreadable"
	testConfiguredIntervalMinutesConstant = 7
)

type scriptedCycleRunner struct {
	configuration configstore.Configuration
	loadError     error
	summaries     []syncer.CycleSummary
	cycleError    error
	cyclesRun     int
	cancelAfter   int
	cancel        context.CancelFunc
}

func (runner *scriptedCycleRunner) LoadConfiguration() (configstore.Configuration, error) {
	return runner.configuration, runner.loadError
}

func (runner *scriptedCycleRunner) RunCycle(_ context.Context, _ configstore.Configuration) (syncer.CycleSummary, error) {
	runner.cyclesRun++
	if runner.cancel != nil && runner.cyclesRun >= runner.cancelAfter {
		runner.cancel()
	}
	if len(runner.summaries) > 0 {
		summary := runner.summaries[0]
		if len(runner.summaries) > 1 {
			runner.summaries = runner.summaries[1:]
		}
		return summary, runner.cycleError
	}
	return syncer.CycleSummary{}, runner.cycleError
}

func successfulConfiguration() configstore.Configuration {
	configuration := configstore.DefaultConfiguration()
	configuration.IntervalMinutes = testConfiguredIntervalMinutesConstant
	return configuration
}

func TestNewSchedulerValidatesDependencies(testInstance *testing.T) {
	_, missingRunnerError := daemon.NewScheduler(nil, zap.NewNop(), 0, true)
	require.ErrorIs(testInstance, missingRunnerError, daemon.ErrCycleRunnerNotConfigured)

	_, missingLoggerError := daemon.NewScheduler(&scriptedCycleRunner{}, nil, 0, true)
	require.ErrorIs(testInstance, missingLoggerError, daemon.ErrSchedulerLoggerNotConfigured)
}

func TestSchedulerOnceModeRunsSingleCycle(testInstance *testing.T) {
	runner := &scriptedCycleRunner{configuration: successfulConfiguration()}
	scheduler, schedulerError := daemon.NewScheduler(runner, zap.NewNop(), 0, true)
	require.NoError(testInstance, schedulerError)

	require.NoError(testInstance, scheduler.Run(context.Background()))
	require.Equal(testInstance, 1, runner.cyclesRun)
}

func TestSchedulerOnceModeReportsEntryFailures(testInstance *testing.T) {
	failedSummary := syncer.CycleSummary{Results: []syncer.EntryResult{{
		Entry:   configstore.Entry{Path: testTrackedDirectoryConstant},
		Outcome: syncer.OutcomeFailed,
	}}}
	runner := &scriptedCycleRunner{configuration: successfulConfiguration(), summaries: []syncer.CycleSummary{failedSummary}}
	scheduler, schedulerError := daemon.NewScheduler(runner, zap.NewNop(), 0, true)
	require.NoError(testInstance, schedulerError)

	require.ErrorIs(testInstance, scheduler.Run(context.Background()), syncer.ErrSyncCycleFailed)
}

func TestSchedulerPropagatesConfigurationLoadFailure(testInstance *testing.T) {
	runner := &scriptedCycleRunner{loadError: errors.New(testLoadFailureMessageConstant)}
	scheduler, schedulerError := daemon.NewScheduler(runner, zap.NewNop(), 0, true)
	require.NoError(testInstance, schedulerError)

	require.ErrorContains(testInstance, scheduler.Run(context.Background()), testLoadFailureMessageConstant)
	require.Zero(testInstance, runner.cyclesRun)
}

func TestSchedulerContinuousModeStopsOnCancellation(testInstance *testing.T) {
	cancellableContext, cancelFunction := context.WithCancel(context.Background())
	runner := &scriptedCycleRunner{configuration: successfulConfiguration(), cancelAfter: 1, cancel: cancelFunction}
	scheduler, schedulerError := daemon.NewScheduler(runner, zap.NewNop(), 0, false)
	require.NoError(testInstance, schedulerError)

	require.NoError(testInstance, scheduler.Run(cancellableContext))
	require.Equal(testInstance, 1, runner.cyclesRun)
}

func TestSchedulerContinuousModeSurvivesCycleErrors(testInstance *testing.T) {
	cancellableContext, cancelFunction := context.WithCancel(context.Background())
	runner := &scriptedCycleRunner{
		configuration: successfulConfiguration(),
		cycleError:    errors.New(testLoadFailureMessageConstant),
		cancelAfter:   1,
		cancel:        cancelFunction,
	}
	scheduler, schedulerError := daemon.NewScheduler(runner, zap.NewNop(), 0, false)
	require.NoError(testInstance, schedulerError)

	require.NoError(testInstance, scheduler.Run(cancellableContext))
	require.Equal(testInstance, 1, runner.cyclesRun)
}

func TestSchedulerClampsIntervalBelowFloor(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	configuration := configstore.DefaultConfiguration()
	configuration.IntervalMinutes = 0

	cancellableContext, cancelFunction := context.WithCancel(context.Background())
	runner := &scriptedCycleRunner{configuration: configuration, cancelAfter: 1, cancel: cancelFunction}
	scheduler, schedulerError := daemon.NewScheduler(runner, zap.New(observedCore), 0, false)
	require.NoError(testInstance, schedulerError)

	require.NoError(testInstance, scheduler.Run(cancellableContext))
	require.Len(testInstance, observedLogs.FilterLevelExact(zapcore.WarnLevel).All(), 1)
}

func TestSchedulerIntervalOverrideTakesPrecedence(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	runner := &scriptedCycleRunner{configuration: successfulConfiguration()}
	scheduler, schedulerError := daemon.NewScheduler(runner, zap.New(observedCore), 3, true)
	require.NoError(testInstance, schedulerError)

	require.NoError(testInstance, scheduler.Run(context.Background()))

	startedEntries := observedLogs.FilterMessage("scheduler started").All()
	require.Len(testInstance, startedEntries, 1)
	require.Equal(testInstance, int64(3), startedEntries[0].ContextMap()["interval_minutes"])
}
