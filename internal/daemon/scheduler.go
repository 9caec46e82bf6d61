package daemon

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
)

const (
	cycleRunnerNotConfiguredMessageConstant     = "cycle runner not configured"
	schedulerLoggerNotConfiguredMessageConstant = "scheduler logger not configured"

	intervalClampedLogMessageConstant  = "configured interval below floor, clamping"
	schedulerStartedLogMessageConstant = "scheduler started"
	schedulerStoppedLogMessageConstant = "scheduler stopped"
	cycleErrorLogMessageConstant       = "cycle aborted by error"

	logFieldIntervalMinutesConstant   = "interval_minutes"
	logFieldRequestedIntervalConstant = "requested_interval_minutes"
	logFieldContinuousModeConstant    = "continuous"
	minutesPerIntervalUnitConstant    = time.Minute
)

// ErrCycleRunnerNotConfigured indicates a scheduler was constructed without a
// cycle runner.
var ErrCycleRunnerNotConfigured = errors.New(cycleRunnerNotConfiguredMessageConstant)

// ErrSchedulerLoggerNotConfigured indicates a scheduler was constructed
// without a logger.
var ErrSchedulerLoggerNotConfigured = errors.New(schedulerLoggerNotConfiguredMessageConstant)

// CycleRunner loads configuration and executes synchronization cycles.
type CycleRunner interface {
	LoadConfiguration() (configstore.Configuration, error)
	RunCycle(executionContext context.Context, configuration configstore.Configuration) (syncer.CycleSummary, error)
}

// Scheduler repeats synchronization cycles at a configured interval until its
// context is cancelled. Configuration is loaded once at startup.
type Scheduler struct {
	cycleRunner             CycleRunner
	logger                  *zap.Logger
	intervalMinutesOverride int
	runOnce                 bool
}

// NewScheduler constructs a Scheduler after validating its collaborators. An
// intervalMinutesOverride of zero defers to the configured interval; runOnce
// limits the scheduler to a single cycle.
func NewScheduler(cycleRunner CycleRunner, logger *zap.Logger, intervalMinutesOverride int, runOnce bool) (*Scheduler, error) {
	if cycleRunner == nil {
		return nil, ErrCycleRunnerNotConfigured
	}
	if logger == nil {
		return nil, ErrSchedulerLoggerNotConfigured
	}

	return &Scheduler{
		cycleRunner:             cycleRunner,
		logger:                  logger,
		intervalMinutesOverride: intervalMinutesOverride,
		runOnce:                 runOnce,
	}, nil
}

// Run executes cycles until the context is cancelled, or exactly one cycle in
// once mode. In once mode the error reflects whether any entry failed; in
// continuous mode cycle failures never terminate the loop.
func (scheduler *Scheduler) Run(executionContext context.Context) error {
	configuration, loadError := scheduler.cycleRunner.LoadConfiguration()
	if loadError != nil {
		return loadError
	}

	intervalMinutes := scheduler.resolveIntervalMinutes(configuration)
	scheduler.logger.Info(
		schedulerStartedLogMessageConstant,
		zap.Int(logFieldIntervalMinutesConstant, intervalMinutes),
		zap.Bool(logFieldContinuousModeConstant, !scheduler.runOnce),
	)

	for {
		summary, cycleError := scheduler.cycleRunner.RunCycle(executionContext, configuration)
		if scheduler.runOnce {
			if cycleError != nil {
				return cycleError
			}
			if summary.Failed() {
				return syncer.ErrSyncCycleFailed
			}
			return nil
		}
		if cycleError != nil {
			scheduler.logger.Error(cycleErrorLogMessageConstant, zap.Error(cycleError))
		}

		intervalTimer := time.NewTimer(time.Duration(intervalMinutes) * minutesPerIntervalUnitConstant)
		select {
		case <-executionContext.Done():
			intervalTimer.Stop()
			scheduler.logger.Info(schedulerStoppedLogMessageConstant)
			return nil
		case <-intervalTimer.C:
		}
	}
}

// resolveIntervalMinutes applies the override when present and enforces the
// one minute floor, warning when a requested value is clamped.
func (scheduler *Scheduler) resolveIntervalMinutes(configuration configstore.Configuration) int {
	requestedMinutes := configuration.IntervalMinutes
	if scheduler.intervalMinutesOverride > 0 {
		requestedMinutes = scheduler.intervalMinutesOverride
	}
	if requestedMinutes < configstore.MinimumIntervalMinutes {
		scheduler.logger.Warn(
			intervalClampedLogMessageConstant,
			zap.Int(logFieldRequestedIntervalConstant, requestedMinutes),
			zap.Int(logFieldIntervalMinutesConstant, configstore.MinimumIntervalMinutes),
		)
		return configstore.MinimumIntervalMinutes
	}
	return requestedMinutes
}
