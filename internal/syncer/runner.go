package syncer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
)

const (
	entrySynchronizerNotConfiguredMessageConstant = "entry synchronizer not configured"
	runnerLoggerNotConfiguredMessageConstant      = "cycle runner logger not configured"

	entryOutcomeLogMessageConstant     = "entry synchronized"
	entryFailedLogMessageConstant      = "entry failed to synchronize"
	cycleInterruptedLogMessageConstant = "cycle interrupted, skipping remaining entries"
	cycleSummaryLogMessageConstant     = "cycle completed"

	logFieldEntryPathConstant          = "path"
	logFieldEntryBranchConstant        = "branch"
	logFieldOutcomeConstant            = "outcome"
	logFieldEntriesTotalConstant       = "entries"
	logFieldEntriesSkippedConstant     = "entries_skipped"
	logFieldNoChangeCountConstant      = "no_change"
	logFieldCommittedOnlyCountConstant = "committed_only"
	logFieldPushedCountConstant        = "committed_and_pushed"
	logFieldOfflineSkipCountConstant   = "push_skipped_offline"
	logFieldDisabledSkipCountConstant  = "push_skipped_disabled"
	logFieldFailedCountConstant        = "failed"
)

// ErrEntrySynchronizerNotConfigured indicates a runner was constructed
// without an entry synchronizer.
var ErrEntrySynchronizerNotConfigured = errors.New(entrySynchronizerNotConfiguredMessageConstant)

// ErrRunnerLoggerNotConfigured indicates a runner was constructed without a logger.
var ErrRunnerLoggerNotConfigured = errors.New(runnerLoggerNotConfiguredMessageConstant)

// EntrySynchronizer runs the per-entry sequence for one tracked entry.
type EntrySynchronizer interface {
	SyncEntry(executionContext context.Context, entry configstore.Entry) EntryResult
}

// Runner executes the synchronizer over every entry once per cycle, in
// configuration order, isolating per-entry failures.
type Runner struct {
	synchronizer EntrySynchronizer
	logger       *zap.Logger
}

// NewRunner constructs a Runner after validating its collaborators.
func NewRunner(synchronizer EntrySynchronizer, logger *zap.Logger) (*Runner, error) {
	if synchronizer == nil {
		return nil, ErrEntrySynchronizerNotConfigured
	}
	if logger == nil {
		return nil, ErrRunnerLoggerNotConfigured
	}
	return &Runner{synchronizer: synchronizer, logger: logger}, nil
}

// RunCycle synchronizes every entry once and aggregates the outcomes. A
// cancelled context finishes the current entry and skips the remainder of the
// cycle: cancellation is observed only between entries, and the in-flight
// entry runs on a detached context so its git operations are never killed
// halfway through a commit or rebase. A cycle with zero entries succeeds
// trivially.
func (runner *Runner) RunCycle(executionContext context.Context, entries []configstore.Entry) CycleSummary {
	summary := CycleSummary{Results: make([]EntryResult, 0, len(entries))}
	entryContext := context.WithoutCancel(executionContext)

	for entryIndex, entry := range entries {
		if executionContext.Err() != nil {
			runner.logger.Warn(cycleInterruptedLogMessageConstant, zap.Int(logFieldEntriesSkippedConstant, len(entries)-entryIndex))
			break
		}

		entryResult := runner.synchronizer.SyncEntry(entryContext, entry)
		summary.Results = append(summary.Results, entryResult)
		runner.logEntryResult(entryResult)
	}

	runner.logSummary(summary)
	return summary
}

func (runner *Runner) logEntryResult(entryResult EntryResult) {
	if entryResult.Outcome == OutcomeFailed {
		runner.logger.Error(
			entryFailedLogMessageConstant,
			zap.String(logFieldEntryPathConstant, entryResult.Entry.Path),
			zap.String(logFieldEntryBranchConstant, entryResult.Entry.Branch),
			zap.String(logFieldOutcomeConstant, string(entryResult.Outcome)),
			zap.Error(entryResult.Failure),
		)
		return
	}

	runner.logger.Info(
		entryOutcomeLogMessageConstant,
		zap.String(logFieldEntryPathConstant, entryResult.Entry.Path),
		zap.String(logFieldEntryBranchConstant, entryResult.Entry.Branch),
		zap.String(logFieldOutcomeConstant, string(entryResult.Outcome)),
	)
}

func (runner *Runner) logSummary(summary CycleSummary) {
	runner.logger.Info(
		cycleSummaryLogMessageConstant,
		zap.Int(logFieldEntriesTotalConstant, summary.Total()),
		zap.Int(logFieldNoChangeCountConstant, summary.Count(OutcomeNoChange)),
		zap.Int(logFieldCommittedOnlyCountConstant, summary.Count(OutcomeCommittedOnly)),
		zap.Int(logFieldPushedCountConstant, summary.Count(OutcomeCommittedAndPushed)),
		zap.Int(logFieldOfflineSkipCountConstant, summary.Count(OutcomePushSkippedOffline)),
		zap.Int(logFieldDisabledSkipCountConstant, summary.Count(OutcomePushSkippedDisabled)),
		zap.Int(logFieldFailedCountConstant, summary.Count(OutcomeFailed)),
	)
}
