package syncer

import "github.com/gitsyncd/gitsyncd/internal/configstore"

const (
	outcomeNoChangeStringConstant            = "no-change"
	outcomeCommittedOnlyStringConstant       = "committed-only"
	outcomeCommittedAndPushedStringConstant  = "committed-and-pushed"
	outcomePushSkippedOfflineStringConstant  = "push-skipped-offline"
	outcomePushSkippedDisabledStringConstant = "push-skipped-disabled"
	outcomeFailedStringConstant              = "failed"
)

// Outcome classifies the final state of one operator pass over one entry.
type Outcome string

// Enumerated sync outcomes, mutually exclusive per entry per cycle.
const (
	OutcomeNoChange            Outcome = Outcome(outcomeNoChangeStringConstant)
	OutcomeCommittedOnly       Outcome = Outcome(outcomeCommittedOnlyStringConstant)
	OutcomeCommittedAndPushed  Outcome = Outcome(outcomeCommittedAndPushedStringConstant)
	OutcomePushSkippedOffline  Outcome = Outcome(outcomePushSkippedOfflineStringConstant)
	OutcomePushSkippedDisabled Outcome = Outcome(outcomePushSkippedDisabledStringConstant)
	OutcomeFailed              Outcome = Outcome(outcomeFailedStringConstant)
)

// EntryResult records the outcome of synchronizing one entry.
type EntryResult struct {
	Entry   configstore.Entry
	Outcome Outcome
	Failure error
}

// CycleSummary aggregates the results of one cycle over every entry.
type CycleSummary struct {
	Results []EntryResult
}

// Count returns how many entries finished the cycle with the given outcome.
func (summary CycleSummary) Count(outcome Outcome) int {
	matchingResults := 0
	for _, entryResult := range summary.Results {
		if entryResult.Outcome == outcome {
			matchingResults++
		}
	}
	return matchingResults
}

// Total returns how many entries were processed during the cycle.
func (summary CycleSummary) Total() int {
	return len(summary.Results)
}

// Failed reports whether any entry finished the cycle in the failed state.
func (summary CycleSummary) Failed() bool {
	return summary.Count(OutcomeFailed) > 0
}
