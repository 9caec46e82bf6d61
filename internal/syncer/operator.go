package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
	"github.com/gitsyncd/gitsyncd/internal/gitrepo"
)

const (
	repositoryOperationsNotConfiguredMessageConstant = "repository operations not configured"
	connectivityProberNotConfiguredMessageConstant   = "connectivity prober not configured"
	commitTimestampLayoutConstant                    = "2006-01-02 15:04:05"
	commitMessageTemplateConstant                    = "%s (%s)"
	rebaseConflictTemplateConstant                   = "rebase of %s onto origin/%s conflicted and was aborted; manual resolution required: %w"
)

// ErrRepositoryOperationsNotConfigured indicates an operator was constructed
// without repository operations.
var ErrRepositoryOperationsNotConfigured = errors.New(repositoryOperationsNotConfiguredMessageConstant)

// ErrConnectivityProberNotConfigured indicates an operator was constructed
// without a connectivity prober.
var ErrConnectivityProberNotConfigured = errors.New(connectivityProberNotConfiguredMessageConstant)

// TimestampProvider supplies the commit timestamp. Tests substitute fixed clocks.
type TimestampProvider func() time.Time

// OperatorDependencies carries the collaborators an Operator sequences.
type OperatorDependencies struct {
	Repository        RepositoryOperations
	Prober            ConnectivityProber
	FallbackEndpoint  gitrepo.ProbeEndpoint
	DisablePush       bool
	TimestampProvider TimestampProvider
}

// Operator brings one tracked entry to a consistent, published state per
// cycle: ensure repository, stage and commit, connectivity gate, fetch,
// rebase, push. Each step's failure short-circuits the rest for that entry.
type Operator struct {
	repository        RepositoryOperations
	prober            ConnectivityProber
	fallbackEndpoint  gitrepo.ProbeEndpoint
	disablePush       bool
	timestampProvider TimestampProvider
}

// NewOperator constructs an Operator after validating its collaborators.
func NewOperator(dependencies OperatorDependencies) (*Operator, error) {
	if dependencies.Repository == nil {
		return nil, ErrRepositoryOperationsNotConfigured
	}
	if dependencies.Prober == nil {
		return nil, ErrConnectivityProberNotConfigured
	}

	timestampProvider := dependencies.TimestampProvider
	if timestampProvider == nil {
		timestampProvider = time.Now
	}

	return &Operator{
		repository:        dependencies.Repository,
		prober:            dependencies.Prober,
		fallbackEndpoint:  dependencies.FallbackEndpoint,
		disablePush:       dependencies.DisablePush,
		timestampProvider: timestampProvider,
	}, nil
}

// SyncEntry runs the full per-cycle sequence for one entry and classifies the
// result. Operational errors are captured in the result, never propagated.
func (operator *Operator) SyncEntry(executionContext context.Context, entry configstore.Entry) EntryResult {
	sanitizedEntry := entry.Sanitize()

	if ensureError := operator.repository.EnsureRepository(executionContext, sanitizedEntry.Path, sanitizedEntry.Branch); ensureError != nil {
		return failedResult(sanitizedEntry, ensureError)
	}

	if sanitizedEntry.HasRemote() {
		if remoteError := operator.repository.EnsureRemote(executionContext, sanitizedEntry.Path, sanitizedEntry.Remote); remoteError != nil {
			return failedResult(sanitizedEntry, remoteError)
		}
	}

	if branchError := operator.alignBranch(executionContext, sanitizedEntry); branchError != nil {
		return failedResult(sanitizedEntry, branchError)
	}

	committed, commitError := operator.commitLocalChanges(executionContext, sanitizedEntry)
	if commitError != nil {
		return failedResult(sanitizedEntry, commitError)
	}

	pushDisabled := operator.disablePush || !sanitizedEntry.Push
	if !sanitizedEntry.HasRemote() || pushDisabled {
		if committed {
			return EntryResult{Entry: sanitizedEntry, Outcome: OutcomeCommittedOnly}
		}
		if sanitizedEntry.HasRemote() {
			return EntryResult{Entry: sanitizedEntry, Outcome: OutcomePushSkippedDisabled}
		}
		return EntryResult{Entry: sanitizedEntry, Outcome: OutcomeNoChange}
	}

	probeEndpoint := gitrepo.DeriveProbeEndpoint(sanitizedEntry.Remote, operator.fallbackEndpoint)
	if !operator.prober.Reachable(executionContext, probeEndpoint) {
		return operator.classifyOffline(executionContext, sanitizedEntry, committed)
	}

	return operator.reconcileAndPush(executionContext, sanitizedEntry)
}

// alignBranch switches a detached head or a differently named branch to the
// configured branch before staging.
func (operator *Operator) alignBranch(executionContext context.Context, entry configstore.Entry) error {
	currentBranch, branchError := operator.repository.CurrentBranch(executionContext, entry.Path)
	if branchError != nil {
		return branchError
	}
	if currentBranch == entry.Branch {
		return nil
	}
	return operator.repository.SwitchBranch(executionContext, entry.Path, entry.Branch)
}

func (operator *Operator) commitLocalChanges(executionContext context.Context, entry configstore.Entry) (bool, error) {
	hasChanges, changesError := operator.repository.HasChanges(executionContext, entry.Path)
	if changesError != nil {
		return false, changesError
	}
	if !hasChanges {
		return false, nil
	}

	if stageError := operator.repository.StageAll(executionContext, entry.Path); stageError != nil {
		return false, stageError
	}

	commitMessage := fmt.Sprintf(commitMessageTemplateConstant, entry.CommitMessage, operator.timestampProvider().Format(commitTimestampLayoutConstant))
	if commitError := operator.repository.Commit(executionContext, entry.Path, commitMessage); commitError != nil {
		return false, commitError
	}
	return true, nil
}

// classifyOffline distinguishes a quiet offline cycle from one that left
// unpushed work behind. A commit made this cycle stays committed-only; a
// backlog from an earlier cycle is reported as push-skipped-offline.
func (operator *Operator) classifyOffline(executionContext context.Context, entry configstore.Entry, committed bool) EntryResult {
	if committed {
		return EntryResult{Entry: entry, Outcome: OutcomeCommittedOnly}
	}

	unpushedCount, countError := operator.repository.UnpushedCommitCount(executionContext, entry.Path, entry.Branch)
	if countError != nil {
		return failedResult(entry, countError)
	}
	if unpushedCount > 0 {
		return EntryResult{Entry: entry, Outcome: OutcomePushSkippedOffline}
	}
	return EntryResult{Entry: entry, Outcome: OutcomeNoChange}
}

// reconcileAndPush fetches and rebases when the remote branch exists, then
// pushes whenever local commits are ahead of origin. Push runs even without a
// commit this cycle so work committed offline is published on the next
// reachable cycle. A repository with an unborn HEAD has nothing to reconcile
// or publish; rebasing it would fail, so the entry is reported idle.
func (operator *Operator) reconcileAndPush(executionContext context.Context, entry configstore.Entry) EntryResult {
	hasCommits, hasCommitsError := operator.repository.HasCommits(executionContext, entry.Path)
	if hasCommitsError != nil {
		return failedResult(entry, hasCommitsError)
	}
	if !hasCommits {
		return EntryResult{Entry: entry, Outcome: OutcomeNoChange}
	}

	remoteBranchExists, remoteBranchError := operator.repository.RemoteBranchExists(executionContext, entry.Path, entry.Branch)
	if remoteBranchError != nil {
		return failedResult(entry, remoteBranchError)
	}

	if remoteBranchExists {
		if fetchError := operator.repository.Fetch(executionContext, entry.Path, entry.Branch); fetchError != nil {
			return failedResult(entry, fetchError)
		}

		if rebaseError := operator.repository.Rebase(executionContext, entry.Path, entry.Branch); rebaseError != nil {
			if abortError := operator.repository.AbortRebase(executionContext, entry.Path); abortError != nil {
				return failedResult(entry, errors.Join(rebaseError, abortError))
			}
			return failedResult(entry, fmt.Errorf(rebaseConflictTemplateConstant, entry.Path, entry.Branch, rebaseError))
		}
	}

	unpushedCount, countError := operator.repository.UnpushedCommitCount(executionContext, entry.Path, entry.Branch)
	if countError != nil {
		return failedResult(entry, countError)
	}
	if unpushedCount == 0 {
		return EntryResult{Entry: entry, Outcome: OutcomeNoChange}
	}

	if pushError := operator.repository.Push(executionContext, entry.Path, entry.Branch); pushError != nil {
		return failedResult(entry, pushError)
	}
	return EntryResult{Entry: entry, Outcome: OutcomeCommittedAndPushed}
}

func failedResult(entry configstore.Entry, failure error) EntryResult {
	return EntryResult{Entry: entry, Outcome: OutcomeFailed, Failure: failure}
}
