package syncer

import (
	"context"

	"github.com/gitsyncd/gitsyncd/internal/execshell"
	"github.com/gitsyncd/gitsyncd/internal/gitrepo"
)

// GitExecutor runs git commands and reports their results.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ConnectivityProber reports whether a remote endpoint accepts connections.
type ConnectivityProber interface {
	Reachable(probeContext context.Context, endpoint gitrepo.ProbeEndpoint) bool
}

// RepositoryOperations is the capability surface the operator sequences over
// one tracked directory. Implementations run real git; tests substitute fakes.
type RepositoryOperations interface {
	// EnsureRepository initializes a repository on the configured branch when
	// the path is not yet a working copy.
	EnsureRepository(executionContext context.Context, repositoryPath string, branchName string) error
	// EnsureRemote adds the remote URL as origin when no origin exists. An
	// existing origin is never overwritten.
	EnsureRemote(executionContext context.Context, repositoryPath string, remoteURL string) error
	// CurrentBranch returns the checked-out branch name, or an empty string
	// for a detached head.
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	// SwitchBranch checks out the branch, creating it when absent.
	SwitchBranch(executionContext context.Context, repositoryPath string, branchName string) error
	// HasChanges reports whether the working tree has uncommitted changes.
	HasChanges(executionContext context.Context, repositoryPath string) (bool, error)
	// StageAll stages every addition, modification, and deletion.
	StageAll(executionContext context.Context, repositoryPath string) error
	// Commit records staged changes with the supplied message.
	Commit(executionContext context.Context, repositoryPath string, commitMessage string) error
	// HasCommits reports whether the repository has at least one commit.
	HasCommits(executionContext context.Context, repositoryPath string) (bool, error)
	// RemoteBranchExists reports whether origin advertises the branch.
	RemoteBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
	// Fetch retrieves the latest remote state for the branch, pruning removed refs.
	Fetch(executionContext context.Context, repositoryPath string, branchName string) error
	// Rebase replays local commits on top of the fetched remote branch tip.
	Rebase(executionContext context.Context, repositoryPath string, branchName string) error
	// AbortRebase restores the pre-rebase state after a conflicted rebase.
	AbortRebase(executionContext context.Context, repositoryPath string) error
	// UnpushedCommitCount counts local commits origin does not yet have.
	UnpushedCommitCount(executionContext context.Context, repositoryPath string, branchName string) (int, error)
	// Push publishes the local branch to origin, creating the remote branch
	// on first push.
	Push(executionContext context.Context, repositoryPath string, branchName string) error
}
