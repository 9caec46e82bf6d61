package syncer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/execshell"
)

const (
	gitExecutorNotConfiguredMessageConstant = "git executor not configured"

	originRemoteNameConstant                = "origin"
	remoteTrackingReferencePrefixConstant   = "refs/remotes/origin/"
	headReferenceNameConstant               = "HEAD"
	disableTerminalPromptVariableConstant   = "GIT_TERMINAL_PROMPT"
	disableTerminalPromptValueConstant      = "0"
	networkOperationTimeoutConstant         = 2 * time.Minute
	initArgumentConstant                    = "init"
	initialBranchFlagConstant               = "-b"
	statusArgumentConstant                  = "status"
	porcelainFlagConstant                   = "--porcelain"
	addArgumentConstant                     = "add"
	stageAllFlagConstant                    = "-A"
	commitArgumentConstant                  = "commit"
	messageFlagConstant                     = "-m"
	checkoutArgumentConstant                = "checkout"
	createBranchFlagConstant                = "-B"
	fetchArgumentConstant                   = "fetch"
	pruneFlagConstant                       = "--prune"
	rebaseArgumentConstant                  = "rebase"
	abortFlagConstant                       = "--abort"
	pushArgumentConstant                    = "push"
	setUpstreamFlagConstant                 = "-u"
	remoteArgumentConstant                  = "remote"
	remoteGetURLArgumentConstant            = "get-url"
	remoteAddArgumentConstant               = "add"
	revParseArgumentConstant                = "rev-parse"
	revListArgumentConstant                 = "rev-list"
	countFlagConstant                       = "--count"
	verifyFlagConstant                      = "--verify"
	quietFlagConstant                       = "--quiet"
	symbolicRefArgumentConstant             = "symbolic-ref"
	shortFlagConstant                       = "--short"
	isInsideWorkTreeFlagConstant            = "--is-inside-work-tree"
	lsRemoteArgumentConstant                = "ls-remote"
	exitCodeFlagConstant                    = "--exit-code"
	headsFlagConstant                       = "--heads"
	lsRemoteBranchMissingExitCodeConstant   = 2
	unpushedCountParseTemplateConstant      = "unable to parse unpushed commit count %q: %w"
	remoteBranchSeparatorConstant           = "/"
	commitRangeSeparatorConstant            = ".."
)

// ErrGitExecutorNotConfigured indicates a repository service was constructed
// without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// GitRepositoryService implements RepositoryOperations with git subprocesses.
// Remote operations run with a bounded timeout and with terminal credential
// prompts disabled so an unauthenticated remote fails instead of hanging.
type GitRepositoryService struct {
	gitExecutor    GitExecutor
	networkTimeout time.Duration
}

// NewGitRepositoryService constructs a GitRepositoryService over the executor.
func NewGitRepositoryService(gitExecutor GitExecutor) (*GitRepositoryService, error) {
	if gitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &GitRepositoryService{gitExecutor: gitExecutor, networkTimeout: networkOperationTimeoutConstant}, nil
}

func (service *GitRepositoryService) runLocal(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{disableTerminalPromptVariableConstant: disableTerminalPromptValueConstant},
	})
}

func (service *GitRepositoryService) runRemote(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{disableTerminalPromptVariableConstant: disableTerminalPromptValueConstant},
		Timeout:              service.networkTimeout,
	})
}

// EnsureRepository initializes the path as a repository on the branch when it
// is not already a working copy. Older git without init -b support falls back
// to a plain init followed by a branch checkout.
func (service *GitRepositoryService) EnsureRepository(executionContext context.Context, repositoryPath string, branchName string) error {
	if _, probeError := service.runLocal(executionContext, repositoryPath, revParseArgumentConstant, isInsideWorkTreeFlagConstant); probeError == nil {
		return nil
	}

	if _, initError := service.runLocal(executionContext, "", initArgumentConstant, initialBranchFlagConstant, branchName, repositoryPath); initError == nil {
		return nil
	}

	if _, initError := service.runLocal(executionContext, "", initArgumentConstant, repositoryPath); initError != nil {
		return initError
	}
	return service.SwitchBranch(executionContext, repositoryPath, branchName)
}

// EnsureRemote adds the URL as origin when the repository has no origin yet.
func (service *GitRepositoryService) EnsureRemote(executionContext context.Context, repositoryPath string, remoteURL string) error {
	if _, getURLError := service.runLocal(executionContext, repositoryPath, remoteArgumentConstant, remoteGetURLArgumentConstant, originRemoteNameConstant); getURLError == nil {
		return nil
	}

	_, addError := service.runLocal(executionContext, repositoryPath, remoteArgumentConstant, remoteAddArgumentConstant, originRemoteNameConstant, remoteURL)
	return addError
}

// CurrentBranch returns the checked-out branch name, or an empty string for a
// detached head.
func (service *GitRepositoryService) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, symbolicRefError := service.runLocal(executionContext, repositoryPath, symbolicRefArgumentConstant, quietFlagConstant, shortFlagConstant, headReferenceNameConstant)
	if symbolicRefError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(symbolicRefError, &commandFailure) {
			return "", nil
		}
		return "", symbolicRefError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// SwitchBranch checks out the branch, creating it when absent.
func (service *GitRepositoryService) SwitchBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	_, checkoutError := service.runLocal(executionContext, repositoryPath, checkoutArgumentConstant, createBranchFlagConstant, branchName)
	return checkoutError
}

// HasChanges reports whether the working tree has uncommitted changes.
func (service *GitRepositoryService) HasChanges(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, statusError := service.runLocal(executionContext, repositoryPath, statusArgumentConstant, porcelainFlagConstant)
	if statusError != nil {
		return false, statusError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// StageAll stages every addition, modification, and deletion.
func (service *GitRepositoryService) StageAll(executionContext context.Context, repositoryPath string) error {
	_, stageError := service.runLocal(executionContext, repositoryPath, addArgumentConstant, stageAllFlagConstant)
	return stageError
}

// Commit records staged changes with the supplied message.
func (service *GitRepositoryService) Commit(executionContext context.Context, repositoryPath string, commitMessage string) error {
	_, commitError := service.runLocal(executionContext, repositoryPath, commitArgumentConstant, messageFlagConstant, commitMessage)
	return commitError
}

// HasCommits reports whether the repository has at least one commit.
func (service *GitRepositoryService) HasCommits(executionContext context.Context, repositoryPath string) (bool, error) {
	_, verifyError := service.runLocal(executionContext, repositoryPath, revParseArgumentConstant, verifyFlagConstant, quietFlagConstant, headReferenceNameConstant)
	if verifyError == nil {
		return true, nil
	}
	var commandFailure execshell.CommandFailedError
	if errors.As(verifyError, &commandFailure) {
		return false, nil
	}
	return false, verifyError
}

// RemoteBranchExists asks origin whether it advertises the branch.
func (service *GitRepositoryService) RemoteBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	_, lsRemoteError := service.runRemote(executionContext, repositoryPath, lsRemoteArgumentConstant, exitCodeFlagConstant, headsFlagConstant, originRemoteNameConstant, branchName)
	if lsRemoteError == nil {
		return true, nil
	}
	var commandFailure execshell.CommandFailedError
	if errors.As(lsRemoteError, &commandFailure) && commandFailure.Result.ExitCode == lsRemoteBranchMissingExitCodeConstant {
		return false, nil
	}
	return false, lsRemoteError
}

// Fetch retrieves the latest remote state for the branch, pruning removed refs.
func (service *GitRepositoryService) Fetch(executionContext context.Context, repositoryPath string, branchName string) error {
	_, fetchError := service.runRemote(executionContext, repositoryPath, fetchArgumentConstant, pruneFlagConstant, originRemoteNameConstant, branchName)
	return fetchError
}

// Rebase replays local commits on top of the fetched remote branch tip.
func (service *GitRepositoryService) Rebase(executionContext context.Context, repositoryPath string, branchName string) error {
	_, rebaseError := service.runLocal(executionContext, repositoryPath, rebaseArgumentConstant, originRemoteNameConstant+remoteBranchSeparatorConstant+branchName)
	return rebaseError
}

// AbortRebase restores the pre-rebase state after a conflicted rebase.
func (service *GitRepositoryService) AbortRebase(executionContext context.Context, repositoryPath string) error {
	_, abortError := service.runLocal(executionContext, repositoryPath, rebaseArgumentConstant, abortFlagConstant)
	return abortError
}

// UnpushedCommitCount counts local commits origin does not yet have. Before
// the first push the remote-tracking reference is absent and every local
// commit counts as unpushed.
func (service *GitRepositoryService) UnpushedCommitCount(executionContext context.Context, repositoryPath string, branchName string) (int, error) {
	remoteTrackingReference := remoteTrackingReferencePrefixConstant + branchName
	if _, verifyError := service.runLocal(executionContext, repositoryPath, revParseArgumentConstant, verifyFlagConstant, quietFlagConstant, remoteTrackingReference); verifyError != nil {
		var commandFailure execshell.CommandFailedError
		if !errors.As(verifyError, &commandFailure) {
			return 0, verifyError
		}

		hasCommits, hasCommitsError := service.HasCommits(executionContext, repositoryPath)
		if hasCommitsError != nil {
			return 0, hasCommitsError
		}
		if !hasCommits {
			return 0, nil
		}
		return service.countCommits(executionContext, repositoryPath, headReferenceNameConstant)
	}

	commitRange := originRemoteNameConstant + remoteBranchSeparatorConstant + branchName + commitRangeSeparatorConstant + headReferenceNameConstant
	return service.countCommits(executionContext, repositoryPath, commitRange)
}

func (service *GitRepositoryService) countCommits(executionContext context.Context, repositoryPath string, revisionRange string) (int, error) {
	executionResult, revListError := service.runLocal(executionContext, repositoryPath, revListArgumentConstant, countFlagConstant, revisionRange)
	if revListError != nil {
		return 0, revListError
	}

	trimmedCount := strings.TrimSpace(executionResult.StandardOutput)
	commitCount, parseError := strconv.Atoi(trimmedCount)
	if parseError != nil {
		return 0, fmt.Errorf(unpushedCountParseTemplateConstant, trimmedCount, parseError)
	}
	return commitCount, nil
}

// Push publishes the local branch to origin, creating the remote branch and
// upstream tracking on first push.
func (service *GitRepositoryService) Push(executionContext context.Context, repositoryPath string, branchName string) error {
	_, pushError := service.runRemote(executionContext, repositoryPath, pushArgumentConstant, setUpstreamFlagConstant, originRemoteNameConstant, branchName)
	return pushError
}
