package syncer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitsyncd/gitsyncd/internal/execshell"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
)

const (
	testRepositoryPathConstant          = "/srv/notes"
	testRepositoryBranchConstant        = "main"
	testTerminalPromptVariableConstant  = "GIT_TERMINAL_PROMPT"
	testPorcelainOutputConstant         = " M notes.md\n?? scratch.txt\n"
	testRemoteRejectedExitCodeConstant  = 128
	testRemoteBranchMissingExitConstant = 2
)

type scriptedGitExecutor struct {
	script           func(arguments []string) (execshell.ExecutionResult, error)
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if executor.script == nil {
		return execshell.ExecutionResult{}, nil
	}
	return executor.script(details.Arguments)
}

func commandFailure(arguments []string, exitCode int) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: arguments}},
		Result:  execshell.ExecutionResult{ExitCode: exitCode},
	}
}

func newRepositoryService(testInstance *testing.T, executor *scriptedGitExecutor) *syncer.GitRepositoryService {
	testInstance.Helper()
	service, serviceError := syncer.NewGitRepositoryService(executor)
	require.NoError(testInstance, serviceError)
	return service
}

func TestNewGitRepositoryServiceRequiresExecutor(testInstance *testing.T) {
	_, serviceError := syncer.NewGitRepositoryService(nil)
	require.ErrorIs(testInstance, serviceError, syncer.ErrGitExecutorNotConfigured)
}

func TestHasChangesParsesPorcelainStatus(testInstance *testing.T) {
	testCases := []struct {
		name           string
		statusOutput   string
		expectsChanges bool
	}{
		{name: "dirty_tree", statusOutput: testPorcelainOutputConstant, expectsChanges: true},
		{name: "clean_tree", statusOutput: "\n", expectsChanges: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{script: func(_ []string) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testCase.statusOutput}, nil
			}}
			service := newRepositoryService(testInstance, executor)

			hasChanges, changesError := service.HasChanges(context.Background(), testRepositoryPathConstant)
			require.NoError(testInstance, changesError)
			require.Equal(testInstance, testCase.expectsChanges, hasChanges)

			require.Len(testInstance, executor.recordedCommands, 1)
			require.Equal(testInstance, []string{"status", "--porcelain"}, executor.recordedCommands[0].Arguments)
			require.Equal(testInstance, testRepositoryPathConstant, executor.recordedCommands[0].WorkingDirectory)
			require.Equal(testInstance, "0", executor.recordedCommands[0].EnvironmentVariables[testTerminalPromptVariableConstant])
		})
	}
}

func TestCurrentBranchReportsDetachedHeadAsEmpty(testInstance *testing.T) {
	executor := &scriptedGitExecutor{script: func(arguments []string) (execshell.ExecutionResult, error) {
		return execshell.ExecutionResult{}, commandFailure(arguments, 1)
	}}
	service := newRepositoryService(testInstance, executor)

	branchName, branchError := service.CurrentBranch(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, branchError)
	require.Empty(testInstance, branchName)
}

func TestCurrentBranchTrimsSymbolicRefOutput(testInstance *testing.T) {
	executor := &scriptedGitExecutor{script: func(_ []string) (execshell.ExecutionResult, error) {
		return execshell.ExecutionResult{StandardOutput: testRepositoryBranchConstant + "\n"}, nil
	}}
	service := newRepositoryService(testInstance, executor)

	branchName, branchError := service.CurrentBranch(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, branchError)
	require.Equal(testInstance, testRepositoryBranchConstant, branchName)
}

func TestEnsureRepositorySkipsInitForExistingWorkingCopy(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	service := newRepositoryService(testInstance, executor)

	require.NoError(testInstance, service.EnsureRepository(context.Background(), testRepositoryPathConstant, testRepositoryBranchConstant))
	require.Len(testInstance, executor.recordedCommands, 1)
	require.Equal(testInstance, []string{"rev-parse", "--is-inside-work-tree"}, executor.recordedCommands[0].Arguments)
}

func TestEnsureRepositoryInitializesWithConfiguredBranch(testInstance *testing.T) {
	executor := &scriptedGitExecutor{script: func(arguments []string) (execshell.ExecutionResult, error) {
		if arguments[0] == "rev-parse" {
			return execshell.ExecutionResult{}, commandFailure(arguments, testRemoteRejectedExitCodeConstant)
		}
		return execshell.ExecutionResult{}, nil
	}}
	service := newRepositoryService(testInstance, executor)

	require.NoError(testInstance, service.EnsureRepository(context.Background(), testRepositoryPathConstant, testRepositoryBranchConstant))
	require.Len(testInstance, executor.recordedCommands, 2)
	require.Equal(testInstance, []string{"init", "-b", testRepositoryBranchConstant, testRepositoryPathConstant}, executor.recordedCommands[1].Arguments)
}

func TestEnsureRepositoryFallsBackForOlderGit(testInstance *testing.T) {
	executor := &scriptedGitExecutor{script: func(arguments []string) (execshell.ExecutionResult, error) {
		if arguments[0] == "rev-parse" {
			return execshell.ExecutionResult{}, commandFailure(arguments, testRemoteRejectedExitCodeConstant)
		}
		if arguments[0] == "init" && arguments[1] == "-b" {
			return execshell.ExecutionResult{}, commandFailure(arguments, testRemoteRejectedExitCodeConstant)
		}
		return execshell.ExecutionResult{}, nil
	}}
	service := newRepositoryService(testInstance, executor)

	require.NoError(testInstance, service.EnsureRepository(context.Background(), testRepositoryPathConstant, testRepositoryBranchConstant))
	require.Len(testInstance, executor.recordedCommands, 4)
	require.Equal(testInstance, []string{"init", testRepositoryPathConstant}, executor.recordedCommands[2].Arguments)
	require.Equal(testInstance, []string{"checkout", "-B", testRepositoryBranchConstant}, executor.recordedCommands[3].Arguments)
}

func TestEnsureRemoteAddsOriginOnlyWhenMissing(testInstance *testing.T) {
	testCases := []struct {
		name             string
		originConfigured bool
		expectedCommands int
	}{
		{name: "origin_present_is_left_alone", originConfigured: true, expectedCommands: 1},
		{name: "origin_missing_is_added", originConfigured: false, expectedCommands: 2},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{script: func(arguments []string) (execshell.ExecutionResult, error) {
				if arguments[1] == "get-url" && !testCase.originConfigured {
					return execshell.ExecutionResult{}, commandFailure(arguments, testRemoteBranchMissingExitConstant)
				}
				return execshell.ExecutionResult{}, nil
			}}
			service := newRepositoryService(testInstance, executor)

			require.NoError(testInstance, service.EnsureRemote(context.Background(), testRepositoryPathConstant, testEntryRemoteConstant))
			require.Len(testInstance, executor.recordedCommands, testCase.expectedCommands)
			if !testCase.originConfigured {
				require.Equal(testInstance, []string{"remote", "add", "origin", testEntryRemoteConstant}, executor.recordedCommands[1].Arguments)
			}
		})
	}
}

func TestRemoteBranchExistsClassifiesLsRemoteExitCodes(testInstance *testing.T) {
	testCases := []struct {
		name         string
		exitCode     int
		expectExists bool
		expectError  bool
	}{
		{name: "branch_advertised", exitCode: 0, expectExists: true},
		{name: "branch_missing", exitCode: testRemoteBranchMissingExitConstant},
		{name: "remote_rejected", exitCode: testRemoteRejectedExitCodeConstant, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{script: func(arguments []string) (execshell.ExecutionResult, error) {
				if testCase.exitCode == 0 {
					return execshell.ExecutionResult{}, nil
				}
				return execshell.ExecutionResult{}, commandFailure(arguments, testCase.exitCode)
			}}
			service := newRepositoryService(testInstance, executor)

			branchExists, existsError := service.RemoteBranchExists(context.Background(), testRepositoryPathConstant, testRepositoryBranchConstant)
			if testCase.expectError {
				require.Error(testInstance, existsError)
				return
			}
			require.NoError(testInstance, existsError)
			require.Equal(testInstance, testCase.expectExists, branchExists)
		})
	}
}

func TestUnpushedCommitCountUsesTrackingReferenceWhenPresent(testInstance *testing.T) {
	executor := &scriptedGitExecutor{script: func(arguments []string) (execshell.ExecutionResult, error) {
		if arguments[0] == "rev-list" {
			return execshell.ExecutionResult{StandardOutput: "2\n"}, nil
		}
		return execshell.ExecutionResult{}, nil
	}}
	service := newRepositoryService(testInstance, executor)

	commitCount, countError := service.UnpushedCommitCount(context.Background(), testRepositoryPathConstant, testRepositoryBranchConstant)
	require.NoError(testInstance, countError)
	require.Equal(testInstance, 2, commitCount)

	lastCommand := executor.recordedCommands[len(executor.recordedCommands)-1]
	require.Equal(testInstance, []string{"rev-list", "--count", "origin/main..HEAD"}, lastCommand.Arguments)
}

func TestUnpushedCommitCountBeforeFirstPushCountsAllCommits(testInstance *testing.T) {
	executor := &scriptedGitExecutor{script: func(arguments []string) (execshell.ExecutionResult, error) {
		if arguments[0] == "rev-parse" && strings.HasPrefix(arguments[len(arguments)-1], "refs/remotes/") {
			return execshell.ExecutionResult{}, commandFailure(arguments, 1)
		}
		if arguments[0] == "rev-list" {
			return execshell.ExecutionResult{StandardOutput: "3\n"}, nil
		}
		return execshell.ExecutionResult{}, nil
	}}
	service := newRepositoryService(testInstance, executor)

	commitCount, countError := service.UnpushedCommitCount(context.Background(), testRepositoryPathConstant, testRepositoryBranchConstant)
	require.NoError(testInstance, countError)
	require.Equal(testInstance, 3, commitCount)

	lastCommand := executor.recordedCommands[len(executor.recordedCommands)-1]
	require.Equal(testInstance, []string{"rev-list", "--count", "HEAD"}, lastCommand.Arguments)
}

func TestRemoteOperationsCarryBoundedTimeouts(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	service := newRepositoryService(testInstance, executor)

	require.NoError(testInstance, service.Fetch(context.Background(), testRepositoryPathConstant, testRepositoryBranchConstant))
	require.NoError(testInstance, service.Push(context.Background(), testRepositoryPathConstant, testRepositoryBranchConstant))

	require.Len(testInstance, executor.recordedCommands, 2)
	require.Equal(testInstance, []string{"fetch", "--prune", "origin", testRepositoryBranchConstant}, executor.recordedCommands[0].Arguments)
	require.Equal(testInstance, []string{"push", "-u", "origin", testRepositoryBranchConstant}, executor.recordedCommands[1].Arguments)
	for _, recordedCommand := range executor.recordedCommands {
		require.Positive(testInstance, recordedCommand.Timeout)
	}
}

func TestRebaseTargetsRemoteBranch(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	service := newRepositoryService(testInstance, executor)

	require.NoError(testInstance, service.Rebase(context.Background(), testRepositoryPathConstant, testRepositoryBranchConstant))
	require.NoError(testInstance, service.AbortRebase(context.Background(), testRepositoryPathConstant))

	require.Equal(testInstance, []string{"rebase", "origin/main"}, executor.recordedCommands[0].Arguments)
	require.Equal(testInstance, []string{"rebase", "--abort"}, executor.recordedCommands[1].Arguments)
}
