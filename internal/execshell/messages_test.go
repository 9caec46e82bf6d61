package execshell_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitsyncd/gitsyncd/internal/execshell"
)

const (
	testMessagesRepositoryPathConstant = "/tmp/notes"
)

func TestCommandMessageFormatterDescribesSyncVerbs(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}

	testCases := []struct {
		name            string
		arguments       []string
		expectedStart   string
		expectedSuccess string
	}{
		{
			name:            "status",
			arguments:       []string{"status", "--porcelain"},
			expectedStart:   "Reviewing working tree status in /tmp/notes",
			expectedSuccess: "Collected working tree status for /tmp/notes",
		},
		{
			name:            "checkout",
			arguments:       []string{"checkout", "-B", "main"},
			expectedStart:   "Switching /tmp/notes to branch main",
			expectedSuccess: "/tmp/notes now on branch main",
		},
		{
			name:            "fetch",
			arguments:       []string{"fetch", "--prune", "origin", "main"},
			expectedStart:   "Fetching remote state in /tmp/notes",
			expectedSuccess: "Fetched remote state in /tmp/notes",
		},
		{
			name:            "rebase_abort",
			arguments:       []string{"rebase", "--abort"},
			expectedStart:   "Aborting in-progress rebase in /tmp/notes",
			expectedSuccess: "Aborted in-progress rebase in /tmp/notes",
		},
		{
			name:            "push",
			arguments:       []string{"push", "-u", "origin", "main"},
			expectedStart:   "Pushing local commits from /tmp/notes",
			expectedSuccess: "Pushed local commits from /tmp/notes",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			command := execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: testCase.arguments, WorkingDirectory: testMessagesRepositoryPathConstant},
			}

			require.Equal(testInstance, testCase.expectedStart, formatter.BuildStartedMessage(command))
			require.Equal(testInstance, testCase.expectedSuccess, formatter.BuildSuccessMessage(command))
		})
	}
}

func TestCommandMessageFormatterIncludesStandardError(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}
	command := execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"push", "origin", "main"}, WorkingDirectory: testMessagesRepositoryPathConstant},
	}

	failureMessage := formatter.BuildFailureMessage(command, execshell.ExecutionResult{ExitCode: 128, StandardError: "remote rejected"})
	require.Equal(testInstance, "Failed to push local commits from /tmp/notes (exit code 128: remote rejected)", failureMessage)
}

func TestCommandMessageFormatterGenericFallback(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}
	command := execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"gc"}},
	}

	require.Equal(testInstance, "Running git gc", formatter.BuildStartedMessage(command))
	require.Equal(testInstance, "git gc failed: disk full", formatter.BuildExecutionFailureMessage(command, errors.New("disk full")))
}
