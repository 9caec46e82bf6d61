package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
)

const (
	gitInitSubcommandNameConstant     = "init"
	gitStatusSubcommandNameConstant   = "status"
	gitAddSubcommandNameConstant      = "add"
	gitCommitSubcommandNameConstant   = "commit"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitFetchSubcommandNameConstant    = "fetch"
	gitRebaseSubcommandNameConstant   = "rebase"
	gitPushSubcommandNameConstant     = "push"
	gitRemoteSubcommandNameConstant   = "remote"
	gitRebaseAbortFlagConstant        = "--abort"
)

const (
	gitInitStartTemplateConstant              = "Initializing repository in %s"
	gitInitSuccessTemplateConstant            = "Initialized repository in %s"
	gitInitFailureTemplateConstant            = "Failed to initialize repository in %s (exit code %d%s)"
	gitInitExecutionFailureTemplateConstant   = "Unable to initialize repository in %s: %s"
	gitStatusStartTemplateConstant            = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant          = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant          = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant = "Unable to review working tree status in %s: %s"
	gitAddStartTemplateConstant               = "Staging changes in %s"
	gitAddSuccessTemplateConstant             = "Staged changes in %s"
	gitAddFailureTemplateConstant             = "Failed to stage changes in %s (exit code %d%s)"
	gitAddExecutionFailureTemplateConstant    = "Unable to stage changes in %s: %s"
	gitCommitStartTemplateConstant            = "Creating commit in %s"
	gitCommitSuccessTemplateConstant          = "Created commit in %s"
	gitCommitFailureTemplateConstant          = "Failed to create commit in %s (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant = "Unable to create commit in %s: %s"
	gitCheckoutStartTemplateConstant          = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant        = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant        = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureConstant       = "Unable to switch %s to branch %s: %s"
	gitFetchStartTemplateConstant             = "Fetching remote state in %s"
	gitFetchSuccessTemplateConstant           = "Fetched remote state in %s"
	gitFetchFailureTemplateConstant           = "Failed to fetch remote state in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant  = "Unable to fetch remote state in %s: %s"
	gitRebaseStartTemplateConstant            = "Rebasing local commits in %s"
	gitRebaseSuccessTemplateConstant          = "Rebased local commits in %s"
	gitRebaseFailureTemplateConstant          = "Failed to rebase local commits in %s (exit code %d%s)"
	gitRebaseExecutionFailureTemplateConstant = "Unable to rebase local commits in %s: %s"
	gitRebaseAbortStartTemplateConstant       = "Aborting in-progress rebase in %s"
	gitRebaseAbortSuccessTemplateConstant     = "Aborted in-progress rebase in %s"
	gitPushStartTemplateConstant              = "Pushing local commits from %s"
	gitPushSuccessTemplateConstant            = "Pushed local commits from %s"
	gitPushFailureTemplateConstant            = "Failed to push local commits from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant   = "Unable to push local commits from %s: %s"
	gitRemoteStartTemplateConstant            = "Inspecting remotes in %s"
	gitRemoteSuccessTemplateConstant          = "Inspected remotes in %s"
	gitRemoteFailureTemplateConstant          = "Failed to inspect remotes in %s (exit code %d%s)"
	gitRemoteExecutionFailureTemplateConstant = "Unable to inspect remotes in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch subcommand {
	case gitInitSubcommandNameConstant:
		return formatter.describeSimpleOperation(command, result, failure, stage, workingDirectory,
			gitInitStartTemplateConstant, gitInitSuccessTemplateConstant, gitInitFailureTemplateConstant, gitInitExecutionFailureTemplateConstant)
	case gitStatusSubcommandNameConstant:
		return formatter.describeSimpleOperation(command, result, failure, stage, workingDirectory,
			gitStatusStartTemplateConstant, gitStatusSuccessTemplateConstant, gitStatusFailureTemplateConstant, gitStatusExecutionFailureTemplateConstant)
	case gitAddSubcommandNameConstant:
		return formatter.describeSimpleOperation(command, result, failure, stage, workingDirectory,
			gitAddStartTemplateConstant, gitAddSuccessTemplateConstant, gitAddFailureTemplateConstant, gitAddExecutionFailureTemplateConstant)
	case gitCommitSubcommandNameConstant:
		return formatter.describeSimpleOperation(command, result, failure, stage, workingDirectory,
			gitCommitStartTemplateConstant, gitCommitSuccessTemplateConstant, gitCommitFailureTemplateConstant, gitCommitExecutionFailureTemplateConstant)
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeCheckoutMessage(command, result, failure, stage, workingDirectory)
	case gitFetchSubcommandNameConstant:
		return formatter.describeSimpleOperation(command, result, failure, stage, workingDirectory,
			gitFetchStartTemplateConstant, gitFetchSuccessTemplateConstant, gitFetchFailureTemplateConstant, gitFetchExecutionFailureTemplateConstant)
	case gitRebaseSubcommandNameConstant:
		return formatter.describeRebaseMessage(command, result, failure, stage, workingDirectory)
	case gitPushSubcommandNameConstant:
		return formatter.describeSimpleOperation(command, result, failure, stage, workingDirectory,
			gitPushStartTemplateConstant, gitPushSuccessTemplateConstant, gitPushFailureTemplateConstant, gitPushExecutionFailureTemplateConstant)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeSimpleOperation(command, result, failure, stage, workingDirectory,
			gitRemoteStartTemplateConstant, gitRemoteSuccessTemplateConstant, gitRemoteFailureTemplateConstant, gitRemoteExecutionFailureTemplateConstant)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeSimpleOperation(command ShellCommand, result ExecutionResult, failure error, stage messageStage, workingDirectory string, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, workingDirectory string) string {
	branchName := formatter.lastArgument(command.Details.Arguments)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCheckoutStartTemplateConstant, workingDirectory, branchName)
	case messageStageSuccess:
		return fmt.Sprintf(gitCheckoutSuccessTemplateConstant, workingDirectory, branchName)
	case messageStageFailure:
		return fmt.Sprintf(gitCheckoutFailureTemplateConstant, workingDirectory, branchName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCheckoutExecutionFailureConstant, workingDirectory, branchName, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeRebaseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, workingDirectory string) string {
	if containsArgument(command.Details.Arguments, gitRebaseAbortFlagConstant) {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitRebaseAbortStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitRebaseAbortSuccessTemplateConstant, workingDirectory)
		}
	}

	return formatter.describeSimpleOperation(command, result, failure, stage, workingDirectory,
		gitRebaseStartTemplateConstant, gitRebaseSuccessTemplateConstant, gitRebaseFailureTemplateConstant, gitRebaseExecutionFailureTemplateConstant)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, emptyStringConstant)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory))
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) lastArgument(arguments []string) string {
	for argumentIndex := len(arguments) - 1; argumentIndex >= 0; argumentIndex-- {
		trimmedArgument := strings.TrimSpace(arguments[argumentIndex])
		if len(trimmedArgument) > 0 && !strings.HasPrefix(trimmedArgument, "-") {
			return trimmedArgument
		}
	}
	return emptyStringConstant
}

func containsArgument(arguments []string, wanted string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == wanted {
			return true
		}
	}
	return false
}
