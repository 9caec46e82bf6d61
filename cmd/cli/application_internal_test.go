package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	addSubcommandNameConstant    = "add"
	removeSubcommandNameConstant = "remove"
	listSubcommandNameConstant   = "list"
	syncSubcommandNameConstant   = "sync"
	runSubcommandNameConstant    = "run"
	stopSubcommandNameConstant   = "stop"
)

func TestNewApplicationRegistersSubcommands(testInstance *testing.T) {
	application := NewApplication()
	require.NotNil(testInstance, application.rootCommand)

	registeredNames := map[string]bool{}
	for _, subcommand := range application.rootCommand.Commands() {
		registeredNames[subcommand.Name()] = true
	}

	expectedNames := []string{
		addSubcommandNameConstant,
		removeSubcommandNameConstant,
		listSubcommandNameConstant,
		syncSubcommandNameConstant,
		runSubcommandNameConstant,
		stopSubcommandNameConstant,
	}
	for _, expectedName := range expectedNames {
		require.True(testInstance, registeredNames[expectedName], expectedName)
	}
}

func TestHumanReadableLoggingFollowsLogFormat(testInstance *testing.T) {
	application := NewApplication()

	application.configuration.Common.LogFormat = "console"
	require.True(testInstance, application.humanReadableLoggingEnabled())

	application.configuration.Common.LogFormat = "structured"
	require.False(testInstance, application.humanReadableLoggingEnabled())
}
