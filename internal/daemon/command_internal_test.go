package daemon

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testStartupPIDFileNameConstant = "gitsyncd.pid"
	testStartupLogFilePathConstant = "/tmp/gitsyncd.log"
	testStartupChildPIDConstant    = 4242
	testStalePIDValueConstant      = 1111
)

func TestAwaitDaemonStartupSucceedsOncePIDFileRecordsChild(testInstance *testing.T) {
	pidFilePath := filepath.Join(testInstance.TempDir(), testStartupPIDFileNameConstant)
	require.NoError(testInstance, WritePIDFile(pidFilePath, testStartupChildPIDConstant))

	childExit := make(chan error, 1)
	startupError := awaitDaemonStartup(pidFilePath, testStartupLogFilePathConstant, testStartupChildPIDConstant, childExit)
	require.NoError(testInstance, startupError)
}

func TestAwaitDaemonStartupReportsChildExitBeforePIDFile(testInstance *testing.T) {
	pidFilePath := filepath.Join(testInstance.TempDir(), testStartupPIDFileNameConstant)

	childExit := make(chan error, 1)
	childExit <- errors.New("exit status 1")

	startupError := awaitDaemonStartup(pidFilePath, testStartupLogFilePathConstant, testStartupChildPIDConstant, childExit)
	require.ErrorContains(testInstance, startupError, "exited during startup")
	require.ErrorContains(testInstance, startupError, testStartupLogFilePathConstant)
}

func TestAwaitDaemonStartupIgnoresStalePIDFileFromEarlierDaemon(testInstance *testing.T) {
	pidFilePath := filepath.Join(testInstance.TempDir(), testStartupPIDFileNameConstant)
	require.NoError(testInstance, WritePIDFile(pidFilePath, testStalePIDValueConstant))

	childExit := make(chan error, 1)
	childExit <- errors.New("exit status 1")

	startupError := awaitDaemonStartup(pidFilePath, testStartupLogFilePathConstant, testStartupChildPIDConstant, childExit)
	require.ErrorContains(testInstance, startupError, "exited during startup")
}
