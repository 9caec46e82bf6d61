package daemon_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitsyncd/gitsyncd/internal/daemon"
)

func TestStopWithoutPIDFileIsBenignNoOp(testInstance *testing.T) {
	pidFilePath := filepath.Join(testInstance.TempDir(), testPIDFileNameConstant)

	stopped, stopError := daemon.Stop(pidFilePath)
	require.NoError(testInstance, stopError)
	require.False(testInstance, stopped)
}

func TestStopRemovesStalePIDFile(testInstance *testing.T) {
	pidFilePath := filepath.Join(testInstance.TempDir(), testPIDFileNameConstant)
	require.NoError(testInstance, daemon.WritePIDFile(pidFilePath, testImplausiblePIDConstant))

	stopped, stopError := daemon.Stop(pidFilePath)
	require.NoError(testInstance, stopError)
	require.False(testInstance, stopped)
	require.NoFileExists(testInstance, pidFilePath)
}
