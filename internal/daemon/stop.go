package daemon

import (
	"fmt"
	"os"
	"strings"
	"syscall"
)

const (
	stopSignalErrorTemplateConstant = "unable to signal process %d: %w"
)

// Stop requests graceful termination of the recorded background instance. It
// reports whether a live instance was signalled. An absent pidfile or a dead
// recorded process is a benign no-op; a stale pidfile is removed.
func Stop(pidFilePath string) (bool, error) {
	resolvedPath := strings.TrimSpace(pidFilePath)
	if len(resolvedPath) == 0 {
		defaultPath, defaultPathError := DefaultPIDFilePath()
		if defaultPathError != nil {
			return false, defaultPathError
		}
		resolvedPath = defaultPath
	}

	recordedPID, pidFileFound, readError := ReadPIDFile(resolvedPath)
	if readError != nil {
		return false, readError
	}
	if !pidFileFound {
		return false, nil
	}

	if !ProcessAlive(recordedPID) {
		if removeError := RemovePIDFile(resolvedPath); removeError != nil {
			return false, removeError
		}
		return false, nil
	}

	process, findError := os.FindProcess(recordedPID)
	if findError != nil {
		return false, fmt.Errorf(stopSignalErrorTemplateConstant, recordedPID, findError)
	}
	if signalError := process.Signal(syscall.SIGTERM); signalError != nil {
		return false, fmt.Errorf(stopSignalErrorTemplateConstant, recordedPID, signalError)
	}
	return true, nil
}
