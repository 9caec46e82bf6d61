package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
)

const (
	pidFileNameConstant                = "gitsyncd.pid"
	logFileNameConstant                = "gitsyncd.log"
	pidFilePermissionsConstant         = 0o644
	pidDirectoryPermissionsConstant    = 0o755
	pidFileWriteErrorTemplateConstant  = "unable to write pidfile %s: %w"
	pidFileParseErrorTemplateConstant  = "unable to parse pid recorded in %s: %w"
	pidFileRemoveErrorTemplateConstant = "unable to remove pidfile %s: %w"
)

// DefaultPIDFilePath returns the well-known pidfile location.
func DefaultPIDFilePath() (string, error) {
	stateDirectory, stateDirectoryError := configstore.DefaultStateDirectory()
	if stateDirectoryError != nil {
		return "", stateDirectoryError
	}
	return filepath.Join(stateDirectory, pidFileNameConstant), nil
}

// DefaultLogFilePath returns the well-known daemon log location.
func DefaultLogFilePath() (string, error) {
	stateDirectory, stateDirectoryError := configstore.DefaultStateDirectory()
	if stateDirectoryError != nil {
		return "", stateDirectoryError
	}
	return filepath.Join(stateDirectory, logFileNameConstant), nil
}

// WritePIDFile records the process identity, creating the parent directory
// when absent.
func WritePIDFile(pidFilePath string, processID int) error {
	if directoryError := os.MkdirAll(filepath.Dir(pidFilePath), pidDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(pidFileWriteErrorTemplateConstant, pidFilePath, directoryError)
	}

	pidContents := strconv.Itoa(processID) + "\n"
	if writeError := os.WriteFile(pidFilePath, []byte(pidContents), pidFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(pidFileWriteErrorTemplateConstant, pidFilePath, writeError)
	}
	return nil
}

// ReadPIDFile returns the recorded process identity. An absent pidfile means
// no daemon is running, reported as found=false without error.
func ReadPIDFile(pidFilePath string) (int, bool, error) {
	pidContents, readError := os.ReadFile(pidFilePath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return 0, false, nil
		}
		return 0, false, readError
	}

	recordedPID, parseError := strconv.Atoi(strings.TrimSpace(string(pidContents)))
	if parseError != nil {
		return 0, false, fmt.Errorf(pidFileParseErrorTemplateConstant, pidFilePath, parseError)
	}
	return recordedPID, true, nil
}

// RemovePIDFile deletes the pidfile. A missing file is not an error.
func RemovePIDFile(pidFilePath string) error {
	if removeError := os.Remove(pidFilePath); removeError != nil && !os.IsNotExist(removeError) {
		return fmt.Errorf(pidFileRemoveErrorTemplateConstant, pidFilePath, removeError)
	}
	return nil
}

// ProcessAlive reports whether a process with the identity exists.
func ProcessAlive(processID int) bool {
	if processID <= 0 {
		return false
	}
	process, findError := os.FindProcess(processID)
	if findError != nil {
		return false
	}
	signalError := process.Signal(syscall.Signal(0))
	return signalError == nil
}
