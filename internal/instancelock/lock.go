// Package instancelock guarantees at most one live gitsyncd process runs
// cycles at a time. The lock is a kernel advisory file lock, so a holder that
// dies without releasing leaves a stale file any new instance reclaims.
package instancelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
)

const (
	lockFileNameConstant                 = "gitsyncd.lock"
	lockDirectoryPermissionsConstant     = 0o755
	alreadyRunningMessageConstant        = "another gitsyncd instance is already running"
	lockDirectoryErrorTemplateConstant   = "unable to prepare lock directory for %s: %w"
	lockAcquisitionErrorTemplateConstant = "unable to acquire instance lock %s: %w"
)

// ErrAlreadyRunning indicates a live instance holds the lock.
var ErrAlreadyRunning = errors.New(alreadyRunningMessageConstant)

// Lock represents an exclusively held instance lock.
type Lock struct {
	fileLock *flock.Flock
}

// DefaultLockFilePath returns the well-known instance lock location.
func DefaultLockFilePath() (string, error) {
	stateDirectory, stateDirectoryError := configstore.DefaultStateDirectory()
	if stateDirectoryError != nil {
		return "", stateDirectoryError
	}
	return filepath.Join(stateDirectory, lockFileNameConstant), nil
}

// Acquire takes the instance lock exclusively and atomically. A lock held by
// a live process fails with ErrAlreadyRunning; a lock left by a dead process
// is reclaimed transparently by the kernel.
func Acquire(lockFilePath string) (*Lock, error) {
	resolvedPath := strings.TrimSpace(lockFilePath)
	if len(resolvedPath) == 0 {
		defaultPath, defaultPathError := DefaultLockFilePath()
		if defaultPathError != nil {
			return nil, defaultPathError
		}
		resolvedPath = defaultPath
	}

	if directoryError := os.MkdirAll(filepath.Dir(resolvedPath), lockDirectoryPermissionsConstant); directoryError != nil {
		return nil, fmt.Errorf(lockDirectoryErrorTemplateConstant, resolvedPath, directoryError)
	}

	fileLock := flock.New(resolvedPath)
	lockAcquired, lockError := fileLock.TryLock()
	if lockError != nil {
		return nil, fmt.Errorf(lockAcquisitionErrorTemplateConstant, resolvedPath, lockError)
	}
	if !lockAcquired {
		return nil, ErrAlreadyRunning
	}

	return &Lock{fileLock: fileLock}, nil
}

// Path returns the lock file location.
func (lock *Lock) Path() string {
	return lock.fileLock.Path()
}

// Release frees the instance lock. Releasing an already released lock is a no-op.
func (lock *Lock) Release() error {
	if lock == nil || lock.fileLock == nil {
		return nil
	}
	return lock.fileLock.Unlock()
}
