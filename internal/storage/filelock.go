package storage

import (
	"fmt"
	"os"
	"syscall"
)

// lockPath returns the sidecar lock file guarding the task file at path.
func lockPath(path string) string {
	return path + ".lock"
}

// acquireLock takes an exclusive advisory lock on the sidecar of path,
// blocking until any other doer process holding it lets go. The returned
// func releases the lock.
func acquireLock(path string) (release func() error, err error) {
	f, err := os.OpenFile(lockPath(path), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("locking %s: %w", lockPath(path), err)
	}
	return func() error {
		defer func() { _ = f.Close() }()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
