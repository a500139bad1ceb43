// Package filelock publishes flattened output files. Writers of the same
// output path are serialized through a sibling ".lock" file, and content is
// swapped in with a rename so readers never observe a half-written file.
package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DefaultRetryDelay is the polling interval used while waiting for a lock.
const DefaultRetryDelay = 50 * time.Millisecond

// OutputLock guards one output path.
type OutputLock struct {
	flock  *flock.Flock
	target string
	path   string
}

// NewOutputLock creates a lock for target. The lock file is target + ".lock".
func NewOutputLock(target string) *OutputLock {
	lockPath := target + ".lock"
	return &OutputLock{
		flock:  flock.New(lockPath),
		target: target,
		path:   lockPath,
	}
}

// Path returns the lock file path.
func (l *OutputLock) Path() string {
	return l.path
}

// Lock acquires the lock, polling until it is free or ctx is done.
func (l *OutputLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", l.path, err)
	}
	locked, err := l.flock.TryLockContext(ctx, DefaultRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.target, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s", l.target)
	}
	return nil
}

// TryLock attempts the lock without blocking.
// Returns true if the lock was acquired, false if another writer holds it.
func (l *OutputLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", l.path, err)
	}
	locked, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", l.target, err)
	}
	return locked, nil
}

// Unlock releases the lock and removes the lock file.
func (l *OutputLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.target, err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite writes data to path through a temp file in the same directory
// followed by a rename. If any step fails, an existing file at path is left
// untouched.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Same directory keeps the rename on one file system.
	tempFile, err := os.CreateTemp(dir, ".incflat-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}

// Publish locks target, writes data atomically, and releases the lock.
func Publish(ctx context.Context, target string, data []byte) (err error) {
	lock := NewOutputLock(target)
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()

	return AtomicWrite(target, data)
}
