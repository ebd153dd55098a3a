package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's considered stale.
	StaleLockThreshold = 10 * time.Minute

	lockPollInterval = 100 * time.Millisecond
)

// ErrLockExists is returned when another run holds the lock for an asset.
var ErrLockExists = errors.New("asset lock exists: another run is fetching into this directory")

// Lock serializes fetches of one asset into one directory.
type Lock struct {
	path string
	file *os.File
}

// lockPath returns the lock file guarding asset inside dir.
func lockPath(dir, asset string) string {
	return filepath.Join(dir, "."+asset+".lock")
}

// TryLock attempts to acquire the lock for asset in dir once.
// Uses O_CREATE|O_EXCL for atomic lock creation; a stale lock is replaced.
// A lock is stale when its recorded owner is no longer running, or when it
// carries no readable owner and is older than StaleLockThreshold.
func TryLock(dir, asset string) (*Lock, error) {
	path := lockPath(dir, asset)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if isStale, _ := isLockStale(path); !isStale {
			return nil, ErrLockExists
		}
		// Remove stale lock and retry once
		os.Remove(path)
		file, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
		if err != nil {
			return nil, ErrLockExists
		}
	}

	// Write lock metadata (PID and timestamp)
	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	return &Lock{path: path, file: file}, nil
}

// AcquireLock waits until the lock for asset in dir is free or ctx is done.
func AcquireLock(ctx context.Context, dir, asset string) (*Lock, error) {
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		lock, err := TryLock(dir, asset)
		if !errors.Is(err, ErrLockExists) {
			return lock, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockExists, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release releases the lock.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
		l.path = ""
	}

	return nil
}

// isLockStale reports whether the lock at path was left behind by a run that
// is gone.
func isLockStale(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	if pid, ok := lockOwner(data); ok {
		alive, err := process.PidExists(pid)
		if err == nil {
			return !alive, nil
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > StaleLockThreshold, nil
}

// lockOwner extracts the pid= line written by TryLock.
func lockOwner(data []byte) (int32, bool) {
	for _, line := range strings.Split(string(data), "\n") {
		value, found := strings.CutPrefix(strings.TrimSpace(line), "pid=")
		if !found {
			continue
		}
		pid, err := strconv.ParseInt(value, 10, 32)
		if err != nil || pid <= 0 {
			return 0, false
		}
		return int32(pid), true
	}
	return 0, false
}
