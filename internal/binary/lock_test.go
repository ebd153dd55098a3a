package binary

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTryLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := TryLock(dir, testAsset)
	require.NoError(t, err)

	_, err = TryLock(dir, testAsset)
	require.ErrorIs(t, err, ErrLockExists)

	// A different asset in the same directory is independent
	other, err := TryLock(dir, testAsset+".exe")
	require.NoError(t, err)
	require.NoError(t, other.Release())

	require.NoError(t, lock.Release())
	require.NoFileExists(t, lockPath(dir, testAsset))

	// Release is idempotent
	require.NoError(t, lock.Release())
}

// exitedPID returns the pid of a child process that has already been reaped.
func exitedPID(t *testing.T) int {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=^$")
	require.NoError(t, cmd.Run())
	return cmd.Process.Pid
}

func writeLock(t *testing.T, path, content string, age time.Duration) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestTryLock_ExistingLock(t *testing.T) {
	tests := []struct {
		name    string
		content func(t *testing.T) string
		age     time.Duration
		wantErr bool
	}{
		{
			name:    "owner exited",
			content: func(t *testing.T) string { return fmt.Sprintf("pid=%d\ntimestamp=x\n", exitedPID(t)) },
		},
		{
			name:    "owner running",
			content: func(*testing.T) string { return fmt.Sprintf("pid=%d\n", os.Getpid()) },
			wantErr: true,
		},
		{
			name:    "owner running past threshold",
			content: func(*testing.T) string { return fmt.Sprintf("pid=%d\n", os.Getpid()) },
			age:     2 * StaleLockThreshold,
			wantErr: true,
		},
		{
			name:    "empty and fresh",
			content: func(*testing.T) string { return "" },
			wantErr: true,
		},
		{
			name:    "empty and old",
			content: func(*testing.T) string { return "" },
			age:     2 * StaleLockThreshold,
		},
		{
			name:    "garbled pid and fresh",
			content: func(*testing.T) string { return "pid=abc\n" },
			wantErr: true,
		},
		{
			name:    "garbled pid and old",
			content: func(*testing.T) string { return "pid=abc\n" },
			age:     2 * StaleLockThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeLock(t, lockPath(dir, testAsset), tt.content(t), tt.age)

			lock, err := TryLock(dir, testAsset)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrLockExists)
				return
			}
			require.NoError(t, err)
			defer lock.Release()

			data, err := os.ReadFile(lockPath(dir, testAsset))
			require.NoError(t, err)
			require.Contains(t, string(data), fmt.Sprintf("pid=%d\n", os.Getpid()))
		})
	}
}

func TestLockOwner(t *testing.T) {
	tests := []struct {
		data    string
		wantPID int32
		wantOK  bool
	}{
		{data: "pid=42\ntimestamp=2024-01-01T00:00:00Z\n", wantPID: 42, wantOK: true},
		{data: "timestamp=x\npid=7", wantPID: 7, wantOK: true},
		{data: ""},
		{data: "pid=\n"},
		{data: "pid=0\n"},
		{data: "pid=-5\n"},
		{data: "pid=99999999999\n"},
	}

	for _, tt := range tests {
		pid, ok := lockOwner([]byte(tt.data))
		require.Equal(t, tt.wantOK, ok, "lockOwner(%q)", tt.data)
		require.Equal(t, tt.wantPID, pid, "lockOwner(%q)", tt.data)
	}
}

func TestAcquireLock_WaitsForRelease(t *testing.T) {
	dir := t.TempDir()

	held, err := TryLock(dir, testAsset)
	require.NoError(t, err)

	go func() {
		time.Sleep(2 * lockPollInterval)
		held.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lock, err := AcquireLock(ctx, dir, testAsset)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquireLock_ContextDone(t *testing.T) {
	dir := t.TempDir()

	held, err := TryLock(dir, testAsset)
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 3*lockPollInterval)
	defer cancel()

	_, err = AcquireLock(ctx, dir, testAsset)
	require.ErrorIs(t, err, ErrLockExists)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
