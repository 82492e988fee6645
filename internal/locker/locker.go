package locker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Lock guards one instance's hunt cycle. TryAcquire is non-blocking: a
// concurrent trigger while the lock is held is skipped, not queued. A lock
// whose heartbeat has not been touched within staleAfter is considered
// abandoned and broken before retrying.
type Lock struct {
	name          string
	lockPath      string
	heartbeatPath string
	staleAfter    time.Duration
	fl            *flock.Flock
}

// New builds a lock for the named instance under dir.
func New(dir, name string, staleAfter time.Duration) *Lock {
	lockPath := filepath.Join(dir, name+".lock")
	return &Lock{
		name:          name,
		lockPath:      lockPath,
		heartbeatPath: filepath.Join(dir, name+".heartbeat"),
		staleAfter:    staleAfter,
		fl:            flock.New(lockPath),
	}
}

// TryAcquire attempts to take the lock without blocking. When the lock is
// held but stale, it is broken and one more attempt is made.
func (l *Lock) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.lockPath), 0o755); err != nil {
		return false, fmt.Errorf("ensure lock directory: %w", err)
	}

	ok, err := l.fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.lockPath, err)
	}
	if ok {
		return true, l.Heartbeat()
	}

	stale, err := l.stale()
	if err != nil || !stale {
		return false, err
	}

	// The previous holder stopped heartbeating long ago; break its lock.
	if err := l.fl.Close(); err != nil {
		return false, fmt.Errorf("close stale lock handle: %w", err)
	}
	if err := os.Remove(l.lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("break stale lock %s: %w", l.lockPath, err)
	}
	l.fl = flock.New(l.lockPath)

	ok, err = l.fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("reacquire lock %s: %w", l.lockPath, err)
	}
	if ok {
		return true, l.Heartbeat()
	}
	return false, nil
}

// Release drops the lock. The heartbeat file is left behind; its age only
// matters while the lock is held.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.lockPath, err)
	}
	return nil
}

// Heartbeat touches the heartbeat file to prove the holder is alive.
func (l *Lock) Heartbeat() error {
	now := time.Now()
	if err := os.WriteFile(l.heartbeatPath, []byte(now.UTC().Format(time.RFC3339)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write heartbeat %s: %w", l.heartbeatPath, err)
	}
	return nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.lockPath
}

func (l *Lock) stale() (bool, error) {
	if l.staleAfter <= 0 {
		return false, nil
	}
	info, err := os.Stat(l.heartbeatPath)
	if errors.Is(err, fs.ErrNotExist) {
		// Held lock without any heartbeat: treat as stale so a crash
		// between lock creation and first heartbeat cannot wedge the
		// instance forever.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat heartbeat %s: %w", l.heartbeatPath, err)
	}
	return time.Since(info.ModTime()) > l.staleAfter, nil
}
