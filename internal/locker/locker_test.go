package locker_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"houndarr/internal/locker"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	lock := locker.New(dir, "tv", time.Hour)

	ok, err := lock.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire failed: %v", err)
	}
	if !ok {
		t.Fatal("expected to acquire free lock")
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	// Released lock can be taken again.
	ok, err = lock.TryAcquire()
	if err != nil {
		t.Fatalf("reacquire failed: %v", err)
	}
	if !ok {
		t.Fatal("expected to reacquire released lock")
	}
	_ = lock.Release()
}

func TestConcurrentHolderIsSkipped(t *testing.T) {
	dir := t.TempDir()
	first := locker.New(dir, "tv", time.Hour)
	second := locker.New(dir, "tv", time.Hour)

	ok, err := first.TryAcquire()
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}
	defer first.Release()

	ok, err = second.TryAcquire()
	if err != nil {
		t.Fatalf("second TryAcquire errored: %v", err)
	}
	if ok {
		t.Fatal("second acquire should be skipped while the first holds the lock")
	}
}

func TestStaleLockIsBroken(t *testing.T) {
	dir := t.TempDir()
	first := locker.New(dir, "tv", 100*time.Millisecond)

	ok, err := first.TryAcquire()
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}

	// Backdate the heartbeat so the holder looks crashed.
	heartbeat := filepath.Join(dir, "tv.heartbeat")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(heartbeat, past, past); err != nil {
		t.Fatalf("backdate heartbeat: %v", err)
	}

	second := locker.New(dir, "tv", 100*time.Millisecond)
	ok, err = second.TryAcquire()
	if err != nil {
		t.Fatalf("stale acquire errored: %v", err)
	}
	if !ok {
		t.Fatal("expected to break the stale lock and acquire")
	}
	_ = second.Release()
}

func TestFreshLockIsNotBroken(t *testing.T) {
	dir := t.TempDir()
	first := locker.New(dir, "tv", time.Hour)

	ok, err := first.TryAcquire()
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}
	defer first.Release()

	// Heartbeat was just written by TryAcquire; the lock is healthy.
	second := locker.New(dir, "tv", time.Hour)
	ok, err = second.TryAcquire()
	if err != nil {
		t.Fatalf("second TryAcquire errored: %v", err)
	}
	if ok {
		t.Fatal("healthy lock must not be broken")
	}
}

func TestHeartbeatUpdatesFile(t *testing.T) {
	dir := t.TempDir()
	lock := locker.New(dir, "tv", time.Hour)

	ok, err := lock.TryAcquire()
	if err != nil || !ok {
		t.Fatalf("acquire failed: ok=%v err=%v", ok, err)
	}
	defer lock.Release()

	heartbeat := filepath.Join(dir, "tv.heartbeat")
	past := time.Now().Add(-time.Minute)
	if err := os.Chtimes(heartbeat, past, past); err != nil {
		t.Fatalf("backdate heartbeat: %v", err)
	}
	if err := lock.Heartbeat(); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
	info, err := os.Stat(heartbeat)
	if err != nil {
		t.Fatalf("stat heartbeat: %v", err)
	}
	if time.Since(info.ModTime()) > 10*time.Second {
		t.Fatalf("heartbeat not refreshed, mtime %s", info.ModTime())
	}
}
