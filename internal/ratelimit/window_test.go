package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"houndarr/internal/ratelimit"
)

func TestReserveAdmitsUpToCap(t *testing.T) {
	window := ratelimit.NewWindow(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := window.Reserve(ctx); err != nil {
			t.Fatalf("call %d should be admitted: %v", i+1, err)
		}
	}
	if err := window.Reserve(ctx); !errors.Is(err, ratelimit.ErrDeferred) {
		t.Fatalf("third call should defer, got %v", err)
	}

	used, limit := window.Usage()
	if used != 2 || limit != 2 {
		t.Fatalf("expected usage 2/2, got %d/%d", used, limit)
	}
}

func TestZeroCapAlwaysDefers(t *testing.T) {
	window := ratelimit.NewWindow(0)
	if err := window.Reserve(context.Background()); !errors.Is(err, ratelimit.ErrDeferred) {
		t.Fatalf("zero cap should defer, got %v", err)
	}
}

func TestWindowSlidesWithTime(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	window := ratelimit.NewWindow(1)
	window.SetClock(func() time.Time { return now })

	ctx := context.Background()
	if err := window.Reserve(ctx); err != nil {
		t.Fatalf("first call should be admitted: %v", err)
	}
	if err := window.Reserve(ctx); !errors.Is(err, ratelimit.ErrDeferred) {
		t.Fatalf("second call within the hour should defer, got %v", err)
	}

	now = now.Add(61 * time.Minute)
	if err := window.Reserve(ctx); err != nil {
		t.Fatalf("call after the window slid should be admitted: %v", err)
	}

	used, _ := window.Usage()
	if used != 1 {
		t.Fatalf("aged-out call should not count, usage %d", used)
	}
}

func TestTryReserveReportsWait(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	window := ratelimit.NewWindow(1)
	window.SetClock(func() time.Time { return now })

	if ok, _ := window.TryReserve(); !ok {
		t.Fatal("first TryReserve should succeed")
	}
	now = now.Add(10 * time.Minute)
	ok, wait := window.TryReserve()
	if ok {
		t.Fatal("second TryReserve should fail while the window is full")
	}
	if wait != 50*time.Minute {
		t.Fatalf("expected 50m until the slot frees, got %s", wait)
	}
}
