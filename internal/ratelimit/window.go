package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDeferred signals that the call does not fit the current window and
// should be retried on the next scheduled cycle. It is control flow, not a
// failure.
var ErrDeferred = errors.New("rate limit reached, call deferred")

const (
	// windowSpan is the trailing period the cap applies to.
	windowSpan = time.Hour

	// maxSlotWait bounds how long Reserve blocks for a slot before
	// deferring instead of busy-waiting toward the window edge.
	maxSlotWait = 10 * time.Second
)

// Window tracks timestamps of metered calls for one instance and admits a
// new call only while fewer than cap calls happened in the trailing hour.
// A cap of zero admits nothing.
type Window struct {
	mu    sync.Mutex
	cap   int
	calls []time.Time
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWindow builds a rolling window with the given hourly cap.
func NewWindow(cap int) *Window {
	return &Window{
		cap:   cap,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Reserve records one call if it fits the window. When the window is full
// it waits up to a short bound for the oldest call to age out, then returns
// ErrDeferred. A zero cap always defers.
func (w *Window) Reserve(ctx context.Context) error {
	for {
		ok, wait := w.tryReserve()
		if ok {
			return nil
		}
		if wait <= 0 || wait > maxSlotWait {
			return ErrDeferred
		}
		if err := w.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// TryReserve records one call if it fits, otherwise reports how long until
// the oldest counted call leaves the window. A zero cap reports no wait.
func (w *Window) TryReserve() (bool, time.Duration) {
	return w.tryReserve()
}

func (w *Window) tryReserve() (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	if w.cap <= 0 {
		return false, 0
	}
	if len(w.calls) < w.cap {
		w.calls = append(w.calls, now)
		return true, 0
	}
	return false, w.calls[0].Add(windowSpan).Sub(now)
}

// SetClock overrides the time source. Intended for tests.
func (w *Window) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if now != nil {
		w.now = now
	}
}

// Usage returns the count of calls inside the window and the cap.
func (w *Window) Usage() (used, cap int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return len(w.calls), w.cap
}

func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-windowSpan)
	kept := w.calls[:0]
	for _, ts := range w.calls {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.calls = kept
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
