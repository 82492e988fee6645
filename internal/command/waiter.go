package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"houndarr/internal/arr"
	"houndarr/internal/logging"
)

// Status is the terminal outcome of waiting on a remote command.
type Status string

const (
	Success  Status = "success"
	Failed   Status = "failed"
	TimedOut Status = "timed_out"
)

// Handle identifies one in-flight remote command.
type Handle struct {
	ID           string
	CommandID    int64
	Instance     string
	SubmittedAt  time.Time
	PollInterval time.Duration
	MaxAttempts  int
}

// NewHandle builds a handle for a freshly submitted command.
func NewHandle(instance string, commandID int64, pollInterval time.Duration, maxAttempts int) Handle {
	return Handle{
		ID:           uuid.NewString(),
		CommandID:    commandID,
		Instance:     instance,
		SubmittedAt:  time.Now(),
		PollInterval: pollInterval,
		MaxAttempts:  maxAttempts,
	}
}

// Poller is the minimal client surface the waiter needs.
type Poller interface {
	PollCommand(ctx context.Context, commandID int64) (arr.CommandStatus, error)
}

// Waiter polls command status at a fixed delay up to a bounded attempt count.
type Waiter struct {
	poller Poller
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewWaiter constructs a waiter around the given poller.
func NewWaiter(poller Poller, logger *slog.Logger) *Waiter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Waiter{
		poller: poller,
		logger: logging.NewComponentLogger(logger, "command-waiter"),
		sleep:  sleepContext,
	}
}

// SetSleep overrides the waiter's delay function. Intended for tests.
func (w *Waiter) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	if sleep != nil {
		w.sleep = sleep
	}
}

// Wait blocks until the command resolves or the handle's attempt budget is
// spent. It never returns an error: poll failures consume attempts and a
// command that outlives the budget is reported as TimedOut.
func (w *Waiter) Wait(ctx context.Context, handle Handle) Status {
	logger := w.logger.With(
		logging.String(logging.FieldInstance, handle.Instance),
		logging.Int64("command_id", handle.CommandID),
	)

	attempts := handle.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := handle.PollInterval
	if delay <= 0 {
		delay = time.Second
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := w.sleep(ctx, delay); err != nil {
			logger.Warn("command wait canceled", logging.Error(err))
			return TimedOut
		}

		status, err := w.poller.PollCommand(ctx, handle.CommandID)
		if err != nil {
			logger.Debug("command poll failed",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
			continue
		}

		switch status {
		case arr.CommandCompleted:
			logger.Debug("command completed",
				logging.Int("attempt", attempt),
				logging.Duration("elapsed", time.Since(handle.SubmittedAt)),
			)
			return Success
		case arr.CommandFailed, arr.CommandAborted:
			logger.Warn("command failed remotely", logging.String("status", string(status)))
			return Failed
		}
	}

	logger.Warn("command did not finish within poll budget; treating as best effort",
		logging.Int("attempts", attempts),
		logging.Duration("poll_interval", delay),
	)
	return TimedOut
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
