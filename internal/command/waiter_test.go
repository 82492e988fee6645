package command_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"houndarr/internal/arr"
	"houndarr/internal/command"
)

type scriptedPoller struct {
	statuses []arr.CommandStatus
	errs     []error
	calls    int
}

func (p *scriptedPoller) PollCommand(ctx context.Context, commandID int64) (arr.CommandStatus, error) {
	idx := p.calls
	p.calls++
	if idx >= len(p.statuses) {
		idx = len(p.statuses) - 1
	}
	var err error
	if idx < len(p.errs) {
		err = p.errs[idx]
	}
	return p.statuses[idx], err
}

func instantSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func newHandle(attempts int) command.Handle {
	handle := command.NewHandle("tv", 42, time.Millisecond, attempts)
	return handle
}

func TestWaitSucceedsWhenCommandCompletes(t *testing.T) {
	poller := &scriptedPoller{
		statuses: []arr.CommandStatus{arr.CommandQueued, arr.CommandStarted, arr.CommandCompleted},
	}
	waiter := command.NewWaiter(poller, nil)
	waiter.SetSleep(instantSleep)

	status := waiter.Wait(context.Background(), newHandle(5))
	if status != command.Success {
		t.Fatalf("expected Success, got %s", status)
	}
	if poller.calls != 3 {
		t.Fatalf("expected 3 polls, got %d", poller.calls)
	}
}

func TestWaitReportsRemoteFailure(t *testing.T) {
	poller := &scriptedPoller{
		statuses: []arr.CommandStatus{arr.CommandStarted, arr.CommandFailed},
	}
	waiter := command.NewWaiter(poller, nil)
	waiter.SetSleep(instantSleep)

	if status := waiter.Wait(context.Background(), newHandle(5)); status != command.Failed {
		t.Fatalf("expected Failed, got %s", status)
	}
}

func TestWaitTimesOutAfterAttemptBudget(t *testing.T) {
	poller := &scriptedPoller{
		statuses: []arr.CommandStatus{arr.CommandStarted},
	}
	waiter := command.NewWaiter(poller, nil)
	waiter.SetSleep(instantSleep)

	if status := waiter.Wait(context.Background(), newHandle(4)); status != command.TimedOut {
		t.Fatalf("expected TimedOut, got %s", status)
	}
	if poller.calls != 4 {
		t.Fatalf("expected 4 polls, got %d", poller.calls)
	}
}

func TestWaitPollErrorsConsumeAttempts(t *testing.T) {
	pollErr := errors.New("transient")
	poller := &scriptedPoller{
		statuses: []arr.CommandStatus{"", "", arr.CommandCompleted},
		errs:     []error{pollErr, pollErr, nil},
	}
	waiter := command.NewWaiter(poller, nil)
	waiter.SetSleep(instantSleep)

	if status := waiter.Wait(context.Background(), newHandle(3)); status != command.Success {
		t.Fatalf("expected Success after transient errors, got %s", status)
	}
	if poller.calls != 3 {
		t.Fatalf("expected 3 polls, got %d", poller.calls)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	poller := &scriptedPoller{statuses: []arr.CommandStatus{arr.CommandStarted}}
	waiter := command.NewWaiter(poller, nil)
	waiter.SetSleep(instantSleep)

	if status := waiter.Wait(ctx, newHandle(5)); status != command.TimedOut {
		t.Fatalf("expected TimedOut on canceled context, got %s", status)
	}
	if poller.calls != 0 {
		t.Fatalf("expected no polls after cancellation, got %d", poller.calls)
	}
}
