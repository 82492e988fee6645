package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"houndarr/internal/arr"
	"houndarr/internal/command"
	"houndarr/internal/config"
	"houndarr/internal/locker"
	"houndarr/internal/logging"
	"houndarr/internal/notifications"
	"houndarr/internal/ratelimit"
	"houndarr/internal/schedule"
	"houndarr/internal/state"
)

const defaultGatePollInterval = 10 * time.Second

// Scheduler runs one hunting worker per enabled instance.
type Scheduler struct {
	cfg      *config.Config
	store    *state.Store
	rules    schedule.Set
	controls Controls
	notifier notifications.Service
	logger   *slog.Logger

	pollInterval time.Duration
	now          func() time.Time

	workers []*worker

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures optional Scheduler behavior.
type Option func(*Scheduler)

// WithPollInterval overrides how often workers re-check the cycle gate.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithClock overrides the scheduler's time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a scheduler over per-instance clients and rate limiters.
// Clients and limiters are keyed by instance name; instances without a
// client are skipped.
func New(
	cfg *config.Config,
	store *state.Store,
	clients map[string]arr.Client,
	limiters map[string]*ratelimit.Window,
	controls Controls,
	notifier notifications.Service,
	logger *slog.Logger,
	opts ...Option,
) (*Scheduler, error) {
	if cfg == nil || store == nil || controls == nil {
		return nil, errors.New("scheduler requires config, store, and controls")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.Noop()
	}

	rules, err := schedule.Parse(cfg.Schedules)
	if err != nil {
		return nil, fmt.Errorf("parse schedule rules: %w", err)
	}

	s := &Scheduler{
		cfg:          cfg,
		store:        store,
		rules:        rules,
		controls:     controls,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "scheduler"),
		pollInterval: defaultGatePollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, inst := range cfg.EnabledInstances() {
		client, ok := clients[inst.Name]
		if !ok {
			s.logger.Warn("no client for instance, skipping",
				logging.String(logging.FieldInstance, inst.Name))
			continue
		}

		sleepDuration := time.Duration(inst.SleepDuration) * time.Second
		workerLogger := logging.WithInstance(s.logger, inst.Name).With(
			logging.String(logging.FieldApp, inst.App),
		)
		s.workers = append(s.workers, &worker{
			cfg:     inst,
			client:  client,
			limiter: limiters[inst.Name],
			lock:    locker.New(cfg.StateDir, inst.Name, staleBound(sleepDuration)),
			waiter:  command.NewWaiter(client, workerLogger),
			logger:  workerLogger,
			phase:   PhaseIdle,
		})
	}

	return s, nil
}

// staleBound is the lock staleness threshold: a small multiple of the
// instance's sleep duration, so a crashed holder is recovered within a few
// missed cycles.
func staleBound(sleepDuration time.Duration) time.Duration {
	bound := 3 * sleepDuration
	if bound < 5*time.Minute {
		bound = 5 * time.Minute
	}
	return bound
}

// Start launches one worker goroutine per instance.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(len(s.workers))
	s.mu.Unlock()

	for _, w := range s.workers {
		go s.runWorker(runCtx, w)
	}
	s.logger.Info("scheduler started", logging.Int("instances", len(s.workers)))
	return nil
}

// Stop terminates all workers and waits for in-flight cycles to finish.
// In-flight cycles honor context cancellation at their blocking points.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Status returns a snapshot of every worker.
func (s *Scheduler) Status() []InstanceStatus {
	statuses := make([]InstanceStatus, 0, len(s.workers))
	for _, w := range s.workers {
		statuses = append(statuses, w.snapshot())
	}
	return statuses
}

// Instances returns the names of all scheduled instances.
func (s *Scheduler) Instances() []string {
	names := make([]string, 0, len(s.workers))
	for _, w := range s.workers {
		names = append(names, w.cfg.Name)
	}
	return names
}

func (s *Scheduler) runWorker(ctx context.Context, w *worker) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if s.shouldStartCycle(w) {
			s.runCycle(ctx, w)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.pollInterval):
		}
	}
}

// shouldStartCycle applies the cycle gate. Pause and schedule windows are
// honored even for force runs; force only bypasses the sleep-duration gate.
func (s *Scheduler) shouldStartCycle(w *worker) bool {
	w.mu.Lock()
	unconfigured := w.unconfigured
	lastRun := w.lastRun
	w.mu.Unlock()

	if unconfigured {
		return false
	}
	if s.controls.Paused(w.cfg.Name) {
		return false
	}
	now := s.now()
	if !s.rules.Allows(w.cfg.Name, now) {
		return false
	}

	sleepDuration := time.Duration(w.cfg.SleepDuration) * time.Second
	if lastRun.IsZero() || now.Sub(lastRun) >= sleepDuration {
		return true
	}
	return s.controls.ConsumeForceRun(w.cfg.Name)
}
