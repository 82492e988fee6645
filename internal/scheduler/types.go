package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"houndarr/internal/arr"
	"houndarr/internal/command"
	"houndarr/internal/config"
	"houndarr/internal/locker"
	"houndarr/internal/ratelimit"
)

// Phase is one state of an instance's cycle state machine.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseMissingHunt     Phase = "missing_hunt"
	PhaseUpgradeHunt     Phase = "upgrade_hunt"
	PhaseWaitForCommands Phase = "wait_for_commands"
	PhaseSleeping        Phase = "sleeping"
)

// Controls exposes the externally triggered operational toggles the
// scheduler consults at cycle-start boundaries.
type Controls interface {
	// Paused reports whether hunting is paused globally or for the instance.
	Paused(instance string) bool
	// ForceRunPending reports whether a force-run signal is waiting.
	ForceRunPending(instance string) bool
	// ConsumeForceRun takes the pending signal, returning false when none
	// was set.
	ConsumeForceRun(instance string) bool
}

// InstanceStatus is a point-in-time snapshot of one worker.
type InstanceStatus struct {
	Name    string
	App     string
	Enabled bool

	Phase       Phase
	LastRun     time.Time
	LastCycleID string
	LastError   string

	// Unconfigured marks an instance quarantined after a credential
	// failure; it stays skipped until configuration changes.
	Unconfigured bool

	RateUsed int
	RateCap  int

	LastMissingSearched int
	LastUpgradeSearched int
}

// worker owns all per-instance mutable cycle state. Nothing here is shared
// across instances.
type worker struct {
	cfg     config.Instance
	client  arr.Client
	limiter *ratelimit.Window
	lock    *locker.Lock
	waiter  *command.Waiter
	logger  *slog.Logger

	mu           sync.Mutex
	phase        Phase
	lastRun      time.Time
	lastCycleID  string
	lastErr      error
	unconfigured bool
	missingLast  int
	upgradeLast  int
}

func (w *worker) setPhase(phase Phase) {
	w.mu.Lock()
	w.phase = phase
	w.mu.Unlock()
}

func (w *worker) setError(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

func (w *worker) snapshot() InstanceStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := InstanceStatus{
		Name:                w.cfg.Name,
		App:                 w.cfg.App,
		Enabled:             w.cfg.Enabled,
		Phase:               w.phase,
		LastRun:             w.lastRun,
		LastCycleID:         w.lastCycleID,
		Unconfigured:        w.unconfigured,
		LastMissingSearched: w.missingLast,
		LastUpgradeSearched: w.upgradeLast,
	}
	if w.lastErr != nil {
		status.LastError = w.lastErr.Error()
	}
	if w.limiter != nil {
		status.RateUsed, status.RateCap = w.limiter.Usage()
	}
	return status
}
