package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"houndarr/internal/api"
	"houndarr/internal/arr"
	"houndarr/internal/config"
	"houndarr/internal/logging"
	"houndarr/internal/notifications"
	"houndarr/internal/ratelimit"
	"houndarr/internal/scheduler"
	"houndarr/internal/state"
	"houndarr/internal/strike"
)

// Daemon coordinates the hunting scheduler and Swaparr and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	controls *Controls
	notifier notifications.Service

	stateStore  *state.Store
	strikeStore *strike.Store
	scheduler   *scheduler.Scheduler
	swaparr     *strike.Manager

	lockPath string
	lock     *flock.Flock

	apiSrv *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with all dependencies wired: per-instance API
// clients gated by their rate windows, the cycle scheduler, and the strike
// manager.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	stateStore, err := state.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	strikeStore, err := strike.Open(cfg)
	if err != nil {
		_ = stateStore.Close()
		return nil, fmt.Errorf("open strike store: %w", err)
	}

	controls := NewControls()
	notifier := notifications.NewService(cfg)

	clients := make(map[string]arr.Client)
	limiters := make(map[string]*ratelimit.Window)
	for _, inst := range cfg.EnabledInstances() {
		limiter := ratelimit.NewWindow(inst.HourlyAPICap)
		client, err := arr.NewHTTPClient(inst.Name, arr.AppKind(inst.App), inst.URL, inst.APIKey, limiter, nil)
		if err != nil {
			_ = stateStore.Close()
			_ = strikeStore.Close()
			return nil, fmt.Errorf("build client for %s: %w", inst.Name, err)
		}
		clients[inst.Name] = client
		limiters[inst.Name] = limiter
	}

	sched, err := scheduler.New(cfg, stateStore, clients, limiters, controls, notifier, logger)
	if err != nil {
		_ = stateStore.Close()
		_ = strikeStore.Close()
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	swaparrDryRun := func() bool {
		return controls.DryRun() || cfg.DryRun || cfg.Swaparr.DryRun
	}
	swaparr := strike.NewManager(cfg.Swaparr, strikeStore, clients, logger, notifier, swaparrDryRun)

	d := &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		controls:    controls,
		notifier:    notifier,
		stateStore:  stateStore,
		strikeStore: strikeStore,
		scheduler:   sched,
		swaparr:     swaparr,
		lockPath:    filepath.Join(cfg.StateDir, "houndarrd.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.controls.SetDryRun(cfg.DryRun)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		_ = d.closeStores()
		return nil, err
	}
	d.apiSrv = srv
	return d, nil
}

// Controls returns the daemon's operational control set.
func (d *Daemon) Controls() *Controls { return d.controls }

// Start acquires the daemon lock and launches background processing.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return errors.New("another houndarr daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.scheduler.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start scheduler: %w", err)
	}

	if d.cfg.Swaparr.Enabled {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.swaparr.Run(runCtx)
		}()
	}

	if d.apiSrv != nil {
		if err := d.apiSrv.start(runCtx); err != nil {
			d.logger.Warn("status API unavailable", logging.Error(err))
		}
	}

	d.running.Store(true)
	d.logger.Info("houndarr daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("instances", len(d.cfg.EnabledInstances())),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scheduler.Stop()
	d.wg.Wait()
	if d.apiSrv != nil {
		d.apiSrv.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("houndarr daemon stopped")
}

// Close releases all daemon resources.
func (d *Daemon) Close() error {
	d.Stop()
	return d.closeStores()
}

func (d *Daemon) closeStores() error {
	var firstErr error
	if d.stateStore != nil {
		if err := d.stateStore.Close(); err != nil {
			firstErr = err
		}
	}
	if d.strikeStore != nil {
		if err := d.strikeStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Status assembles the combined daemon snapshot.
func (d *Daemon) Status() api.DaemonStatus {
	instances := d.scheduler.Status()
	converted := make([]api.InstanceStatus, 0, len(instances))
	for _, status := range instances {
		converted = append(converted, api.ConvertInstanceStatus(status, d.controls.InstancePaused(status.Name)))
	}
	return api.DaemonStatus{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		GloballyPaused: d.controls.GloballyPaused(),
		DryRun:         d.controls.DryRun() || d.cfg.Swaparr.DryRun,
		SwaparrEnabled: d.cfg.Swaparr.Enabled,
		LockPath:       d.lockPath,
		StateDBPath:    d.stateStore.Path(),
		Instances:      converted,
	}
}

// Pause suspends hunting globally or, with a name, for one instance.
// New cycles stop starting; an in-flight cycle finishes undisturbed.
func (d *Daemon) Pause(instance string) error {
	if instance == "" {
		d.controls.SetGlobalPause(true)
		d.logger.Info("hunting paused globally")
		return nil
	}
	if err := d.knownInstance(instance); err != nil {
		return err
	}
	d.controls.SetInstancePause(instance, true)
	d.logger.Info("instance paused", logging.String(logging.FieldInstance, instance))
	return nil
}

// Resume lifts a global or per-instance pause.
func (d *Daemon) Resume(instance string) error {
	if instance == "" {
		d.controls.SetGlobalPause(false)
		d.logger.Info("hunting resumed globally")
		return nil
	}
	if err := d.knownInstance(instance); err != nil {
		return err
	}
	d.controls.SetInstancePause(instance, false)
	d.logger.Info("instance resumed", logging.String(logging.FieldInstance, instance))
	return nil
}

// ForceRun queues a one-shot bypass of the sleep gate for the instance.
func (d *Daemon) ForceRun(instance string) error {
	if err := d.knownInstance(instance); err != nil {
		return err
	}
	d.controls.RequestForceRun(instance)
	d.logger.Info("force run requested", logging.String(logging.FieldInstance, instance))
	return nil
}

// EmergencyReset clears the processed-item store for one instance, or for
// every instance when name is empty, regardless of the reset interval.
func (d *Daemon) EmergencyReset(ctx context.Context, instance string) (int64, error) {
	if instance == "" {
		removed, err := d.stateStore.ResetAll(ctx)
		if err == nil {
			d.logger.Info("emergency reset completed for all instances", logging.Int64("removed", removed))
		}
		return removed, err
	}
	if err := d.knownInstance(instance); err != nil {
		return 0, err
	}
	removed, err := d.stateStore.ResetInstance(ctx, instance)
	if err == nil {
		d.logger.Info("emergency reset completed",
			logging.String(logging.FieldInstance, instance),
			logging.Int64("removed", removed),
		)
	}
	return removed, err
}

// SetDryRun toggles the global dry-run flag at runtime.
func (d *Daemon) SetDryRun(enabled bool) {
	d.controls.SetDryRun(enabled)
	d.logger.Info("dry run toggled", logging.Bool("enabled", enabled))
}

// Strikes lists strike records, optionally for one instance.
func (d *Daemon) Strikes(ctx context.Context, instance string) ([]api.StrikeRecord, error) {
	records, err := d.strikeStore.List(ctx, instance)
	if err != nil {
		return nil, err
	}
	converted := make([]api.StrikeRecord, 0, len(records))
	for _, record := range records {
		converted = append(converted, api.ConvertStrikeRecord(record))
	}
	return converted, nil
}

// TestNotification sends a probe through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}

func (d *Daemon) knownInstance(name string) error {
	if _, ok := d.cfg.InstanceByName(name); !ok {
		return fmt.Errorf("unknown instance %q", name)
	}
	return nil
}
