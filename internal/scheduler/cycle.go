package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"houndarr/internal/arr"
	"houndarr/internal/command"
	"houndarr/internal/logging"
	"houndarr/internal/ratelimit"
)

// huntKind distinguishes the two independent sub-phases of a cycle.
type huntKind string

const (
	huntMissing huntKind = "missing"
	huntUpgrade huntKind = "upgrade"
)

func (s *Scheduler) runCycle(ctx context.Context, w *worker) {
	ok, err := w.lock.TryAcquire()
	if err != nil {
		w.setError(err)
		w.logger.Error("cycle lock error", logging.Error(err))
		return
	}
	if !ok {
		// Another cycle is in flight; skip, never queue.
		w.logger.Debug("cycle already in flight, skipping trigger")
		return
	}
	defer func() {
		if err := w.lock.Release(); err != nil {
			w.logger.Warn("release cycle lock failed", logging.Error(err))
		}
	}()

	cycleID := uuid.NewString()[:8]
	logger := w.logger.With(logging.String(logging.FieldCycleID, cycleID))
	w.mu.Lock()
	w.lastCycleID = cycleID
	w.mu.Unlock()

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go s.runHeartbeat(heartbeatCtx, w)

	s.maybeResetState(ctx, w, logger)

	missingSearched := 0
	upgradeSearched := 0

	if w.cfg.HuntMissingItems > 0 {
		missingSearched = s.runHunt(ctx, w, logger, huntMissing)
	}
	if w.cfg.HuntUpgradeItems > 0 && !w.isUnconfigured() {
		upgradeSearched = s.runHunt(ctx, w, logger, huntUpgrade)
	}

	w.mu.Lock()
	w.phase = PhaseSleeping
	w.lastRun = s.now()
	w.missingLast = missingSearched
	w.upgradeLast = upgradeSearched
	w.mu.Unlock()

	if missingSearched > 0 || upgradeSearched > 0 {
		logger.Info("hunt cycle finished",
			logging.Int("missing_searched", missingSearched),
			logging.Int("upgrade_searched", upgradeSearched),
		)
		if err := s.notifier.NotifyHuntCompleted(ctx, w.cfg.Name, missingSearched, upgradeSearched); err != nil {
			logger.Debug("hunt notification failed", logging.Error(err))
		}
	}
}

// runHeartbeat keeps the cycle lock fresh so a healthy long cycle is never
// mistaken for a crashed one.
func (s *Scheduler) runHeartbeat(ctx context.Context, w *worker) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.lock.Heartbeat(); err != nil {
				w.logger.Warn("cycle heartbeat failed", logging.Error(err))
			}
		}
	}
}

func (s *Scheduler) maybeResetState(ctx context.Context, w *worker, logger *slog.Logger) {
	interval := time.Duration(w.cfg.StateResetIntervalHours) * time.Hour
	reset, err := s.store.MaybeReset(ctx, w.cfg.Name, interval)
	if err != nil {
		logger.Warn("state reset check failed", logging.Error(err))
		return
	}
	if reset {
		logger.Info("processed-item store reset", logging.Duration("interval", interval))
		return
	}
	if purged, err := s.store.PurgeExpired(ctx, w.cfg.Name, interval); err != nil {
		logger.Warn("state expiry purge failed", logging.Error(err))
	} else if purged > 0 {
		logger.Debug("expired processed records purged", logging.Int64("count", purged))
	}
}

// runHunt executes one sub-phase and returns the number of searches
// submitted. Failures are contained: they are logged, recorded on the
// worker, and never propagate past the phase.
func (s *Scheduler) runHunt(ctx context.Context, w *worker, logger *slog.Logger, kind huntKind) int {
	phase := PhaseMissingHunt
	limit := w.cfg.HuntMissingItems
	if kind == huntUpgrade {
		phase = PhaseUpgradeHunt
		limit = w.cfg.HuntUpgradeItems
	}
	w.setPhase(phase)
	logger = logger.With(logging.String(logging.FieldPhase, string(phase)))

	var (
		result arr.ListResult
		err    error
	)
	if kind == huntMissing {
		result, err = w.client.ListMissing(ctx, w.cfg.MonitoredOnly)
	} else {
		result, err = w.client.ListUpgradable(ctx, w.cfg.MonitoredOnly)
	}
	if err != nil {
		s.handleHuntError(ctx, w, logger, err)
		return 0
	}
	if result.Skipped > 0 {
		logger.Warn("malformed records skipped", logging.Int("count", result.Skipped))
	}

	candidates := s.filterCandidates(ctx, w, logger, kind, result.Items)
	selected := selectItems(candidates, w.cfg.Selection, limit)
	if len(selected) == 0 {
		logger.Debug("no eligible items")
		return 0
	}

	handles := make([]command.Handle, 0, len(selected))
	for _, item := range selected {
		commandID, err := w.client.TriggerSearch(ctx, []int64{item.ID})
		if err != nil {
			if errors.Is(err, ratelimit.ErrDeferred) {
				logger.Info("hourly API cap reached, deferring remaining items to next cycle",
					logging.Int("submitted", len(handles)),
					logging.Int("deferred", len(selected)-len(handles)),
				)
				break
			}
			if errors.Is(err, arr.ErrMalformed) {
				logger.Warn("search submission skipped",
					logging.Int64("item_id", item.ID),
					logging.Error(err),
				)
				continue
			}
			s.handleHuntError(ctx, w, logger, err)
			break
		}

		// Marked immediately after confirmed submission so a long-running
		// remote search is never submitted twice.
		if err := s.store.MarkProcessed(ctx, w.cfg.Name, itemKey(kind, item.ID)); err != nil {
			logger.Error("mark processed failed", logging.Int64("item_id", item.ID), logging.Error(err))
		}
		logger.Info("search submitted",
			logging.Int64("item_id", item.ID),
			logging.String("title", item.Title),
			logging.Int64("command_id", commandID),
		)
		handles = append(handles, command.NewHandle(
			w.cfg.Name,
			commandID,
			time.Duration(w.cfg.CommandWaitDelay)*time.Second,
			w.cfg.CommandWaitAttempts,
		))
	}

	if len(handles) > 0 {
		w.setPhase(PhaseWaitForCommands)
		for _, handle := range handles {
			switch w.waiter.Wait(ctx, handle) {
			case command.Failed:
				logger.Warn("remote search reported failure", logging.Int64("command_id", handle.CommandID))
			case command.TimedOut:
				// Best effort: the remote search may still be running.
			}
		}
	}
	return len(handles)
}

func (s *Scheduler) filterCandidates(ctx context.Context, w *worker, logger *slog.Logger, kind huntKind, items []arr.Item) []arr.Item {
	now := s.now()
	eligible := make([]arr.Item, 0, len(items))
	for _, item := range items {
		if w.cfg.SkipFutureItems && item.Future(now) {
			continue
		}
		processed, err := s.store.HasBeenProcessed(ctx, w.cfg.Name, itemKey(kind, item.ID))
		if err != nil {
			logger.Error("processed lookup failed", logging.Int64("item_id", item.ID), logging.Error(err))
			continue
		}
		if processed {
			continue
		}
		eligible = append(eligible, item)
	}
	return eligible
}

// handleHuntError classifies a phase failure. Auth failures quarantine the
// instance; everything else is logged and retried by the next cycle.
func (s *Scheduler) handleHuntError(ctx context.Context, w *worker, logger *slog.Logger, err error) {
	w.setError(err)
	switch {
	case arr.IsAuth(err):
		w.mu.Lock()
		w.unconfigured = true
		w.mu.Unlock()
		logger.Error("credential rejected, instance quarantined until configuration changes",
			logging.Error(err))
		if notifyErr := s.notifier.NotifyAuthFailure(ctx, w.cfg.Name); notifyErr != nil {
			logger.Debug("auth failure notification failed", logging.Error(notifyErr))
		}
	case arr.IsConnection(err):
		logger.Warn("application unreachable, phase aborted until next cycle", logging.Error(err))
	default:
		logger.Warn("hunt phase failed", logging.Error(err))
	}
}

func (w *worker) isUnconfigured() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unconfigured
}

// selectItems orders candidates per the configured strategy and takes up
// to limit of them.
func selectItems(items []arr.Item, selection string, limit int) []arr.Item {
	if limit <= 0 || len(items) == 0 {
		return nil
	}

	ordered := make([]arr.Item, len(items))
	copy(ordered, items)
	switch selection {
	case "sequential":
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	default:
		rand.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	}

	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

func itemKey(kind huntKind, id int64) string {
	return string(kind) + ":" + strconv.FormatInt(id, 10)
}
