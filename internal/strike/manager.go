package strike

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"houndarr/internal/arr"
	"houndarr/internal/config"
	"houndarr/internal/logging"
	"houndarr/internal/notifications"
)

// Summary reports the outcome of one instance evaluation.
type Summary struct {
	Checked int
	Struck  int
	Removed int
	Skipped int
	Pruned  int64
}

// Manager evaluates download queues on its own timer, independent of hunt
// cycles, and removes downloads that accumulate enough strikes.
type Manager struct {
	cfg      config.Swaparr
	store    *Store
	clients  map[string]arr.Client
	logger   *slog.Logger
	notifier notifications.Service

	// dryRun reports the effective dry-run state; either the global or
	// the Swaparr-specific toggle enables it.
	dryRun func() bool
	now    func() time.Time
}

// NewManager constructs a strike manager over the given per-instance clients.
func NewManager(
	cfg config.Swaparr,
	store *Store,
	clients map[string]arr.Client,
	logger *slog.Logger,
	notifier notifications.Service,
	dryRun func() bool,
) *Manager {
	if notifier == nil {
		notifier = notifications.Noop()
	}
	if dryRun == nil {
		dryRun = func() bool { return false }
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		clients:  clients,
		logger:   logging.NewComponentLogger(logger, "swaparr"),
		notifier: notifier,
		dryRun:   dryRun,
		now:      time.Now,
	}
}

// Run evaluates all instances on the configured interval until ctx ends.
func (m *Manager) Run(ctx context.Context) {
	if !m.cfg.Enabled {
		return
	}
	interval := time.Duration(m.cfg.CheckInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("swaparr started",
		logging.Duration("check_interval", interval),
		logging.Int("max_strikes", m.cfg.MaxStrikes),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evaluateAll(ctx)
		}
	}
}

func (m *Manager) evaluateAll(ctx context.Context) {
	for instance, client := range m.clients {
		summary, err := m.EvaluateInstance(ctx, instance, client)
		logger := logging.WithInstance(m.logger, instance)
		if err != nil {
			logger.Warn("queue evaluation failed", logging.Error(err))
			continue
		}
		if summary.Checked > 0 || summary.Pruned > 0 {
			logger.Debug("queue evaluated",
				logging.Int("checked", summary.Checked),
				logging.Int("struck", summary.Struck),
				logging.Int("removed", summary.Removed),
				logging.Int("skipped", summary.Skipped),
				logging.Int64("pruned", summary.Pruned),
			)
		}
	}
}

// EvaluateInstance inspects one instance's download queue, accruing at most
// one strike per download per call.
func (m *Manager) EvaluateInstance(ctx context.Context, instance string, client arr.Client) (Summary, error) {
	var summary Summary

	downloads, err := client.ListQueue(ctx)
	if err != nil {
		return summary, err
	}

	logger := logging.WithInstance(m.logger, instance)
	maxDownloadTime := time.Duration(m.cfg.MaxDownloadTime) * time.Minute
	sizeThreshold := m.cfg.IgnoreAboveSizeBytes()

	keep := make([]string, 0, len(downloads))
	for _, download := range downloads {
		keep = append(keep, download.Hash)
		summary.Checked++

		if sizeThreshold > 0 && download.Size > 0 && uint64(download.Size) > sizeThreshold {
			summary.Skipped++
			continue
		}
		if download.IsPrivate && m.cfg.IgnorePrivate {
			summary.Skipped++
			continue
		}

		struck, removed, err := m.evaluateDownload(ctx, logger, instance, client, download, maxDownloadTime)
		if err != nil {
			logger.Warn("download evaluation failed",
				logging.String(logging.FieldDownload, download.Hash),
				logging.Error(err),
			)
			continue
		}
		if struck {
			summary.Struck++
		}
		if removed {
			summary.Removed++
		}
	}

	pruned, err := m.store.PruneMissing(ctx, instance, keep)
	if err != nil {
		return summary, err
	}
	summary.Pruned = pruned
	return summary, nil
}

func (m *Manager) evaluateDownload(
	ctx context.Context,
	logger *slog.Logger,
	instance string,
	client arr.Client,
	download arr.Download,
	maxDownloadTime time.Duration,
) (struck, removed bool, err error) {
	now := m.now()
	progress := m.progressOf(download)

	record, err := m.store.Get(ctx, instance, download.Hash)
	if err != nil {
		return false, false, err
	}
	if record == nil {
		// First sighting establishes the progress baseline.
		return false, false, m.store.Put(ctx, Record{
			Instance:       instance,
			Hash:           download.Hash,
			Title:          download.Title,
			LastProgress:   progress,
			LastProgressAt: now,
			LastCheckedAt:  now,
			IsPrivate:      download.IsPrivate,
		})
	}

	record.Title = download.Title
	record.IsPrivate = download.IsPrivate
	record.LastCheckedAt = now

	switch {
	case progress > record.LastProgress:
		if m.cfg.ResetStrikesOnProgress && record.Strikes > 0 {
			logger.Debug("progress resumed, strikes reset",
				logging.String(logging.FieldDownload, download.Hash),
				logging.Int("strikes", record.Strikes),
			)
			record.Strikes = 0
		}
		record.LastProgress = progress
		record.LastProgressAt = now
	case now.Sub(record.LastProgressAt) > maxDownloadTime:
		record.Strikes++
		struck = true
		logger.Info("stalled download struck",
			logging.String(logging.FieldDownload, download.Hash),
			logging.String("title", download.Title),
			logging.Int("strikes", record.Strikes),
			logging.String("size", humanize.Bytes(uint64(max(download.Size, 0)))),
		)
	}

	if m.cfg.MaxStrikes > 0 && record.Strikes >= m.cfg.MaxStrikes {
		if m.dryRun() {
			logger.Info("would remove stalled download (dry run)",
				logging.String(logging.FieldDownload, download.Hash),
				logging.String("title", download.Title),
				logging.Int("strikes", record.Strikes),
			)
			return struck, false, m.store.Put(ctx, *record)
		}

		if err := client.RemoveDownload(ctx, download.ID, m.cfg.RemoveFromClient); err != nil {
			// Removal failed; keep the record so the next tick retries.
			if putErr := m.store.Put(ctx, *record); putErr != nil {
				return struck, false, putErr
			}
			return struck, false, err
		}
		if err := m.store.Delete(ctx, instance, download.Hash); err != nil {
			return struck, true, err
		}
		logger.Info("stalled download removed",
			logging.String(logging.FieldDownload, download.Hash),
			logging.String("title", download.Title),
			logging.Int("strikes", record.Strikes),
		)
		if err := m.notifier.NotifyStrikeRemoval(ctx, instance, download.Title, record.Strikes); err != nil {
			logger.Debug("strike removal notification failed", logging.Error(err))
		}
		return struck, true, nil
	}

	return struck, false, m.store.Put(ctx, *record)
}

func (m *Manager) progressOf(download arr.Download) int64 {
	if m.cfg.ProgressMetric == "percent" {
		return download.PercentDone()
	}
	return download.BytesDone()
}

// SetClock overrides the manager's time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}
