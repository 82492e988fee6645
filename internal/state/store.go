package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"houndarr/internal/config"
)

// Store manages processed-item persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the state database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.StateDir, "state.db"))
}

// OpenPath opens the state database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// HasBeenProcessed reports whether the item was already searched for the
// given instance.
func (s *Store) HasBeenProcessed(ctx context.Context, instance, itemID string) (bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT 1 FROM processed_items WHERE instance = ? AND item_id = ?`,
		instance, itemID,
	)
	var one int
	switch err := row.Scan(&one); {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("query processed item: %w", err)
	}
}

// MarkProcessed records that the item's search was submitted. Marking an
// already-present item refreshes its timestamp.
func (s *Store) MarkProcessed(ctx context.Context, instance, itemID string) error {
	timestamp := s.now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO processed_items (instance, item_id, processed_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(instance, item_id) DO UPDATE SET processed_at = excluded.processed_at`,
		instance, itemID, timestamp,
	)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// FilterUnprocessed returns the subset of ids that have not been processed
// for the instance, preserving input order.
func (s *Store) FilterUnprocessed(ctx context.Context, instance string, ids []string) ([]string, error) {
	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		processed, err := s.HasBeenProcessed(ctx, instance, id)
		if err != nil {
			return nil, err
		}
		if !processed {
			remaining = append(remaining, id)
		}
	}
	return remaining, nil
}

// ResetInstance clears every processed record for the instance and restamps
// its store creation time. Used for emergency resets.
func (s *Store) ResetInstance(ctx context.Context, instance string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM processed_items WHERE instance = ?`, instance)
	if err != nil {
		return 0, fmt.Errorf("reset instance: %w", err)
	}
	removed, _ := res.RowsAffected()
	if err := s.stampCreated(ctx, instance); err != nil {
		return removed, err
	}
	return removed, nil
}

// ResetAll clears processed records for every instance.
func (s *Store) ResetAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM processed_items`)
	if err != nil {
		return 0, fmt.Errorf("reset all instances: %w", err)
	}
	removed, _ := res.RowsAffected()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM store_meta`); err != nil {
		return removed, fmt.Errorf("reset store meta: %w", err)
	}
	return removed, nil
}

// MaybeReset clears the instance's store when its age exceeds interval.
// It reports whether a reset happened. A missing creation stamp is written
// on first call and never triggers a reset.
func (s *Store) MaybeReset(ctx context.Context, instance string, interval time.Duration) (bool, error) {
	if interval <= 0 {
		return false, nil
	}

	row := s.db.QueryRowContext(ctx, `SELECT created_at FROM store_meta WHERE instance = ?`, instance)
	var createdAt string
	switch err := row.Scan(&createdAt); {
	case errors.Is(err, sql.ErrNoRows):
		return false, s.stampCreated(ctx, instance)
	case err != nil:
		return false, fmt.Errorf("query store meta: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return false, fmt.Errorf("parse store creation time %q: %w", createdAt, err)
	}
	if s.now().Sub(created) < interval {
		return false, nil
	}

	if _, err := s.ResetInstance(ctx, instance); err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired removes records older than the given age for the instance
// and returns the number removed.
func (s *Store) PurgeExpired(ctx context.Context, instance string, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-olderThan).UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM processed_items WHERE instance = ? AND processed_at < ?`,
		instance, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	removed, _ := res.RowsAffected()
	return removed, nil
}

// CountProcessed returns the number of processed records for the instance.
func (s *Store) CountProcessed(ctx context.Context, instance string) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_items WHERE instance = ?`, instance)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count processed: %w", err)
	}
	return count, nil
}

func (s *Store) stampCreated(ctx context.Context, instance string) error {
	timestamp := s.now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO store_meta (instance, created_at)
		 VALUES (?, ?)
		 ON CONFLICT(instance) DO UPDATE SET created_at = excluded.created_at`,
		instance, timestamp,
	)
	if err != nil {
		return fmt.Errorf("stamp store creation: %w", err)
	}
	return nil
}

// SetClock overrides the store's time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}
