package strike

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"houndarr/internal/config"
)

// Record tracks strike accrual for one download hash.
type Record struct {
	Instance string
	Hash     string
	Title    string
	Strikes  int
	// LastProgress is the last observed progress value in the configured
	// metric (bytes downloaded or permille complete).
	LastProgress int64
	// LastProgressAt is when progress last advanced.
	LastProgressAt time.Time
	LastCheckedAt  time.Time
	IsPrivate      bool
}

// Store persists strike records backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the strike database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.StateDir, "swaparr.db"))
}

// OpenPath opens the strike database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
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

// Get returns the record for a download hash, or nil when untracked.
func (s *Store) Get(ctx context.Context, instance, hash string) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT instance, hash, title, strikes, last_progress, last_progress_at, last_checked_at, is_private
		 FROM strike_records WHERE instance = ? AND hash = ?`,
		instance, hash,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query strike record: %w", err)
	}
	return record, nil
}

// Put inserts or replaces a record.
func (s *Store) Put(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO strike_records
			(instance, hash, title, strikes, last_progress, last_progress_at, last_checked_at, is_private)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(instance, hash) DO UPDATE SET
			title = excluded.title,
			strikes = excluded.strikes,
			last_progress = excluded.last_progress,
			last_progress_at = excluded.last_progress_at,
			last_checked_at = excluded.last_checked_at,
			is_private = excluded.is_private`,
		record.Instance,
		record.Hash,
		record.Title,
		record.Strikes,
		record.LastProgress,
		record.LastProgressAt.UTC().Format(time.RFC3339Nano),
		record.LastCheckedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(record.IsPrivate),
	)
	if err != nil {
		return fmt.Errorf("put strike record: %w", err)
	}
	return nil
}

// Delete removes the record for a download hash.
func (s *Store) Delete(ctx context.Context, instance, hash string) error {
	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM strike_records WHERE instance = ? AND hash = ?`,
		instance, hash,
	); err != nil {
		return fmt.Errorf("delete strike record: %w", err)
	}
	return nil
}

// List returns all records, optionally filtered to one instance.
func (s *Store) List(ctx context.Context, instance string) ([]Record, error) {
	query := `SELECT instance, hash, title, strikes, last_progress, last_progress_at, last_checked_at, is_private
		FROM strike_records`
	args := []any{}
	if instance != "" {
		query += ` WHERE instance = ?`
		args = append(args, instance)
	}
	query += ` ORDER BY strikes DESC, hash`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list strike records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strike record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// PruneMissing deletes records for the instance whose hash is not in the
// keep set. Downloads that left the queue on their own stop being tracked.
func (s *Store) PruneMissing(ctx context.Context, instance string, keep []string) (int64, error) {
	if len(keep) == 0 {
		res, err := s.db.ExecContext(ctx, `DELETE FROM strike_records WHERE instance = ?`, instance)
		if err != nil {
			return 0, fmt.Errorf("prune strike records: %w", err)
		}
		removed, _ := res.RowsAffected()
		return removed, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",")
	args := make([]any, 0, len(keep)+1)
	args = append(args, instance)
	for _, hash := range keep {
		args = append(args, hash)
	}
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM strike_records WHERE instance = ? AND hash NOT IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("prune strike records: %w", err)
	}
	removed, _ := res.RowsAffected()
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record         Record
		lastProgressAt string
		lastCheckedAt  string
		isPrivate      int
	)
	if err := row.Scan(
		&record.Instance,
		&record.Hash,
		&record.Title,
		&record.Strikes,
		&record.LastProgress,
		&lastProgressAt,
		&lastCheckedAt,
		&isPrivate,
	); err != nil {
		return nil, err
	}

	var err error
	if record.LastProgressAt, err = time.Parse(time.RFC3339Nano, lastProgressAt); err != nil {
		return nil, fmt.Errorf("parse last_progress_at %q: %w", lastProgressAt, err)
	}
	if record.LastCheckedAt, err = time.Parse(time.RFC3339Nano, lastCheckedAt); err != nil {
		return nil, fmt.Errorf("parse last_checked_at %q: %w", lastCheckedAt, err)
	}
	record.IsPrivate = isPrivate != 0
	return &record, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
