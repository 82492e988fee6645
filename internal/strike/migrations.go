package strike

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS strike_records (
		instance TEXT NOT NULL,
		hash TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		strikes INTEGER NOT NULL DEFAULT 0,
		last_progress INTEGER NOT NULL DEFAULT 0,
		last_progress_at TEXT NOT NULL,
		last_checked_at TEXT NOT NULL,
		is_private INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (instance, hash)
	)`,
}

func (s *Store) applyMigrations(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
