package state

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS processed_items (
		instance TEXT NOT NULL,
		item_id TEXT NOT NULL,
		processed_at TEXT NOT NULL,
		PRIMARY KEY (instance, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS store_meta (
		instance TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_processed_items_processed_at
		ON processed_items (instance, processed_at)`,
}

func (s *Store) applyMigrations(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
