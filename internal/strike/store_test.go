package strike_test

import (
	"context"
	"testing"
	"time"

	"houndarr/internal/strike"
	"houndarr/internal/testsupport"
)

func TestPutGetDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStrikeStore(t, cfg)
	ctx := context.Background()

	record, err := store.Get(ctx, "tv", "hash-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record != nil {
		t.Fatalf("untracked hash should return nil, got %#v", record)
	}

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	want := strike.Record{
		Instance:       "tv",
		Hash:           "hash-1",
		Title:          "Some Show S01E01",
		Strikes:        2,
		LastProgress:   1024,
		LastProgressAt: now,
		LastCheckedAt:  now,
		IsPrivate:      true,
	}
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	record, err = store.Get(ctx, "tv", "hash-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected stored record")
	}
	if record.Strikes != 2 || record.LastProgress != 1024 || !record.IsPrivate {
		t.Fatalf("unexpected record: %#v", record)
	}
	if !record.LastProgressAt.Equal(now) {
		t.Fatalf("timestamp mismatch: %s vs %s", record.LastProgressAt, now)
	}

	// Put on the same key replaces.
	want.Strikes = 3
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put replace failed: %v", err)
	}
	record, err = store.Get(ctx, "tv", "hash-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Strikes != 3 {
		t.Fatalf("expected updated strikes, got %d", record.Strikes)
	}

	if err := store.Delete(ctx, "tv", "hash-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	record, err = store.Get(ctx, "tv", "hash-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record != nil {
		t.Fatal("deleted record should be gone")
	}
}

func TestListOrdersByStrikes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStrikeStore(t, cfg)
	ctx := context.Background()
	now := time.Now()

	for hash, strikes := range map[string]int{"a": 1, "b": 3, "c": 2} {
		if err := store.Put(ctx, strike.Record{
			Instance:       "tv",
			Hash:           hash,
			Strikes:        strikes,
			LastProgressAt: now,
			LastCheckedAt:  now,
		}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := store.Put(ctx, strike.Record{
		Instance:       "movies",
		Hash:           "z",
		Strikes:        9,
		LastProgressAt: now,
		LastCheckedAt:  now,
	}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	records, err := store.List(ctx, "tv")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Hash != "b" || records[1].Hash != "c" || records[2].Hash != "a" {
		t.Fatalf("unexpected order: %s %s %s", records[0].Hash, records[1].Hash, records[2].Hash)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records across instances, got %d", len(all))
	}
}

func TestPruneMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStrikeStore(t, cfg)
	ctx := context.Background()
	now := time.Now()

	for _, hash := range []string{"keep-1", "keep-2", "gone"} {
		if err := store.Put(ctx, strike.Record{
			Instance:       "tv",
			Hash:           hash,
			LastProgressAt: now,
			LastCheckedAt:  now,
		}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	removed, err := store.PruneMissing(ctx, "tv", []string{"keep-1", "keep-2"})
	if err != nil {
		t.Fatalf("PruneMissing failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned, got %d", removed)
	}

	// Empty keep set clears the instance.
	removed, err = store.PruneMissing(ctx, "tv", nil)
	if err != nil {
		t.Fatalf("PruneMissing failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned, got %d", removed)
	}
}
