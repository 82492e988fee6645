package testsupport

import (
	"testing"

	"houndarr/internal/config"
	"houndarr/internal/state"
	"houndarr/internal/strike"
)

// MustOpenStateStore opens a state.Store for tests and registers cleanup.
func MustOpenStateStore(t testing.TB, cfg *config.Config) *state.Store {
	t.Helper()

	store, err := state.Open(cfg)
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenStrikeStore opens a strike.Store for tests and registers cleanup.
func MustOpenStrikeStore(t testing.TB, cfg *config.Config) *strike.Store {
	t.Helper()

	store, err := strike.Open(cfg)
	if err != nil {
		t.Fatalf("strike.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
