package testsupport

import (
	"path/filepath"
	"testing"

	"houndarr/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.StateDir = filepath.Join(base, "state")
	cfg.LogDir = filepath.Join(base, "logs")
	cfg.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithInstance appends an instance definition to the test config.
func WithInstance(inst config.Instance) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Instances = append(cfg.Instances, inst)
	}
}

// WithSwaparr replaces the Swaparr section on the test config.
func WithSwaparr(swaparr config.Swaparr) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Swaparr = swaparr
	}
}

// NewInstance returns an enabled instance definition suitable for tests.
// The URL points nowhere; tests that exercise HTTP override it.
func NewInstance(name string) config.Instance {
	inst := config.DefaultInstance()
	inst.Name = name
	inst.App = "sonarr"
	inst.URL = "http://127.0.0.1:8989"
	inst.APIKey = "test-key"
	inst.Enabled = true
	return inst
}
