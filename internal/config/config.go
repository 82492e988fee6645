package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config is the top-level houndarr configuration.
type Config struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`

	// DryRun disables all remote mutations globally; either this flag or
	// Swaparr.DryRun enables dry-run for strike removals.
	DryRun bool `toml:"dry_run"`

	NtfyTopic          string `toml:"ntfy_topic"`
	NtfyRequestTimeout int    `toml:"ntfy_request_timeout"`

	Swaparr   Swaparr    `toml:"swaparr"`
	Schedules []Schedule `toml:"schedule"`
	Instances []Instance `toml:"instance"`
}

// Instance describes one connection to an external media manager.
type Instance struct {
	Name    string `toml:"name"`
	App     string `toml:"app"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
	Enabled bool   `toml:"enabled"`

	HuntMissingItems int `toml:"hunt_missing_items"`
	HuntUpgradeItems int `toml:"hunt_upgrade_items"`

	SleepDuration           int `toml:"sleep_duration"`
	HourlyAPICap            int `toml:"hourly_api_cap"`
	StateResetIntervalHours int `toml:"state_reset_interval_hours"`

	MonitoredOnly   bool `toml:"monitored_only"`
	SkipFutureItems bool `toml:"skip_future_items"`

	// Selection chooses candidate ordering: "random" or "sequential".
	Selection string `toml:"selection"`

	CommandWaitDelay    int `toml:"command_wait_delay"`
	CommandWaitAttempts int `toml:"command_wait_attempts"`
}

// Swaparr configures the stalled-download strike policy.
type Swaparr struct {
	Enabled         bool   `toml:"enabled"`
	MaxStrikes      int    `toml:"max_strikes"`
	MaxDownloadTime int    `toml:"max_download_time"`
	IgnoreAboveSize string `toml:"ignore_above_size"`
	CheckInterval   int    `toml:"check_interval"`

	RemoveFromClient       bool `toml:"remove_from_client"`
	DryRun                 bool `toml:"dry_run"`
	ResetStrikesOnProgress bool `toml:"reset_strikes_on_progress"`
	IgnorePrivate          bool `toml:"ignore_private"`

	// ProgressMetric selects how progress is compared between ticks:
	// "bytes" (downloaded byte count) or "percent".
	ProgressMetric string `toml:"progress_metric"`

	// ignoreAboveSizeBytes is the parsed form of IgnoreAboveSize.
	ignoreAboveSizeBytes uint64
}

// Schedule gates cycle starts to a day-of-week set and time range.
type Schedule struct {
	Days  []string `toml:"days"`
	Start string   `toml:"start"`
	End   string   `toml:"end"`

	Active bool `toml:"active"`

	// Instance scopes the rule to one instance name; empty means global.
	Instance string `toml:"instance"`
}

// IgnoreAboveSizeBytes returns the parsed size threshold in bytes.
// Zero means no threshold. Configs that skipped normalization fall back
// to parsing the string form on demand.
func (s Swaparr) IgnoreAboveSizeBytes() uint64 {
	if s.ignoreAboveSizeBytes == 0 && strings.TrimSpace(s.IgnoreAboveSize) != "" {
		if size, err := humanize.ParseBytes(s.IgnoreAboveSize); err == nil {
			return size
		}
	}
	return s.ignoreAboveSizeBytes
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "houndarr", "config.toml"), nil
}

// Load reads the configuration file at path, or the default location when
// path is empty. It returns the config, the resolved path, and whether the
// file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, "", false, err
		}
		resolved = defaultPath
	}

	expanded, err := expandPath(resolved)
	if err != nil {
		return nil, resolved, false, err
	}

	cfg := Default()
	data, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, expanded, true, fmt.Errorf("parse config %s: %w", expanded, err)
		}
		if err := cfg.normalize(); err != nil {
			return nil, expanded, true, err
		}
		return &cfg, expanded, true, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := cfg.normalize(); err != nil {
			return nil, expanded, false, err
		}
		return &cfg, expanded, false, nil
	default:
		return nil, expanded, false, fmt.Errorf("read config %s: %w", expanded, err)
	}
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the state and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.StateDir, c.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// InstanceByName returns the instance config with the given name.
func (c *Config) InstanceByName(name string) (*Instance, bool) {
	for i := range c.Instances {
		if c.Instances[i].Name == name {
			return &c.Instances[i], true
		}
	}
	return nil, false
}

// EnabledInstances returns the configured instances with Enabled set.
func (c *Config) EnabledInstances() []Instance {
	enabled := make([]Instance, 0, len(c.Instances))
	for _, inst := range c.Instances {
		if inst.Enabled {
			enabled = append(enabled, inst)
		}
	}
	return enabled
}

// ExpandPath resolves a leading ~ to the user's home directory and cleans
// the result.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}
