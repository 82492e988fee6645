package config

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	for i := range c.Instances {
		c.Instances[i].normalize()
	}
	if err := c.Swaparr.normalize(); err != nil {
		return err
	}
	c.normalizeSchedules()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.StateDir) == "" {
		c.StateDir = defaultStateDir
	}
	if c.StateDir, err = expandPath(c.StateDir); err != nil {
		return fmt.Errorf("state_dir: %w", err)
	}
	if strings.TrimSpace(c.LogDir) == "" {
		c.LogDir = defaultLogDir
	}
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}
	c.APIBind = strings.TrimSpace(c.APIBind)
	c.APIToken = strings.TrimSpace(c.APIToken)
	return nil
}

func (c *Config) normalizeLogging() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	if c.NtfyRequestTimeout <= 0 {
		c.NtfyRequestTimeout = defaultNtfyRequestTimeout
	}
}

// normalize fills omitted instance fields with defaults. Zero values that
// carry meaning (hunt counts, hourly_api_cap) are left untouched: a zero
// cap means fully throttled, a zero hunt count disables that hunt.
func (i *Instance) normalize() {
	i.Name = strings.TrimSpace(i.Name)
	i.App = strings.ToLower(strings.TrimSpace(i.App))
	i.URL = strings.TrimRight(strings.TrimSpace(i.URL), "/")
	i.APIKey = strings.TrimSpace(i.APIKey)

	if i.SleepDuration <= 0 {
		i.SleepDuration = defaultSleepDuration
	}
	if i.StateResetIntervalHours <= 0 {
		i.StateResetIntervalHours = defaultStateResetIntervalHours
	}
	i.Selection = strings.ToLower(strings.TrimSpace(i.Selection))
	if i.Selection == "" {
		i.Selection = defaultSelection
	}
	if i.CommandWaitDelay <= 0 {
		i.CommandWaitDelay = defaultCommandWaitDelay
	}
	if i.CommandWaitAttempts <= 0 {
		i.CommandWaitAttempts = defaultCommandWaitAttempts
	}
	if i.HuntMissingItems < 0 {
		i.HuntMissingItems = 0
	}
	if i.HuntUpgradeItems < 0 {
		i.HuntUpgradeItems = 0
	}
	if i.HourlyAPICap < 0 {
		i.HourlyAPICap = 0
	}
}

func (s *Swaparr) normalize() error {
	if s.MaxDownloadTime <= 0 {
		s.MaxDownloadTime = defaultSwaparrMaxDownloadTime
	}
	if s.CheckInterval <= 0 {
		s.CheckInterval = defaultSwaparrCheckInterval
	}
	s.ProgressMetric = strings.ToLower(strings.TrimSpace(s.ProgressMetric))
	if s.ProgressMetric == "" {
		s.ProgressMetric = defaultSwaparrProgressMetric
	}
	if s.MaxStrikes < 0 {
		s.MaxStrikes = 0
	}
	// A configured value below the floor silently becomes the floor;
	// zero stays zero because it disables removal outright.
	if s.Enabled && s.MaxStrikes > 0 && s.MaxStrikes < minEnforcedStrikes {
		s.MaxStrikes = minEnforcedStrikes
	}

	s.IgnoreAboveSize = strings.TrimSpace(s.IgnoreAboveSize)
	if s.IgnoreAboveSize == "" {
		s.ignoreAboveSizeBytes = 0
		return nil
	}
	size, err := humanize.ParseBytes(s.IgnoreAboveSize)
	if err != nil {
		return fmt.Errorf("swaparr.ignore_above_size: %w", err)
	}
	s.ignoreAboveSizeBytes = size
	return nil
}

func (c *Config) normalizeSchedules() {
	for i := range c.Schedules {
		rule := &c.Schedules[i]
		for j, day := range rule.Days {
			rule.Days[j] = strings.ToLower(strings.TrimSpace(day))
		}
		rule.Start = strings.TrimSpace(rule.Start)
		rule.End = strings.TrimSpace(rule.End)
		rule.Instance = strings.TrimSpace(rule.Instance)
	}
}
