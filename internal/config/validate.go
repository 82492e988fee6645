package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var validApps = map[string]struct{}{
	"sonarr":   {},
	"radarr":   {},
	"lidarr":   {},
	"readarr":  {},
	"whisparr": {},
}

var validSelections = map[string]struct{}{
	"random":     {},
	"sequential": {},
}

var validProgressMetrics = map[string]struct{}{
	"bytes":   {},
	"percent": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateInstances(); err != nil {
		return err
	}
	if err := c.Swaparr.validate(); err != nil {
		return err
	}
	return c.validateSchedules()
}

func (c *Config) validateLogging() error {
	switch c.LogFormat {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
}

func (c *Config) validateInstances() error {
	seen := make(map[string]struct{}, len(c.Instances))
	for i := range c.Instances {
		inst := &c.Instances[i]
		if inst.Name == "" {
			return fmt.Errorf("instance[%d]: name must be set", i)
		}
		if _, dup := seen[inst.Name]; dup {
			return fmt.Errorf("instance %q: duplicate name", inst.Name)
		}
		seen[inst.Name] = struct{}{}
		if err := inst.validate(); err != nil {
			return fmt.Errorf("instance %q: %w", inst.Name, err)
		}
	}
	return nil
}

func (i *Instance) validate() error {
	if _, ok := validApps[i.App]; !ok {
		return fmt.Errorf("app must be one of sonarr, radarr, lidarr, readarr, whisparr; got %q", i.App)
	}
	if i.URL == "" {
		return errors.New("url must be set")
	}
	parsed, err := url.Parse(i.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("url %q is not a valid http(s) URL", i.URL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsed.Scheme)
	}
	if i.Enabled && i.APIKey == "" {
		return errors.New("api_key must be set for an enabled instance")
	}
	if _, ok := validSelections[i.Selection]; !ok {
		return fmt.Errorf("selection must be random or sequential, got %q", i.Selection)
	}
	return nil
}

func (s *Swaparr) validate() error {
	if _, ok := validProgressMetrics[s.ProgressMetric]; !ok {
		return fmt.Errorf("swaparr.progress_metric must be bytes or percent, got %q", s.ProgressMetric)
	}
	return nil
}

func (c *Config) validateSchedules() error {
	for i := range c.Schedules {
		rule := &c.Schedules[i]
		for _, day := range rule.Days {
			if !isValidDay(day) {
				return fmt.Errorf("schedule[%d]: unknown day %q", i, day)
			}
		}
		if (rule.Start == "") != (rule.End == "") {
			return fmt.Errorf("schedule[%d]: start and end must both be set or both empty", i)
		}
		for _, value := range []string{rule.Start, rule.End} {
			if value == "" {
				continue
			}
			if !isValidClock(value) {
				return fmt.Errorf("schedule[%d]: %q is not a valid HH:MM time", i, value)
			}
		}
		if rule.Instance != "" {
			if _, ok := c.InstanceByName(rule.Instance); !ok {
				return fmt.Errorf("schedule[%d]: unknown instance %q", i, rule.Instance)
			}
		}
	}
	return nil
}

func isValidDay(day string) bool {
	switch day {
	case "mon", "tue", "wed", "thu", "fri", "sat", "sun":
		return true
	}
	return false
}

func isValidClock(value string) bool {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return false
	}
	hour, minute := 0, 0
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return false
	}
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}
