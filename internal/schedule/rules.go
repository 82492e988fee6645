package schedule

import (
	"fmt"
	"time"

	"houndarr/internal/config"
)

// Rule is one parsed schedule window.
type Rule struct {
	days     map[time.Weekday]bool
	start    int // minutes since midnight; -1 when unbounded
	end      int
	active   bool
	instance string
}

// Set is the full collection of configured rules.
type Set []Rule

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Parse converts configured schedule entries into a rule set.
// Config validation has already checked day names and clock formats.
func Parse(entries []config.Schedule) (Set, error) {
	rules := make(Set, 0, len(entries))
	for i, entry := range entries {
		rule := Rule{
			days:     make(map[time.Weekday]bool, len(entry.Days)),
			start:    -1,
			end:      -1,
			active:   entry.Active,
			instance: entry.Instance,
		}
		for _, day := range entry.Days {
			weekday, ok := dayNames[day]
			if !ok {
				return nil, fmt.Errorf("schedule[%d]: unknown day %q", i, day)
			}
			rule.days[weekday] = true
		}
		if entry.Start != "" {
			start, err := parseClock(entry.Start)
			if err != nil {
				return nil, fmt.Errorf("schedule[%d]: %w", i, err)
			}
			end, err := parseClock(entry.End)
			if err != nil {
				return nil, fmt.Errorf("schedule[%d]: %w", i, err)
			}
			rule.start, rule.end = start, end
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Allows reports whether a cycle may start for the instance at time t.
// Rules scoped to other instances are ignored; with no applicable active
// rule the answer is always true.
func (s Set) Allows(instance string, t time.Time) bool {
	restricted := false
	for _, rule := range s {
		if !rule.active {
			continue
		}
		if rule.instance != "" && rule.instance != instance {
			continue
		}
		restricted = true
		if rule.contains(t) {
			return true
		}
	}
	return !restricted
}

func (r Rule) contains(t time.Time) bool {
	if len(r.days) > 0 && !r.matchesDay(t) {
		return false
	}
	if r.start < 0 {
		return true
	}
	minute := t.Hour()*60 + t.Minute()
	if r.start <= r.end {
		return minute >= r.start && minute < r.end
	}
	// Window wraps midnight, e.g. 22:00-06:00.
	return minute >= r.start || minute < r.end
}

func (r Rule) matchesDay(t time.Time) bool {
	if r.days[t.Weekday()] {
		return true
	}
	// A wrapping window that started yesterday still covers the early
	// morning of the following day.
	if r.start >= 0 && r.start > r.end {
		minute := t.Hour()*60 + t.Minute()
		if minute < r.end {
			yesterday := t.AddDate(0, 0, -1).Weekday()
			return r.days[yesterday]
		}
	}
	return false
}

func parseClock(value string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", value, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value %q out of range", value)
	}
	return hour*60 + minute, nil
}
