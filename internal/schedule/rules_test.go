package schedule_test

import (
	"testing"
	"time"

	"houndarr/internal/config"
	"houndarr/internal/schedule"
)

// clock builds a time on a fixed reference week; weekday selects the day.
func clock(t *testing.T, weekday time.Weekday, hour, minute int) time.Time {
	t.Helper()
	// 2026-03-01 is a Sunday.
	base := time.Date(2026, time.March, 1, hour, minute, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(weekday))
}

func mustParse(t *testing.T, entries []config.Schedule) schedule.Set {
	t.Helper()
	rules, err := schedule.Parse(entries)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return rules
}

func TestNoRulesAlwaysAllows(t *testing.T) {
	rules := mustParse(t, nil)
	if !rules.Allows("tv", clock(t, time.Monday, 12, 0)) {
		t.Fatal("empty rule set should always allow")
	}
}

func TestInactiveRulesDoNotRestrict(t *testing.T) {
	rules := mustParse(t, []config.Schedule{
		{Days: []string{"mon"}, Start: "22:00", End: "23:00", Active: false},
	})
	if !rules.Allows("tv", clock(t, time.Tuesday, 12, 0)) {
		t.Fatal("inactive rules must not restrict")
	}
}

func TestWindowBounds(t *testing.T) {
	rules := mustParse(t, []config.Schedule{
		{Days: []string{"mon"}, Start: "09:00", End: "17:00", Active: true},
	})

	cases := []struct {
		name    string
		at      time.Time
		allowed bool
	}{
		{"inside window", clock(t, time.Monday, 12, 0), true},
		{"at start", clock(t, time.Monday, 9, 0), true},
		{"at end is exclusive", clock(t, time.Monday, 17, 0), false},
		{"before window", clock(t, time.Monday, 8, 59), false},
		{"wrong day", clock(t, time.Tuesday, 12, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rules.Allows("tv", tc.at); got != tc.allowed {
				t.Fatalf("Allows(%s) = %v, want %v", tc.at, got, tc.allowed)
			}
		})
	}
}

func TestMidnightWrappingWindow(t *testing.T) {
	rules := mustParse(t, []config.Schedule{
		{Days: []string{"fri"}, Start: "22:00", End: "06:00", Active: true},
	})

	cases := []struct {
		name    string
		at      time.Time
		allowed bool
	}{
		{"late evening", clock(t, time.Friday, 23, 0), true},
		{"early next morning", clock(t, time.Saturday, 5, 0), true},
		{"after wrapped end", clock(t, time.Saturday, 6, 0), false},
		{"saturday evening not covered", clock(t, time.Saturday, 23, 0), false},
		{"friday afternoon", clock(t, time.Friday, 12, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rules.Allows("tv", tc.at); got != tc.allowed {
				t.Fatalf("Allows(%s) = %v, want %v", tc.at, got, tc.allowed)
			}
		})
	}
}

func TestInstanceScopedRules(t *testing.T) {
	rules := mustParse(t, []config.Schedule{
		{Days: []string{"mon"}, Start: "09:00", End: "17:00", Active: true, Instance: "tv"},
	})

	// tv is restricted to the window; movies has no applicable rule.
	if rules.Allows("tv", clock(t, time.Monday, 20, 0)) {
		t.Fatal("tv should be outside its window")
	}
	if !rules.Allows("movies", clock(t, time.Monday, 20, 0)) {
		t.Fatal("movies should be unrestricted")
	}
}

func TestMultipleWindowsAnyMatchAllows(t *testing.T) {
	rules := mustParse(t, []config.Schedule{
		{Start: "09:00", End: "11:00", Active: true},
		{Start: "20:00", End: "22:00", Active: true},
	})

	if !rules.Allows("tv", clock(t, time.Wednesday, 10, 0)) {
		t.Fatal("first window should allow")
	}
	if !rules.Allows("tv", clock(t, time.Wednesday, 21, 0)) {
		t.Fatal("second window should allow")
	}
	if rules.Allows("tv", clock(t, time.Wednesday, 15, 0)) {
		t.Fatal("gap between windows should deny")
	}
}

func TestDayOnlyRule(t *testing.T) {
	rules := mustParse(t, []config.Schedule{
		{Days: []string{"sat", "sun"}, Active: true},
	})

	if !rules.Allows("tv", clock(t, time.Saturday, 3, 0)) {
		t.Fatal("listed day should allow at any hour")
	}
	if rules.Allows("tv", clock(t, time.Wednesday, 3, 0)) {
		t.Fatal("unlisted day should deny")
	}
}

func TestParseRejectsUnknownDay(t *testing.T) {
	if _, err := schedule.Parse([]config.Schedule{{Days: []string{"funday"}}}); err == nil {
		t.Fatal("expected error for unknown day")
	}
}
