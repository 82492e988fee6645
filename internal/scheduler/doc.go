// Package scheduler drives the hunt cycles: one worker per configured
// instance walks Idle → MissingHunt → WaitForCommands → UpgradeHunt →
// WaitForCommands → Sleeping, gated by pause state, schedule windows, and
// the per-instance sleep duration. A file lock guarantees at most one
// in-flight cycle per instance.
package scheduler
