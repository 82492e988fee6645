package daemon_test

import (
	"context"
	"testing"

	"houndarr/internal/daemon"
	"houndarr/internal/logging"
	"houndarr/internal/testsupport"
)

func newTestDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithInstance(testsupport.NewInstance("tv")))
	cfg.APIBind = "" // no HTTP surface in unit tests

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d
}

func TestStatusSnapshot(t *testing.T) {
	d := newTestDaemon(t)

	status := d.Status()
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if len(status.Instances) != 1 || status.Instances[0].Name != "tv" {
		t.Fatalf("unexpected instances: %#v", status.Instances)
	}
	if status.Instances[0].RateCap != 20 {
		t.Fatalf("expected default hourly cap surfaced, got %d", status.Instances[0].RateCap)
	}
}

func TestPauseResumeScoping(t *testing.T) {
	d := newTestDaemon(t)

	if err := d.Pause(""); err != nil {
		t.Fatalf("global pause failed: %v", err)
	}
	if !d.Status().GloballyPaused {
		t.Fatal("global pause should be visible in status")
	}
	if err := d.Resume(""); err != nil {
		t.Fatalf("global resume failed: %v", err)
	}

	if err := d.Pause("tv"); err != nil {
		t.Fatalf("instance pause failed: %v", err)
	}
	if !d.Status().Instances[0].Paused {
		t.Fatal("instance pause should be visible in status")
	}
	if err := d.Pause("ghost"); err == nil {
		t.Fatal("pausing an unknown instance should fail")
	}
	if err := d.ForceRun("ghost"); err == nil {
		t.Fatal("forcing an unknown instance should fail")
	}
}

func TestEmergencyReset(t *testing.T) {
	d := newTestDaemon(t)
	ctx := context.Background()

	removed, err := d.EmergencyReset(ctx, "tv")
	if err != nil {
		t.Fatalf("EmergencyReset failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("fresh store should have nothing to reset, got %d", removed)
	}
	if _, err := d.EmergencyReset(ctx, "ghost"); err == nil {
		t.Fatal("resetting an unknown instance should fail")
	}
	if _, err := d.EmergencyReset(ctx, ""); err != nil {
		t.Fatalf("reset all failed: %v", err)
	}
}

func TestDryRunFlagPropagates(t *testing.T) {
	d := newTestDaemon(t)

	if d.Status().DryRun {
		t.Fatal("dry run should default off")
	}
	d.SetDryRun(true)
	if !d.Status().DryRun {
		t.Fatal("dry run toggle should be visible in status")
	}
}

func TestStrikesEmptyStore(t *testing.T) {
	d := newTestDaemon(t)

	records, err := d.Strikes(context.Background(), "")
	if err != nil {
		t.Fatalf("Strikes failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no strike records, got %d", len(records))
	}
}
