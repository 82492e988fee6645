package ipc_test

import (
	"context"
	"path/filepath"
	"testing"

	"houndarr/internal/daemon"
	"houndarr/internal/ipc"
	"houndarr/internal/logging"
	"houndarr/internal/testsupport"
)

func newTestClient(t *testing.T) *ipc.Client {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithInstance(testsupport.NewInstance("tv")))
	cfg.APIBind = ""

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	socket := filepath.Join(t.TempDir(), "houndarr.sock")
	server, err := ipc.NewServer(context.Background(), socket, d, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer failed: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial failed: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestStatusRoundTrip(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if resp.Status.Running {
		t.Fatal("daemon should not report running")
	}
	if len(resp.Status.Instances) != 1 || resp.Status.Instances[0].Name != "tv" {
		t.Fatalf("unexpected instances over IPC: %#v", resp.Status.Instances)
	}
}

func TestControlRoundTrips(t *testing.T) {
	client := newTestClient(t)

	if _, err := client.Pause(""); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	resp, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !resp.Status.GloballyPaused {
		t.Fatal("pause should be visible over IPC")
	}
	if _, err := client.Resume(""); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	if _, err := client.ForceRun("tv"); err != nil {
		t.Fatalf("ForceRun failed: %v", err)
	}
	if _, err := client.ForceRun("ghost"); err == nil {
		t.Fatal("unknown instance should error over IPC")
	}

	dryResp, err := client.SetDryRun(true)
	if err != nil {
		t.Fatalf("SetDryRun failed: %v", err)
	}
	if !dryResp.Enabled {
		t.Fatal("dry run ack should echo the new state")
	}

	resetResp, err := client.Reset("tv")
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if resetResp.Removed != 0 {
		t.Fatalf("fresh store should reset nothing, got %d", resetResp.Removed)
	}

	strikes, err := client.Strikes("")
	if err != nil {
		t.Fatalf("Strikes failed: %v", err)
	}
	if len(strikes.Records) != 0 {
		t.Fatalf("expected no strike records, got %d", len(strikes.Records))
	}
}
