package strike_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"houndarr/internal/arr"
	"houndarr/internal/config"
	"houndarr/internal/notifications"
	"houndarr/internal/strike"
	"houndarr/internal/testsupport"
)

type fakeQueueClient struct {
	queue     []arr.Download
	removed   []int64
	removeErr error
}

func (c *fakeQueueClient) ListQueue(ctx context.Context) ([]arr.Download, error) {
	return c.queue, nil
}

func (c *fakeQueueClient) RemoveDownload(ctx context.Context, queueID int64, removeFromClient bool) error {
	if c.removeErr != nil {
		return c.removeErr
	}
	c.removed = append(c.removed, queueID)
	return nil
}

func (c *fakeQueueClient) ListMissing(ctx context.Context, monitoredOnly bool) (arr.ListResult, error) {
	return arr.ListResult{}, nil
}

func (c *fakeQueueClient) ListUpgradable(ctx context.Context, monitoredOnly bool) (arr.ListResult, error) {
	return arr.ListResult{}, nil
}

func (c *fakeQueueClient) TriggerSearch(ctx context.Context, itemIDs []int64) (int64, error) {
	return 0, errors.New("not implemented")
}

func (c *fakeQueueClient) PollCommand(ctx context.Context, commandID int64) (arr.CommandStatus, error) {
	return arr.CommandCompleted, nil
}

func (c *fakeQueueClient) RefreshMetadata(ctx context.Context, entityID int64) error {
	return nil
}

type recordingNotifier struct {
	notifications.Service
	removals []string
}

func (n *recordingNotifier) NotifyStrikeRemoval(ctx context.Context, instance, title string, strikes int) error {
	n.removals = append(n.removals, title)
	return nil
}

func testSwaparrConfig() config.Swaparr {
	return config.Swaparr{
		Enabled:                true,
		MaxStrikes:             3,
		MaxDownloadTime:        30,
		CheckInterval:          600,
		RemoveFromClient:       true,
		ResetStrikesOnProgress: true,
		ProgressMetric:         "bytes",
	}
}

type managerFixture struct {
	manager  *strike.Manager
	store    *strike.Store
	client   *fakeQueueClient
	notifier *recordingNotifier
	now      time.Time
}

func newManagerFixture(t *testing.T, swaparr config.Swaparr, dryRun bool) *managerFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithSwaparr(swaparr))
	store := testsupport.MustOpenStrikeStore(t, cfg)

	client := &fakeQueueClient{}
	notifier := &recordingNotifier{Service: notifications.Noop()}
	f := &managerFixture{
		store:    store,
		client:   client,
		notifier: notifier,
		now:      time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	f.manager = strike.NewManager(
		cfg.Swaparr,
		store,
		map[string]arr.Client{"tv": client},
		nil,
		notifier,
		func() bool { return dryRun },
	)
	f.manager.SetClock(func() time.Time { return f.now })
	return f
}

func (f *managerFixture) tick(t *testing.T, advance time.Duration) strike.Summary {
	t.Helper()
	f.now = f.now.Add(advance)
	summary, err := f.manager.EvaluateInstance(context.Background(), "tv", f.client)
	if err != nil {
		t.Fatalf("EvaluateInstance failed: %v", err)
	}
	return summary
}

func stalledDownload() arr.Download {
	return arr.Download{
		ID:       7,
		Hash:     "hash-7",
		Title:    "Stalled Show S02E03",
		Size:     1000,
		SizeLeft: 600,
		Status:   "downloading",
	}
}

func TestFirstSightingEstablishesBaseline(t *testing.T) {
	f := newManagerFixture(t, testSwaparrConfig(), false)
	f.client.queue = []arr.Download{stalledDownload()}

	summary := f.tick(t, 0)
	if summary.Struck != 0 || summary.Removed != 0 {
		t.Fatalf("first sighting must not strike: %#v", summary)
	}

	record, err := f.store.Get(context.Background(), "tv", "hash-7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record == nil || record.Strikes != 0 || record.LastProgress != 400 {
		t.Fatalf("unexpected baseline record: %#v", record)
	}
}

func TestOneStrikePerTickUntilRemoval(t *testing.T) {
	f := newManagerFixture(t, testSwaparrConfig(), false)
	f.client.queue = []arr.Download{stalledDownload()}
	ctx := context.Background()

	f.tick(t, 0) // baseline

	for want := 1; want <= 2; want++ {
		summary := f.tick(t, 31*time.Minute)
		if summary.Struck != 1 {
			t.Fatalf("expected exactly one strike on tick %d: %#v", want, summary)
		}
		record, err := f.store.Get(ctx, "tv", "hash-7")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if record.Strikes != want {
			t.Fatalf("expected %d strikes, got %d", want, record.Strikes)
		}
	}

	// Third strike hits the maximum and triggers removal.
	summary := f.tick(t, 31*time.Minute)
	if summary.Struck != 1 || summary.Removed != 1 {
		t.Fatalf("expected strike and removal: %#v", summary)
	}
	if len(f.client.removed) != 1 || f.client.removed[0] != 7 {
		t.Fatalf("expected queue id 7 removed, got %v", f.client.removed)
	}
	record, err := f.store.Get(ctx, "tv", "hash-7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record != nil {
		t.Fatalf("record should be cleared after removal: %#v", record)
	}
	if len(f.notifier.removals) != 1 {
		t.Fatalf("expected one removal notification, got %d", len(f.notifier.removals))
	}
}

func TestDryRunSkipsRemovalButKeepsStrikes(t *testing.T) {
	f := newManagerFixture(t, testSwaparrConfig(), true)
	f.client.queue = []arr.Download{stalledDownload()}
	ctx := context.Background()

	f.tick(t, 0)
	for i := 0; i < 3; i++ {
		f.tick(t, 31*time.Minute)
	}

	if len(f.client.removed) != 0 {
		t.Fatalf("dry run must not remove downloads, got %v", f.client.removed)
	}
	record, err := f.store.Get(ctx, "tv", "hash-7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record == nil || record.Strikes != 3 {
		t.Fatalf("strike accrual should persist in dry run: %#v", record)
	}
	if len(f.notifier.removals) != 0 {
		t.Fatal("dry run must not notify removals")
	}
}

func TestProgressResetsStrikes(t *testing.T) {
	f := newManagerFixture(t, testSwaparrConfig(), false)
	download := stalledDownload()
	f.client.queue = []arr.Download{download}
	ctx := context.Background()

	f.tick(t, 0)
	f.tick(t, 31*time.Minute) // strike 1

	download.SizeLeft = 500 // progress advanced
	f.client.queue = []arr.Download{download}
	summary := f.tick(t, 31*time.Minute)
	if summary.Struck != 0 {
		t.Fatalf("progressing download must not be struck: %#v", summary)
	}

	record, err := f.store.Get(ctx, "tv", "hash-7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Strikes != 0 || record.LastProgress != 500 {
		t.Fatalf("expected reset strikes and updated progress: %#v", record)
	}

	// The progress timestamp moved, so the stall timer starts over.
	if summary := f.tick(t, 29*time.Minute); summary.Struck != 0 {
		t.Fatalf("stall timer should have restarted: %#v", summary)
	}
}

func TestLargeDownloadsAreIgnored(t *testing.T) {
	swaparr := testSwaparrConfig()
	swaparr.IgnoreAboveSize = "1 GB"
	f := newManagerFixture(t, swaparr, false)

	big := stalledDownload()
	big.Size = 2_000_000_000
	big.SizeLeft = 1_500_000_000
	f.client.queue = []arr.Download{big}

	summary := f.tick(t, 0)
	if summary.Skipped != 1 {
		t.Fatalf("oversized download should be skipped: %#v", summary)
	}
	record, err := f.store.Get(context.Background(), "tv", "hash-7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record != nil {
		t.Fatalf("skipped download must not be tracked: %#v", record)
	}
}

func TestPrivateDownloadsAreIgnoredWhenConfigured(t *testing.T) {
	swaparr := testSwaparrConfig()
	swaparr.IgnorePrivate = true
	f := newManagerFixture(t, swaparr, false)

	private := stalledDownload()
	private.IsPrivate = true
	f.client.queue = []arr.Download{private}

	summary := f.tick(t, 0)
	if summary.Skipped != 1 || summary.Struck != 0 {
		t.Fatalf("private download should be skipped: %#v", summary)
	}
}

func TestRemovalFailureKeepsRecordForRetry(t *testing.T) {
	f := newManagerFixture(t, testSwaparrConfig(), false)
	f.client.queue = []arr.Download{stalledDownload()}
	f.client.removeErr = errors.New("api down")
	ctx := context.Background()

	f.tick(t, 0)
	for i := 0; i < 3; i++ {
		f.tick(t, 31*time.Minute)
	}

	record, err := f.store.Get(ctx, "tv", "hash-7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record == nil || record.Strikes < 3 {
		t.Fatalf("failed removal should keep the record: %#v", record)
	}

	// The API recovers; the next tick retries the removal.
	f.client.removeErr = nil
	f.tick(t, 31*time.Minute)
	if len(f.client.removed) != 1 {
		t.Fatalf("expected removal retry to succeed, got %v", f.client.removed)
	}
}

func TestDepartedDownloadsArePruned(t *testing.T) {
	f := newManagerFixture(t, testSwaparrConfig(), false)
	f.client.queue = []arr.Download{stalledDownload()}

	f.tick(t, 0)
	f.client.queue = nil
	summary := f.tick(t, time.Minute)
	if summary.Pruned != 1 {
		t.Fatalf("expected departed download pruned: %#v", summary)
	}
}
