package arr

import (
	"context"
	"time"
)

// AppKind identifies the flavor of media manager behind an instance.
type AppKind string

const (
	AppSonarr   AppKind = "sonarr"
	AppRadarr   AppKind = "radarr"
	AppLidarr   AppKind = "lidarr"
	AppReadarr  AppKind = "readarr"
	AppWhisparr AppKind = "whisparr"
)

// Item is one searchable library entry: an episode, movie, album, or book.
type Item struct {
	ID        int64
	Title     string
	Monitored bool

	// ReleaseDate is zero when the application does not report one.
	ReleaseDate time.Time
}

// Future reports whether the item's release date is after now.
func (i Item) Future(now time.Time) bool {
	return !i.ReleaseDate.IsZero() && i.ReleaseDate.After(now)
}

// Download is one entry in the application's download queue.
type Download struct {
	// ID is the queue record id used for removal requests.
	ID int64
	// Hash identifies the download across queue snapshots.
	Hash      string
	Title     string
	Size      int64
	SizeLeft  int64
	Status    string
	Protocol  string
	Indexer   string
	IsPrivate bool
}

// BytesDone returns the downloaded byte count.
func (d Download) BytesDone() int64 {
	done := d.Size - d.SizeLeft
	if done < 0 {
		return 0
	}
	return done
}

// PercentDone returns completion as a permille value so the percent
// progress metric still observes sub-percent movement on large files.
func (d Download) PercentDone() int64 {
	if d.Size <= 0 {
		return 0
	}
	return d.BytesDone() * 1000 / d.Size
}

// CommandStatus is the remote state of a triggered command.
type CommandStatus string

const (
	CommandQueued    CommandStatus = "queued"
	CommandStarted   CommandStatus = "started"
	CommandCompleted CommandStatus = "completed"
	CommandFailed    CommandStatus = "failed"
	CommandAborted   CommandStatus = "aborted"
)

// Terminal reports whether the status will no longer change.
func (s CommandStatus) Terminal() bool {
	switch s {
	case CommandCompleted, CommandFailed, CommandAborted:
		return true
	}
	return false
}

// ListResult carries a page of decoded items plus the count of records
// that were skipped because they could not be decoded.
type ListResult struct {
	Items   []Item
	Skipped int
}

// Client is the remote API surface the hunting core consumes.
type Client interface {
	ListMissing(ctx context.Context, monitoredOnly bool) (ListResult, error)
	ListUpgradable(ctx context.Context, monitoredOnly bool) (ListResult, error)
	TriggerSearch(ctx context.Context, itemIDs []int64) (int64, error)
	PollCommand(ctx context.Context, commandID int64) (CommandStatus, error)
	RefreshMetadata(ctx context.Context, entityID int64) error
	ListQueue(ctx context.Context) ([]Download, error)
	RemoveDownload(ctx context.Context, queueID int64, removeFromClient bool) error
}
