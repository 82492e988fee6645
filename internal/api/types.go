package api

import (
	"time"

	"houndarr/internal/scheduler"
	"houndarr/internal/strike"
)

// InstanceStatus mirrors scheduler.InstanceStatus for external consumers.
type InstanceStatus struct {
	Name    string `json:"name"`
	App     string `json:"app"`
	Enabled bool   `json:"enabled"`

	Phase       string `json:"phase"`
	LastRun     string `json:"last_run,omitempty"`
	LastCycleID string `json:"last_cycle_id,omitempty"`
	LastError   string `json:"last_error,omitempty"`

	Unconfigured bool `json:"unconfigured"`
	Paused       bool `json:"paused"`

	RateUsed int `json:"rate_used"`
	RateCap  int `json:"rate_cap"`

	LastMissingSearched int `json:"last_missing_searched"`
	LastUpgradeSearched int `json:"last_upgrade_searched"`
}

// DaemonStatus is the combined daemon snapshot.
type DaemonStatus struct {
	Running        bool             `json:"running"`
	PID            int              `json:"pid"`
	GloballyPaused bool             `json:"globally_paused"`
	DryRun         bool             `json:"dry_run"`
	SwaparrEnabled bool             `json:"swaparr_enabled"`
	LockPath       string           `json:"lock_path"`
	StateDBPath    string           `json:"state_db_path"`
	Instances      []InstanceStatus `json:"instances"`
}

// StrikeRecord mirrors strike.Record for external consumers.
type StrikeRecord struct {
	Instance      string `json:"instance"`
	Hash          string `json:"hash"`
	Title         string `json:"title"`
	Strikes       int    `json:"strikes"`
	LastProgress  int64  `json:"last_progress"`
	LastCheckedAt string `json:"last_checked_at"`
	IsPrivate     bool   `json:"is_private"`
}

// ConvertInstanceStatus maps a scheduler snapshot to its DTO.
func ConvertInstanceStatus(status scheduler.InstanceStatus, paused bool) InstanceStatus {
	converted := InstanceStatus{
		Name:                status.Name,
		App:                 status.App,
		Enabled:             status.Enabled,
		Phase:               string(status.Phase),
		LastCycleID:         status.LastCycleID,
		LastError:           status.LastError,
		Unconfigured:        status.Unconfigured,
		Paused:              paused,
		RateUsed:            status.RateUsed,
		RateCap:             status.RateCap,
		LastMissingSearched: status.LastMissingSearched,
		LastUpgradeSearched: status.LastUpgradeSearched,
	}
	if !status.LastRun.IsZero() {
		converted.LastRun = status.LastRun.UTC().Format(time.RFC3339)
	}
	return converted
}

// ConvertStrikeRecord maps a strike store record to its DTO.
func ConvertStrikeRecord(record strike.Record) StrikeRecord {
	return StrikeRecord{
		Instance:      record.Instance,
		Hash:          record.Hash,
		Title:         record.Title,
		Strikes:       record.Strikes,
		LastProgress:  record.LastProgress,
		LastCheckedAt: record.LastCheckedAt.UTC().Format(time.RFC3339),
		IsPrivate:     record.IsPrivate,
	}
}
