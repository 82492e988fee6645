package ipc

import "houndarr/internal/api"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse carries the combined daemon snapshot.
type StatusResponse struct {
	Status api.DaemonStatus `json:"status"`
}

// PauseRequest pauses hunting globally or for one instance.
type PauseRequest struct {
	Instance string `json:"instance"`
}

// PauseResponse acknowledges a pause change.
type PauseResponse struct {
	Paused bool `json:"paused"`
}

// ResumeRequest resumes hunting globally or for one instance.
type ResumeRequest struct {
	Instance string `json:"instance"`
}

// ResumeResponse acknowledges a resume.
type ResumeResponse struct {
	Paused bool `json:"paused"`
}

// ForceRunRequest queues a force-run for one instance.
type ForceRunRequest struct {
	Instance string `json:"instance"`
}

// ForceRunResponse acknowledges the queued signal.
type ForceRunResponse struct {
	Queued bool `json:"queued"`
}

// ResetRequest clears processed-item state for one instance, or all
// instances when Instance is empty.
type ResetRequest struct {
	Instance string `json:"instance"`
}

// ResetResponse reports the number of cleared records.
type ResetResponse struct {
	Removed int64 `json:"removed"`
}

// DryRunRequest toggles the global dry-run flag.
type DryRunRequest struct {
	Enabled bool `json:"enabled"`
}

// DryRunResponse acknowledges the toggle.
type DryRunResponse struct {
	Enabled bool `json:"enabled"`
}

// StrikesRequest lists strike records, optionally for one instance.
type StrikesRequest struct {
	Instance string `json:"instance"`
}

// StrikesResponse carries strike records.
type StrikesResponse struct {
	Records []api.StrikeRecord `json:"records"`
}

// TestNotificationRequest sends a probe notification.
type TestNotificationRequest struct{}

// TestNotificationResponse acknowledges delivery.
type TestNotificationResponse struct {
	Sent bool `json:"sent"`
}
