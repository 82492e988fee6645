package logging

import "log/slog"

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldInstance is the standardized structured logging key for instance names.
	FieldInstance = "instance"
	// FieldCycleID is the standardized structured logging key for hunt cycle identifiers.
	FieldCycleID = "cycle_id"
	// FieldPhase is the standardized structured logging key for cycle phases.
	FieldPhase = "phase"
	// FieldApp is the standardized structured logging key for media manager kinds.
	FieldApp = "app"
	// FieldDownload is the standardized structured logging key for download hashes.
	FieldDownload = "download"
)

// WithInstance returns a logger scoped to a named instance.
func WithInstance(logger *slog.Logger, instance string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldInstance, instance))
}
