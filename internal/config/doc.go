// Package config loads, normalizes, and validates the houndarr TOML
// configuration, including per-instance hunt settings, schedule windows,
// and the Swaparr stalled-download policy.
package config
