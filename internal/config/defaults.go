package config

const (
	defaultStateDir  = "~/.local/share/houndarr/state"
	defaultLogDir    = "~/.local/share/houndarr/logs"
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
	defaultAPIBind   = "127.0.0.1:9705"

	defaultNtfyRequestTimeout = 10

	defaultHuntMissingItems        = 1
	defaultHuntUpgradeItems        = 0
	defaultSleepDuration           = 900
	defaultHourlyAPICap            = 20
	defaultStateResetIntervalHours = 168
	defaultSelection               = "random"
	defaultCommandWaitDelay        = 5
	defaultCommandWaitAttempts     = 12

	defaultSwaparrMaxStrikes      = 3
	defaultSwaparrMaxDownloadTime = 120
	defaultSwaparrIgnoreAboveSize = "25 GB"
	defaultSwaparrCheckInterval   = 600
	defaultSwaparrProgressMetric  = "bytes"

	// minEnforcedStrikes is the floor applied to max_strikes whenever
	// Swaparr is enabled with a non-zero value.
	minEnforcedStrikes = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		StateDir:           defaultStateDir,
		LogDir:             defaultLogDir,
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
		APIBind:            defaultAPIBind,
		NtfyRequestTimeout: defaultNtfyRequestTimeout,
		Swaparr: Swaparr{
			MaxStrikes:             defaultSwaparrMaxStrikes,
			MaxDownloadTime:        defaultSwaparrMaxDownloadTime,
			IgnoreAboveSize:        defaultSwaparrIgnoreAboveSize,
			CheckInterval:          defaultSwaparrCheckInterval,
			ProgressMetric:         defaultSwaparrProgressMetric,
			ResetStrikesOnProgress: true,
			RemoveFromClient:       true,
		},
	}
}

// DefaultInstance returns an Instance seeded with per-instance defaults.
// TOML decoding overlays user values on top of it.
func DefaultInstance() Instance {
	return Instance{
		Enabled:                 true,
		HuntMissingItems:        defaultHuntMissingItems,
		HuntUpgradeItems:        defaultHuntUpgradeItems,
		SleepDuration:           defaultSleepDuration,
		HourlyAPICap:            defaultHourlyAPICap,
		StateResetIntervalHours: defaultStateResetIntervalHours,
		MonitoredOnly:           true,
		Selection:               defaultSelection,
		CommandWaitDelay:        defaultCommandWaitDelay,
		CommandWaitAttempts:     defaultCommandWaitAttempts,
	}
}
