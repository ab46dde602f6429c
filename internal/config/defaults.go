package config

const (
	defaultMediaRoot               = "~/.local/share/mediaoutbox"
	defaultLogDir                  = "~/.local/share/mediaoutbox/logs"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultSweepIntervalSeconds    = 30
	defaultCleanupIntervalSeconds  = 3600
	defaultTransportTimeoutSeconds = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MediaRoot: defaultMediaRoot,
			LogDir:    defaultLogDir,
		},
		Transport: Transport{
			RequestTimeout: defaultTransportTimeoutSeconds,
		},
		Transfer: Transfer{
			SweepInterval:   defaultSweepIntervalSeconds,
			CleanupInterval: defaultCleanupIntervalSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
