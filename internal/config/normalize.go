package config

import "strings"

// normalize expands tildes and fills zero values with defaults so that a
// partially specified config file behaves predictably.
func (c *Config) normalize() {
	c.Paths.MediaRoot = expandPath(c.Paths.MediaRoot)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)

	if c.Paths.MediaRoot == "" {
		c.Paths.MediaRoot = expandPath(defaultMediaRoot)
	}
	if c.Paths.LogDir == "" {
		c.Paths.LogDir = expandPath(defaultLogDir)
	}

	c.Transport.Endpoint = strings.TrimSpace(c.Transport.Endpoint)
	c.Transport.AuthToken = strings.TrimSpace(c.Transport.AuthToken)
	if c.Transport.RequestTimeout <= 0 {
		c.Transport.RequestTimeout = defaultTransportTimeoutSeconds
	}

	if c.Transfer.SweepInterval <= 0 {
		c.Transfer.SweepInterval = defaultSweepIntervalSeconds
	}
	if c.Transfer.CleanupInterval <= 0 {
		c.Transfer.CleanupInterval = defaultCleanupIntervalSeconds
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
