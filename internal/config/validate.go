package config

import (
	"fmt"
	"strings"
)

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks the configuration for values that would break the daemon.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.MediaRoot) == "" {
		return fmt.Errorf("config: paths.media_root must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("config: paths.log_dir must not be empty")
	}
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("config: logging.format %q is not one of console, json", c.Logging.Format)
	}
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("config: logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if c.Transport.Endpoint != "" && !strings.HasPrefix(c.Transport.Endpoint, "http://") && !strings.HasPrefix(c.Transport.Endpoint, "https://") {
		return fmt.Errorf("config: transport.endpoint %q must be an http(s) URL", c.Transport.Endpoint)
	}
	return nil
}
