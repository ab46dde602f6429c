package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// MediaRoot is the base directory for stored media. The service keeps
	// content in media/, previews in media/thumbnails/, and scratch files
	// in media/tmp/ underneath it.
	MediaRoot string `toml:"media_root"`
	LogDir    string `toml:"log_dir"`
}

// Transport configures the messaging transport the outbox delivers to.
// When Endpoint is empty a noop deliverer is used and queued media stays
// pending until a real transport is configured.
type Transport struct {
	Endpoint       string `toml:"endpoint"`
	AuthToken      string `toml:"auth_token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Transfer contains outbox sweep timing configuration.
type Transfer struct {
	SweepInterval   int `toml:"sweep_interval"`
	CleanupInterval int `toml:"cleanup_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the outbox daemon.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Transport Transport `toml:"transport"`
	Transfer  Transfer  `toml:"transfer"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return expandPath("~/.config/mediaoutbox/config.toml")
}

// Load reads configuration from path, falling back to the default location
// and then to built-in defaults when no file exists. It returns the config,
// the path that was consulted, and whether a file was actually read.
func Load(path string) (*Config, string, bool, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultConfigPath()
	}
	resolved = expandPath(resolved)

	cfg := Default()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.normalize()
			if err := cfg.Validate(); err != nil {
				return nil, resolved, false, err
			}
			return &cfg, resolved, false, nil
		}
		return nil, resolved, false, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, resolved, true, fmt.Errorf("parse config %s: %w", resolved, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, true, err
	}
	return &cfg, resolved, true, nil
}

// WriteSample writes the embedded sample configuration to path, creating
// parent directories. It refuses to overwrite an existing file.
func WriteSample(path string) error {
	path = expandPath(strings.TrimSpace(path))
	if path == "" {
		return errors.New("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// MediaDir returns the permanent content directory.
func (c *Config) MediaDir() string {
	return filepath.Join(c.Paths.MediaRoot, "media")
}

// ThumbnailDir returns the thumbnail directory.
func (c *Config) ThumbnailDir() string {
	return filepath.Join(c.MediaDir(), "thumbnails")
}

// TempDir returns the scratch directory used during save pipelines.
func (c *Config) TempDir() string {
	return filepath.Join(c.MediaDir(), "tmp")
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.MediaRoot, "outbox.db")
}

// EnsureDirectories creates the directory layout. Safe to call repeatedly.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.MediaRoot,
		c.MediaDir(),
		c.ThumbnailDir(),
		c.TempDir(),
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			if path == "~" {
				return home
			}
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
