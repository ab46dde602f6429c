// Package config loads, normalizes, and validates daemon configuration.
//
// Configuration lives in a TOML file (default
// ~/.config/mediaoutbox/config.toml). Missing files are not an error;
// built-in defaults apply so the daemon can run unconfigured with delivery
// disabled. Directory paths support ~ expansion and are created on demand
// through EnsureDirectories.
package config
