package main

import (
	"fmt"

	"mediaoutbox/internal/config"
	"mediaoutbox/internal/logging"
	"mediaoutbox/internal/mediastore"
	"mediaoutbox/internal/outbox"
	"mediaoutbox/internal/transfer"
)

// commandContext carries lazily loaded configuration and shared service
// construction for CLI commands.
type commandContext struct {
	configFlag *string
	cfg        *config.Config
	cfgPath    string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPathValue() string {
	if c.configFlag == nil {
		return ""
	}
	return *c.configFlag
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, _, err := config.Load(c.configPathValue())
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = path
	return cfg, nil
}

// services bundles the stack a CLI command talks to. The CLI always works
// against the store directly; the daemon lock only guards the background
// loop, not one-shot operations.
type services struct {
	cfg     *config.Config
	store   *outbox.Store
	media   *mediastore.Service
	manager *transfer.Manager
}

func (c *commandContext) withServices(fn func(*services) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store, err := outbox.Open(cfg)
	if err != nil {
		return fmt.Errorf("open outbox store: %w", err)
	}
	defer store.Close()

	logger := logging.NewNop()
	media := mediastore.New(cfg, store, logger)
	manager := transfer.NewManager(cfg, store, media, logger)

	return fn(&services{cfg: cfg, store: store, media: media, manager: manager})
}
