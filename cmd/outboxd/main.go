package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"mediaoutbox/internal/config"
	"mediaoutbox/internal/daemon"
	"mediaoutbox/internal/logging"
	"mediaoutbox/internal/mediastore"
	"mediaoutbox/internal/outbox"
	"mediaoutbox/internal/transfer"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := outbox.Open(cfg)
	if err != nil {
		logger.Error("open outbox store", logging.Error(err))
		return
	}

	media := mediastore.New(cfg, store, logger)
	manager := transfer.NewManager(cfg, store, media, logger)

	d, err := daemon.New(cfg, store, media, manager, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("outboxd shutting down")
}
