package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"mediaoutbox/internal/config"
	"mediaoutbox/internal/logging"
	"mediaoutbox/internal/mediastore"
	"mediaoutbox/internal/outbox"
	"mediaoutbox/internal/transfer"
)

var photoExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {},
	".mov": {},
}

// Daemon wires the media store and transfer manager together and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *outbox.Store
	media    *mediastore.Service
	transfer *transfer.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Queue        outbox.StatsSummary
	UsageBytes   int64
	FreeBytes    int64
	StorageLow   bool
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *outbox.Store, media *mediastore.Service, manager *transfer.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || media == nil || manager == nil {
		return nil, errors.New("daemon requires config, store, media service, and transfer manager")
	}

	lockPath := filepath.Join(cfg.Paths.MediaRoot, "outboxd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		media:    media,
		transfer: manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the transfer manager.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another outbox daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.transfer.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start transfer manager: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("outbox daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.transfer.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("outbox daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// AddFile ingests a media file: it is saved through the transform pipeline
// and queued for transfer. The media kind is inferred from the extension.
func (d *Daemon) AddFile(ctx context.Context, sourcePath, conversationID string) (*outbox.Entry, error) {
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}

	if d.media.IsStorageLow() {
		d.logger.Warn("free space is low", logging.String("source", absPath))
	}

	ext := strings.ToLower(filepath.Ext(info.Name()))
	var artifact *outbox.Artifact
	switch {
	case hasExtension(photoExtensions, ext):
		artifact, err = d.media.SavePhoto(ctx, absPath, conversationID, outbox.OriginImported, nil)
	case hasExtension(videoExtensions, ext):
		artifact, err = d.media.SaveVideo(ctx, absPath, conversationID, outbox.OriginImported, nil)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	entry, err := d.transfer.Queue(ctx, artifact.ID)
	if err != nil {
		return nil, fmt.Errorf("queue imported artifact: %w", err)
	}
	d.logger.Info("file ingested", logging.String("artifact", artifact.ID), logging.String("source", absPath))
	return entry, nil
}

// Status returns the current daemon status. Storage figures are best-effort
// and reported as zero when unavailable.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
	if summary, err := d.transfer.Status(ctx); err == nil {
		status.Queue = summary
	}
	if usage, err := d.media.Usage(); err == nil {
		status.UsageBytes = usage
	}
	if free, err := d.media.AvailableStorage(); err == nil {
		status.FreeBytes = free
	}
	status.StorageLow = d.media.IsStorageLow()
	return status
}

func hasExtension(set map[string]struct{}, ext string) bool {
	_, ok := set[ext]
	return ok
}
