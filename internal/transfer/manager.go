package transfer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mediaoutbox/internal/config"
	"mediaoutbox/internal/delivery"
	"mediaoutbox/internal/logging"
	"mediaoutbox/internal/mediastore"
	"mediaoutbox/internal/outbox"
)

// MaxRetries is how many delivery attempts an entry gets before it is
// parked in the failed state.
const MaxRetries = 5

// retryBackoff holds the wait before attempt n+1, indexed by attempts
// already made (capped at the last slot).
var retryBackoff = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	30 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
}

// ErrSweepActive is returned when a sweep is requested while another sweep
// is still running. At most one sweep touches the queue at a time.
var ErrSweepActive = errors.New("sweep already in progress")

// Manager drives outbox entries through the transfer state machine. It owns
// the queue-side state column; callers own only the phase column.
type Manager struct {
	cfg       *config.Config
	store     *outbox.Store
	media     *mediastore.Service
	deliverer delivery.Deliverer
	logger    *slog.Logger

	sweepInterval   time.Duration
	cleanupInterval time.Duration
	wake            chan struct{}

	sweeping atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a transfer manager with the deliverer the config
// asks for.
func NewManager(cfg *config.Config, store *outbox.Store, media *mediastore.Service, logger *slog.Logger) *Manager {
	return NewManagerWithDeliverer(cfg, store, media, logger, delivery.NewFromConfig(cfg, logger))
}

// NewManagerWithDeliverer constructs a transfer manager with a custom
// deliverer (used in tests).
func NewManagerWithDeliverer(cfg *config.Config, store *outbox.Store, media *mediastore.Service, logger *slog.Logger, deliverer delivery.Deliverer) *Manager {
	sweep := time.Duration(cfg.Transfer.SweepInterval) * time.Second
	if sweep <= 0 {
		sweep = 30 * time.Second
	}
	cleanup := time.Duration(cfg.Transfer.CleanupInterval) * time.Second
	if cleanup <= 0 {
		cleanup = time.Hour
	}
	return &Manager{
		cfg:             cfg,
		store:           store,
		media:           media,
		deliverer:       deliverer,
		logger:          logging.WithComponent(logger, "transfer"),
		sweepInterval:   sweep,
		cleanupInterval: cleanup,
		wake:            make(chan struct{}, 1),
	}
}

// Start begins background sweeping. Entries stranded in the sending state
// by an earlier crash are put back to pending before the first sweep.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("transfer manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	if err := m.reclaimStranded(runCtx); err != nil {
		m.logger.Warn("reclaim of stranded sending entries failed", logging.Error(err))
	}

	go m.run(runCtx)
	return nil
}

// Stop terminates background sweeping and waits for the loop to exit. Safe
// to call repeatedly.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// TriggerSweep asks the background loop for an immediate sweep. A trigger
// while one is already queued is absorbed.
func (m *Manager) TriggerSweep() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	sweepTicker := time.NewTicker(m.sweepInterval)
	defer sweepTicker.Stop()
	cleanupTicker := time.NewTicker(m.cleanupInterval)
	defer cleanupTicker.Stop()

	// Catch up on retention immediately so a rarely-running daemon does
	// not hold expired media for another full interval.
	if purged, err := m.Cleanup(ctx); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("startup retention cleanup failed", logging.Error(err))
	} else if purged > 0 {
		m.logger.Info("startup retention cleanup purged entries", logging.Int("purged", purged))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepTicker.C:
			m.sweepAndLog(ctx)
		case <-m.wake:
			m.sweepAndLog(ctx)
		case <-cleanupTicker.C:
			if purged, err := m.Cleanup(ctx); err != nil {
				m.logger.Error("retention cleanup failed", logging.Error(err))
			} else if purged > 0 {
				m.logger.Info("retention cleanup purged entries", logging.Int("purged", purged))
			}
		}
	}
}

func (m *Manager) sweepAndLog(ctx context.Context) {
	result, err := m.Sweep(ctx)
	switch {
	case errors.Is(err, ErrSweepActive):
		m.logger.Debug("sweep skipped, previous sweep still running")
	case err != nil:
		m.logger.Error("sweep failed", logging.Error(err))
	case result.Attempted > 0 || result.Exhausted > 0:
		m.logger.Info("sweep finished",
			logging.Int("attempted", result.Attempted),
			logging.Int("delivered", result.Delivered),
			logging.Int("failed", result.Failed),
			logging.Int("exhausted", result.Exhausted),
		)
	}
}

// reclaimStranded resets entries stuck in the sending state. A sending
// entry can only exist while a sweep is live, so any found at startup are
// leftovers from an unclean shutdown.
func (m *Manager) reclaimStranded(ctx context.Context) error {
	stranded, err := m.store.EntriesByState(ctx, outbox.StateSending)
	if err != nil {
		return err
	}
	for _, entry := range stranded {
		entry.State = outbox.StatePending
		if err := m.store.UpdateTransfer(ctx, entry); err != nil {
			return err
		}
		m.logger.Warn("reset stranded sending entry", logging.String("artifact", entry.ArtifactID))
	}
	return nil
}
