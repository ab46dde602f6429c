package transfer

import (
	"context"
	"fmt"
	"time"

	"mediaoutbox/internal/logging"
	"mediaoutbox/internal/outbox"
)

// Queue enqueues an artifact for transfer and nudges the sweep loop so a
// running daemon picks it up without waiting for the next tick.
func (m *Manager) Queue(ctx context.Context, artifactID string) (*outbox.Entry, error) {
	entry, err := m.store.Enqueue(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("artifact queued", logging.String("artifact", artifactID))
	m.TriggerSweep()
	return entry, nil
}

// Retry puts an unsent entry back into the pending queue. The retry count
// is preserved, so an entry that already used its attempts is parked as
// failed again by the next sweep instead of looping forever.
func (m *Manager) Retry(ctx context.Context, artifactID string) (*outbox.Entry, error) {
	entry, err := m.store.GetEntry(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("no outbox entry for artifact %s", artifactID)
	}
	if entry.State == outbox.StateSent || entry.State == outbox.StateReceived {
		return nil, fmt.Errorf("artifact %s is already %s", artifactID, entry.State)
	}

	entry.State = outbox.StatePending
	entry.ErrorMessage = ""
	if err := m.store.UpdateTransfer(ctx, entry); err != nil {
		return nil, err
	}
	m.logger.Info("entry queued for retry",
		logging.String("artifact", artifactID),
		logging.Int("retry_count", entry.RetryCount),
	)
	m.TriggerSweep()
	return entry, nil
}

// Cancel moves a non-terminal entry straight to failed without touching the
// stored artifact. Missing or already-terminal entries are a no-op.
func (m *Manager) Cancel(ctx context.Context, artifactID string) (bool, error) {
	entry, err := m.store.GetEntry(ctx, artifactID)
	if err != nil {
		return false, err
	}
	if entry == nil || entry.State.IsTerminal() {
		return false, nil
	}

	entry.State = outbox.StateFailed
	entry.ErrorMessage = "cancelled"
	if err := m.store.UpdateTransfer(ctx, entry); err != nil {
		return false, err
	}
	m.logger.Info("entry cancelled", logging.String("artifact", artifactID))
	return true, nil
}

// Pending returns the pending queue, oldest first.
func (m *Manager) Pending(ctx context.Context) ([]*outbox.Entry, error) {
	return m.store.EntriesByState(ctx, outbox.StatePending)
}

// Status returns entry counts grouped by transfer state.
func (m *Manager) Status(ctx context.Context) (outbox.StatsSummary, error) {
	return m.store.Stats(ctx)
}

// Cleanup purges entries whose retention window has passed as of now.
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	return m.CleanupAt(ctx, time.Now().UTC())
}

// CleanupAt purges entries expired at the given instant, removing the
// artifact's media files and records along with the entry. Returns the
// number of entries purged.
func (m *Manager) CleanupAt(ctx context.Context, now time.Time) (int, error) {
	expired, err := m.store.Expired(ctx, now)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, entry := range expired {
		if ctx.Err() != nil {
			return purged, ctx.Err()
		}
		if _, err := m.media.Delete(ctx, entry.ArtifactID); err != nil {
			m.logger.Warn("retention purge failed",
				logging.String("artifact", entry.ArtifactID),
				logging.Error(err),
			)
			continue
		}
		purged++
	}
	return purged, nil
}
