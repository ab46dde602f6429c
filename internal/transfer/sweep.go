package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediaoutbox/internal/delivery"
	"mediaoutbox/internal/logging"
	"mediaoutbox/internal/outbox"
)

// SweepResult summarizes one pass over the pending queue.
type SweepResult struct {
	Attempted int
	Delivered int
	Failed    int
	Exhausted int
}

// Sweep walks pending entries once: entries out of retries are parked as
// failed without a delivery attempt, eligible entries are delivered, and
// entries still inside their backoff window are left alone. Only one sweep
// runs at a time; a concurrent call returns ErrSweepActive.
func (m *Manager) Sweep(ctx context.Context) (SweepResult, error) {
	if !m.sweeping.CompareAndSwap(false, true) {
		return SweepResult{}, ErrSweepActive
	}
	defer m.sweeping.Store(false)

	pending, err := m.store.EntriesByState(ctx, outbox.StatePending)
	if err != nil {
		return SweepResult{}, err
	}

	var result SweepResult
	now := time.Now().UTC()
	for _, entry := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if entry.Expired(now) {
			// Retention cleanup owns expired entries.
			continue
		}
		if entry.RetryCount >= MaxRetries {
			entry.State = outbox.StateFailed
			if entry.ErrorMessage == "" {
				entry.ErrorMessage = "retry limit reached"
			}
			if err := m.store.UpdateTransfer(ctx, entry); err != nil {
				return result, err
			}
			result.Exhausted++
			m.logger.Warn("entry out of retries, parked as failed", logging.String("artifact", entry.ArtifactID))
			continue
		}
		if !eligible(entry, now) {
			continue
		}

		result.Attempted++
		delivered, err := m.deliverEntry(ctx, entry)
		if err != nil {
			return result, err
		}
		if delivered {
			result.Delivered++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

// eligible reports whether a pending entry may be attempted now. First
// attempts are always eligible; retries wait out the backoff window
// anchored at the previous attempt.
func eligible(entry *outbox.Entry, now time.Time) bool {
	if entry.RetryCount == 0 {
		return true
	}
	return !now.Before(entry.LastAttemptAt.Add(backoffDelay(entry.RetryCount)))
}

// backoffDelay returns the wait after the given number of attempts.
func backoffDelay(attempts int) time.Duration {
	if attempts < 1 {
		return 0
	}
	idx := attempts - 1
	if idx >= len(retryBackoff) {
		idx = len(retryBackoff) - 1
	}
	return retryBackoff[idx]
}

// deliverEntry runs one delivery attempt. The returned error covers store
// failures only; delivery failures are recorded on the entry. The bool
// reports whether the entry reached the sent state.
func (m *Manager) deliverEntry(ctx context.Context, entry *outbox.Entry) (bool, error) {
	artifact, err := m.store.GetArtifact(ctx, entry.ArtifactID)
	if err != nil {
		return false, err
	}
	if artifact == nil {
		entry.State = outbox.StateFailed
		entry.ErrorMessage = "artifact record missing"
		return false, m.store.UpdateTransfer(ctx, entry)
	}

	priorAttempt := entry.LastAttemptAt
	entry.State = outbox.StateSending
	if err := m.store.UpdateTransfer(ctx, entry); err != nil {
		return false, err
	}

	deliverErr := m.attempt(ctx, entry, artifact)
	now := time.Now().UTC()

	switch {
	case deliverErr == nil:
		entry.State = outbox.StateSent
		entry.LastAttemptAt = now
		entry.ErrorMessage = ""
	case errors.Is(deliverErr, delivery.ErrNotConfigured):
		// No transport yet: hold the entry without burning a retry.
		entry.State = outbox.StatePending
		entry.LastAttemptAt = priorAttempt
		entry.ErrorMessage = deliverErr.Error()
	default:
		entry.RetryCount++
		entry.LastAttemptAt = now
		entry.ErrorMessage = deliverErr.Error()
		if entry.RetryCount >= MaxRetries {
			entry.State = outbox.StateFailed
		} else {
			entry.State = outbox.StatePending
		}
		m.logger.Warn("delivery attempt failed",
			logging.String("artifact", entry.ArtifactID),
			logging.Int("retry_count", entry.RetryCount),
			logging.Error(deliverErr),
		)
	}

	if err := m.store.UpdateTransfer(ctx, entry); err != nil {
		return false, err
	}
	return entry.State == outbox.StateSent, nil
}

// attempt invokes the deliverer with panic containment so a misbehaving
// transport cannot take down the sweep loop.
func (m *Manager) attempt(ctx context.Context, entry *outbox.Entry, artifact *outbox.Artifact) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("deliverer panicked: %v", r)
		}
	}()
	return m.deliverer.Deliver(ctx, entry, artifact)
}
