package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const entryColumns = "artifact_id, conversation_id, state, phase, retry_count, last_attempt_at, created_at, expires_at, encryption_key, encryption_nonce, error_message, updated_at"

// Enqueue creates a pending outbox entry for an existing artifact. The
// retention window is anchored at the entry's creation time.
func (s *Store) Enqueue(ctx context.Context, artifactID string) (*Entry, error) {
	artifact, err := s.GetArtifact(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, fmt.Errorf("enqueue: artifact %s not found", artifactID)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO outbox_entries (
            artifact_id, conversation_id, state, phase, retry_count,
            created_at, expires_at, updated_at
        ) VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		artifactID,
		artifact.ConversationID,
		StatePending,
		PhaseReady,
		timestamp,
		now.Add(RetentionPeriod).Format(time.RFC3339Nano),
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert outbox entry: %w", err)
	}

	return s.GetEntry(ctx, artifactID)
}

// GetEntry fetches an outbox entry by artifact identifier, nil when absent.
func (s *Store) GetEntry(ctx context.Context, artifactID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM outbox_entries WHERE artifact_id = ?`, artifactID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get outbox entry: %w", err)
	}
	return entry, nil
}

// EntriesByState returns entries in a transfer state, oldest first.
func (s *Store) EntriesByState(ctx context.Context, state State) ([]*Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM outbox_entries WHERE state = ? ORDER BY created_at`,
		state,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries by state: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// Expired returns entries whose retention window has passed, regardless of
// transfer state.
func (s *Store) Expired(ctx context.Context, now time.Time) ([]*Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM outbox_entries WHERE expires_at <= ? ORDER BY created_at`,
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query expired entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// UpdateTransfer persists the queue-owned fields of an entry: state, retry
// bookkeeping, and the last error. The caller-owned phase is untouched.
func (s *Store) UpdateTransfer(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	entry.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE outbox_entries
         SET state = ?, retry_count = ?, last_attempt_at = ?, error_message = ?, updated_at = ?
         WHERE artifact_id = ?`,
		entry.State,
		entry.RetryCount,
		nullableTime(entry.LastAttemptAt),
		nullableString(entry.ErrorMessage),
		entry.UpdatedAt.Format(time.RFC3339Nano),
		entry.ArtifactID,
	)
	if err != nil {
		return fmt.Errorf("update outbox entry: %w", err)
	}
	return nil
}

// SetPhase updates the caller-owned pipeline phase for progress display.
func (s *Store) SetPhase(ctx context.Context, artifactID string, phase Phase) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE outbox_entries SET phase = ?, updated_at = ? WHERE artifact_id = ?`,
		phase,
		time.Now().UTC().Format(time.RFC3339Nano),
		artifactID,
	)
	if err != nil {
		return fmt.Errorf("set phase: %w", err)
	}
	return nil
}

// SetEncryption stores the opaque key material produced by the encryption
// step. The store does not interpret it.
func (s *Store) SetEncryption(ctx context.Context, artifactID string, key, nonce []byte) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE outbox_entries SET encryption_key = ?, encryption_nonce = ?, updated_at = ? WHERE artifact_id = ?`,
		nullableBytes(key),
		nullableBytes(nonce),
		time.Now().UTC().Format(time.RFC3339Nano),
		artifactID,
	)
	if err != nil {
		return fmt.Errorf("set encryption: %w", err)
	}
	return nil
}

// MarkReceived records a completed inbound transfer.
func (s *Store) MarkReceived(ctx context.Context, artifactID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE outbox_entries SET state = ?, updated_at = ? WHERE artifact_id = ?`,
		StateReceived,
		time.Now().UTC().Format(time.RFC3339Nano),
		artifactID,
	)
	if err != nil {
		return fmt.Errorf("mark received: %w", err)
	}
	return nil
}

// RemoveEntry deletes an outbox entry. Missing records are not an error.
func (s *Store) RemoveEntry(ctx context.Context, artifactID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM outbox_entries WHERE artifact_id = ?`, artifactID)
	if err != nil {
		return false, fmt.Errorf("delete outbox entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns entry counts grouped by transfer state.
func (s *Store) Stats(ctx context.Context) (StatsSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM outbox_entries GROUP BY state`)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("outbox stats: %w", err)
	}
	defer rows.Close()

	var summary StatsSummary
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return StatsSummary{}, err
		}
		summary.Total += count
		switch state {
		case StatePending:
			summary.Pending += count
		case StateSending:
			summary.Sending += count
		case StateSent:
			summary.Sent += count
		case StateReceived:
			summary.Received += count
		case StateFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

func collectEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		artifactID     string
		conversationID string
		stateStr       string
		phaseStr       string
		retryCount     int
		lastAttemptRaw sql.NullString
		createdRaw     string
		expiresRaw     string
		key            []byte
		nonce          []byte
		errorMessage   sql.NullString
		updatedRaw     string
	)

	if err := scanner.Scan(
		&artifactID,
		&conversationID,
		&stateStr,
		&phaseStr,
		&retryCount,
		&lastAttemptRaw,
		&createdRaw,
		&expiresRaw,
		&key,
		&nonce,
		&errorMessage,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ArtifactID:      artifactID,
		ConversationID:  conversationID,
		State:           State(stateStr),
		Phase:           Phase(phaseStr),
		RetryCount:      retryCount,
		EncryptionKey:   key,
		EncryptionNonce: nonce,
		ErrorMessage:    errorMessage.String,
	}
	if lastAttemptRaw.Valid {
		if attempt, err := parseTimeString(lastAttemptRaw.String); err == nil {
			entry.LastAttemptAt = attempt
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	if expires, err := parseTimeString(expiresRaw); err == nil {
		entry.ExpiresAt = expires
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}
