package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const artifactColumns = "id, kind, content_path, thumbnail_path, byte_size, width, height, duration_seconds, origin, sender_identity, sender_display_name, conversation_id, created_at"

// CreateArtifact inserts a new artifact record. The caller guarantees the
// content (and photo thumbnail) files already exist on disk.
func (s *Store) CreateArtifact(ctx context.Context, artifact *Artifact) error {
	if artifact == nil {
		return errors.New("artifact is nil")
	}
	if artifact.ID == "" {
		return errors.New("artifact id is empty")
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO artifacts (`+artifactColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.ID,
		artifact.Kind,
		artifact.ContentPath,
		nullableString(artifact.ThumbnailPath),
		artifact.ByteSize,
		artifact.Width,
		artifact.Height,
		artifact.DurationSeconds,
		artifact.Origin,
		nullableString(artifact.SenderIdentity),
		nullableString(artifact.SenderDisplayName),
		artifact.ConversationID,
		artifact.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// GetArtifact fetches an artifact by identifier, returning nil when absent.
func (s *Store) GetArtifact(ctx context.Context, id string) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id)
	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return artifact, nil
}

// ArtifactsByConversation returns artifacts for a conversation ordered by
// creation time.
func (s *Store) ArtifactsByConversation(ctx context.Context, conversationID string) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE conversation_id = ? ORDER BY created_at`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query artifacts by conversation: %w", err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

// DeleteArtifact removes an artifact record. Missing records are not an
// error; the bool reports whether a row was deleted.
func (s *Store) DeleteArtifact(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete artifact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*Artifact, error) {
	var (
		id            string
		kind          string
		contentPath   string
		thumbnailPath sql.NullString
		byteSize      int64
		width         int
		height        int
		duration      float64
		origin        string
		senderID      sql.NullString
		senderName    sql.NullString
		conversation  string
		createdRaw    string
	)

	if err := scanner.Scan(
		&id,
		&kind,
		&contentPath,
		&thumbnailPath,
		&byteSize,
		&width,
		&height,
		&duration,
		&origin,
		&senderID,
		&senderName,
		&conversation,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	artifact := &Artifact{
		ID:                id,
		Kind:              Kind(kind),
		ContentPath:       contentPath,
		ThumbnailPath:     thumbnailPath.String,
		ByteSize:          byteSize,
		Width:             width,
		Height:            height,
		DurationSeconds:   duration,
		Origin:            Origin(origin),
		SenderIdentity:    senderID.String,
		SenderDisplayName: senderName.String,
		ConversationID:    conversation,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		artifact.CreatedAt = created
	}
	return artifact, nil
}
