package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"mediaoutbox/internal/config"
	"mediaoutbox/internal/outbox"
)

// MustOpenStore opens an outbox.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *outbox.Store {
	t.Helper()

	store, err := outbox.Open(cfg)
	if err != nil {
		t.Fatalf("outbox.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewArtifact inserts a minimal photo artifact pointing at real files under
// the config's media directories and returns it.
func NewArtifact(t testing.TB, cfg *config.Config, store *outbox.Store, conversationID string) *outbox.Artifact {
	t.Helper()

	id := uuid.NewString()
	contentPath := MediaFile(t, cfg, id+".jpg", 2048)
	thumbPath := ThumbnailFile(t, cfg, id+".jpg", 256)

	artifact := &outbox.Artifact{
		ID:             id,
		Kind:           outbox.KindPhoto,
		ContentPath:    contentPath,
		ThumbnailPath:  thumbPath,
		ByteSize:       2048,
		Width:          1920,
		Height:         1080,
		Origin:         outbox.OriginCaptured,
		ConversationID: conversationID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := store.CreateArtifact(context.Background(), artifact); err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}
	return artifact
}
