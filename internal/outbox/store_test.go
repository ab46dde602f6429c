package outbox_test

import (
	"context"
	"testing"
	"time"

	"mediaoutbox/internal/outbox"
	"mediaoutbox/internal/testsupport"
)

func TestEnqueueCreatesPendingEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	artifact := testsupport.NewArtifact(t, cfg, store, "conv-1")
	entry, err := store.Enqueue(ctx, artifact.ID)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if entry.State != outbox.StatePending {
		t.Fatalf("expected pending state, got %s", entry.State)
	}
	if entry.Phase != outbox.PhaseReady {
		t.Fatalf("expected ready phase, got %s", entry.Phase)
	}
	if entry.RetryCount != 0 {
		t.Fatalf("expected zero retry count, got %d", entry.RetryCount)
	}
	if !entry.LastAttemptAt.IsZero() {
		t.Fatal("expected zero last attempt time")
	}
	wantExpiry := entry.CreatedAt.Add(outbox.RetentionPeriod)
	if diff := entry.ExpiresAt.Sub(wantExpiry); diff < -time.Second || diff > time.Second {
		t.Fatalf("expires_at not anchored at created_at + retention: %v vs %v", entry.ExpiresAt, wantExpiry)
	}
	if entry.ConversationID != "conv-1" {
		t.Fatalf("conversation id not copied: %q", entry.ConversationID)
	}
}

func TestEnqueueUnknownArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.Enqueue(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown artifact")
	}
}

func TestEntriesByStateOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewArtifact(t, cfg, store, "conv-1")
	second := testsupport.NewArtifact(t, cfg, store, "conv-1")

	firstEntry, err := store.Enqueue(ctx, first.ID)
	if err != nil {
		t.Fatalf("Enqueue first: %v", err)
	}
	// Force distinct created_at ordering.
	time.Sleep(5 * time.Millisecond)
	if _, err := store.Enqueue(ctx, second.ID); err != nil {
		t.Fatalf("Enqueue second: %v", err)
	}

	pending, err := store.EntriesByState(ctx, outbox.StatePending)
	if err != nil {
		t.Fatalf("EntriesByState: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(pending))
	}
	if pending[0].ArtifactID != firstEntry.ArtifactID {
		t.Fatal("expected FIFO order by created_at")
	}
}

func TestUpdateTransferRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	artifact := testsupport.NewArtifact(t, cfg, store, "conv-1")
	entry, err := store.Enqueue(ctx, artifact.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	entry.State = outbox.StateSending
	entry.RetryCount = 2
	entry.LastAttemptAt = time.Now().UTC()
	entry.ErrorMessage = "transport unreachable"
	if err := store.UpdateTransfer(ctx, entry); err != nil {
		t.Fatalf("UpdateTransfer: %v", err)
	}

	fetched, err := store.GetEntry(ctx, artifact.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if fetched.State != outbox.StateSending || fetched.RetryCount != 2 {
		t.Fatalf("transfer fields not persisted: %+v", fetched)
	}
	if fetched.LastAttemptAt.IsZero() {
		t.Fatal("last attempt time not persisted")
	}
	if fetched.ErrorMessage != "transport unreachable" {
		t.Fatalf("error message not persisted: %q", fetched.ErrorMessage)
	}
}

func TestPhaseAndEncryptionAreIndependent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	artifact := testsupport.NewArtifact(t, cfg, store, "conv-1")
	if _, err := store.Enqueue(ctx, artifact.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := store.SetPhase(ctx, artifact.ID, outbox.PhaseEncrypting); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}
	if err := store.SetEncryption(ctx, artifact.ID, []byte("key"), []byte("nonce")); err != nil {
		t.Fatalf("SetEncryption: %v", err)
	}

	entry, err := store.GetEntry(ctx, artifact.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if entry.Phase != outbox.PhaseEncrypting {
		t.Fatalf("phase not persisted: %s", entry.Phase)
	}
	if entry.State != outbox.StatePending {
		t.Fatalf("phase write must not touch state: %s", entry.State)
	}
	if string(entry.EncryptionKey) != "key" || string(entry.EncryptionNonce) != "nonce" {
		t.Fatalf("encryption material not persisted: %+v", entry)
	}
}

func TestExpiredIgnoresState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	artifact := testsupport.NewArtifact(t, cfg, store, "conv-1")
	entry, err := store.Enqueue(ctx, artifact.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	entry.State = outbox.StateSending
	if err := store.UpdateTransfer(ctx, entry); err != nil {
		t.Fatalf("UpdateTransfer: %v", err)
	}

	fresh, err := store.Expired(ctx, time.Now())
	if err != nil {
		t.Fatalf("Expired: %v", err)
	}
	if len(fresh) != 0 {
		t.Fatalf("no entries should be expired yet, got %d", len(fresh))
	}

	expired, err := store.Expired(ctx, entry.ExpiresAt.Add(time.Second))
	if err != nil {
		t.Fatalf("Expired: %v", err)
	}
	if len(expired) != 1 || expired[0].ArtifactID != artifact.ID {
		t.Fatalf("sending entry past expiry must be returned, got %+v", expired)
	}
}

func TestRemoveEntryIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	artifact := testsupport.NewArtifact(t, cfg, store, "conv-1")
	if _, err := store.Enqueue(ctx, artifact.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	removed, err := store.RemoveEntry(ctx, artifact.ID)
	if err != nil || !removed {
		t.Fatalf("first remove: removed=%v err=%v", removed, err)
	}
	removed, err = store.RemoveEntry(ctx, artifact.ID)
	if err != nil {
		t.Fatalf("second remove errored: %v", err)
	}
	if removed {
		t.Fatal("second remove should report no rows")
	}
}

func TestStatsCountsByState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	states := []outbox.State{outbox.StatePending, outbox.StateSent, outbox.StateFailed}
	for _, state := range states {
		artifact := testsupport.NewArtifact(t, cfg, store, "conv-1")
		entry, err := store.Enqueue(ctx, artifact.ID)
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		if state != outbox.StatePending {
			entry.State = state
			if err := store.UpdateTransfer(ctx, entry); err != nil {
				t.Fatalf("UpdateTransfer: %v", err)
			}
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 1 || stats.Sent != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMarkReceived(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	artifact := testsupport.NewArtifact(t, cfg, store, "conv-1")
	if _, err := store.Enqueue(ctx, artifact.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := store.MarkReceived(ctx, artifact.ID); err != nil {
		t.Fatalf("MarkReceived: %v", err)
	}

	entry, err := store.GetEntry(ctx, artifact.ID)
	if err != nil || entry == nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if entry.State != outbox.StateReceived {
		t.Fatalf("expected received, got %s", entry.State)
	}
	if !entry.State.IsTerminal() {
		t.Fatal("received must be terminal")
	}
}

func TestArtifactsByConversation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewArtifact(t, cfg, store, "conv-a")
	second := testsupport.NewArtifact(t, cfg, store, "conv-a")
	testsupport.NewArtifact(t, cfg, store, "conv-b")

	artifacts, err := store.ArtifactsByConversation(ctx, "conv-a")
	if err != nil {
		t.Fatalf("ArtifactsByConversation: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	seen := map[string]bool{artifacts[0].ID: true, artifacts[1].ID: true}
	if !seen[first.ID] || !seen[second.ID] {
		t.Fatalf("wrong artifacts returned: %+v", seen)
	}
}
