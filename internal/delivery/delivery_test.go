package delivery_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"mediaoutbox/internal/delivery"
	"mediaoutbox/internal/logging"
	"mediaoutbox/internal/outbox"
	"mediaoutbox/internal/testsupport"
)

func fixtureArtifact(t *testing.T) (*outbox.Entry, *outbox.Artifact) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.jpg")
	testsupport.WriteFile(t, path, 2048)
	artifact := &outbox.Artifact{
		ID:             "artifact-1",
		Kind:           outbox.KindPhoto,
		ContentPath:    path,
		ConversationID: "conv-9",
	}
	entry := &outbox.Entry{
		ArtifactID:     artifact.ID,
		ConversationID: artifact.ConversationID,
		State:          outbox.StateSending,
		RetryCount:     2,
	}
	return entry, artifact
}

func TestClientDeliverUploadsContent(t *testing.T) {
	var gotHeaders http.Header
	var gotBytes int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read upload body: %v", err)
		}
		gotBytes = len(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	entry, artifact := fixtureArtifact(t)
	client := delivery.NewClient(server.URL, "secret-token", 5*time.Second, logging.NewNop())
	if err := client.Deliver(context.Background(), entry, artifact); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if gotBytes != 2048 {
		t.Fatalf("expected 2048 uploaded bytes, got %d", gotBytes)
	}
	if got := gotHeaders.Get("X-Artifact-ID"); got != "artifact-1" {
		t.Fatalf("artifact header = %q", got)
	}
	if got := gotHeaders.Get("X-Conversation-ID"); got != "conv-9" {
		t.Fatalf("conversation header = %q", got)
	}
	if got := gotHeaders.Get("X-Retry-Count"); got != "2" {
		t.Fatalf("retry header = %q", got)
	}
	if got := gotHeaders.Get("Authorization"); got != "Bearer secret-token" {
		t.Fatalf("authorization header = %q", got)
	}
}

func TestClientDeliverRejectsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "downstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	entry, artifact := fixtureArtifact(t)
	client := delivery.NewClient(server.URL, "", 5*time.Second, logging.NewNop())
	if err := client.Deliver(context.Background(), entry, artifact); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestClientDeliverMissingContent(t *testing.T) {
	entry, artifact := fixtureArtifact(t)
	artifact.ContentPath = filepath.Join(t.TempDir(), "gone.jpg")

	client := delivery.NewClient("http://127.0.0.1:0", "", time.Second, logging.NewNop())
	if err := client.Deliver(context.Background(), entry, artifact); err == nil {
		t.Fatal("expected error for missing content file")
	}
}

func TestNoopReportsNotConfigured(t *testing.T) {
	entry, artifact := fixtureArtifact(t)
	err := delivery.Noop{}.Deliver(context.Background(), entry, artifact)
	if !errors.Is(err, delivery.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
