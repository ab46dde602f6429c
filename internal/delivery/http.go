package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"mediaoutbox/internal/config"
	"mediaoutbox/internal/logging"
	"mediaoutbox/internal/outbox"
)

// Client delivers media by streaming the artifact's content file to an HTTP
// endpoint. Metadata travels in headers so the body stays a raw upload.
type Client struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs an HTTP deliverer.
func NewClient(endpoint, authToken string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.WithComponent(logger, "delivery"),
	}
}

// NewFromConfig builds the deliverer the config asks for. An empty endpoint
// yields the noop deliverer.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) Deliverer {
	if cfg.Transport.Endpoint == "" {
		return Noop{}
	}
	return NewClient(cfg.Transport.Endpoint, cfg.Transport.AuthToken, time.Duration(cfg.Transport.RequestTimeout)*time.Second, logger)
}

// Deliver uploads the artifact's content. Any non-2xx response is an error
// so the transfer manager can schedule a retry.
func (c *Client) Deliver(ctx context.Context, entry *outbox.Entry, artifact *outbox.Artifact) error {
	file, err := os.Open(artifact.ContentPath)
	if err != nil {
		return fmt.Errorf("open content for delivery: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat content for delivery: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, file)
	if err != nil {
		return fmt.Errorf("build delivery request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Artifact-ID", artifact.ID)
	req.Header.Set("X-Conversation-ID", entry.ConversationID)
	req.Header.Set("X-Media-Kind", string(artifact.Kind))
	req.Header.Set("X-Retry-Count", strconv.Itoa(entry.RetryCount))
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delivery rejected with status %d", resp.StatusCode)
	}

	c.logger.Debug("artifact delivered",
		logging.String("artifact", artifact.ID),
		logging.Int64("bytes", info.Size()),
	)
	return nil
}
