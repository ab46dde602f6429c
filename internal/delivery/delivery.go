package delivery

import (
	"context"
	"errors"

	"mediaoutbox/internal/outbox"
)

// ErrNotConfigured is returned by the noop deliverer. The transfer manager
// treats it as "no transport yet": the entry stays pending and no retry is
// consumed.
var ErrNotConfigured = errors.New("no transport endpoint configured")

// Deliverer pushes one outbox entry's media to the remote transport.
type Deliverer interface {
	Deliver(ctx context.Context, entry *outbox.Entry, artifact *outbox.Artifact) error
}

// Func adapts a plain function to the Deliverer interface.
type Func func(ctx context.Context, entry *outbox.Entry, artifact *outbox.Artifact) error

func (f Func) Deliver(ctx context.Context, entry *outbox.Entry, artifact *outbox.Artifact) error {
	return f(ctx, entry, artifact)
}

// Noop is the deliverer used when no endpoint is configured.
type Noop struct{}

func (Noop) Deliver(context.Context, *outbox.Entry, *outbox.Artifact) error {
	return ErrNotConfigured
}
