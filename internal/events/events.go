// Package events publishes candidate lifecycle events to NATS.
//
// Events are fire-and-forget notifications for downstream consumers (an
// ATS sync, a notifier). Publishing never blocks or fails a save: callers
// log the error and move on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sakif/intellicrawl/internal/model"
)

// DefaultSubject is where saved candidates are published.
const DefaultSubject = "candidates.saved"

// Publisher announces saved candidates.
type Publisher interface {
	PublishSaved(ctx context.Context, dev model.Developer) error
	Close()
}

// Noop drops every event. Used when no NATS URL is configured.
type Noop struct{}

func (Noop) PublishSaved(context.Context, model.Developer) error { return nil }
func (Noop) Close()                                               {}

// NATS publishes events over a core NATS connection.
type NATS struct {
	nc      *nats.Conn
	subject string
}

var (
	_ Publisher = Noop{}
	_ Publisher = (*NATS)(nil)
)

// NewNATS connects to url. An empty subject means DefaultSubject.
func NewNATS(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("intellicrawl"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATS{nc: nc, subject: subject}, nil
}

// PublishSaved publishes dev as JSON. Core NATS publish is asynchronous;
// ctx only short-circuits when it is already done.
func (n *NATS) PublishSaved(ctx context.Context, dev model.Developer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(dev)
	if err != nil {
		return fmt.Errorf("failed to marshal developer: %w", err)
	}
	if err := n.nc.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}
	return nil
}

// Connected reports whether the connection is currently up.
func (n *NATS) Connected() bool {
	return n.nc.IsConnected()
}

// Close drains pending publishes and closes the connection.
func (n *NATS) Close() {
	if n.nc != nil {
		_ = n.nc.Drain()
	}
}
