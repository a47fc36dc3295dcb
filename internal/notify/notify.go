// Package notify publishes one message per project build to NATS so other
// tooling can react to finished builds.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
	"git.home.luguber.info/inful/cbuild/internal/retry"
)

// Message is the JSON payload published after every project build.
type Message struct {
	BuildID    string         `json:"build_id"`
	Project    string         `json:"project"`
	Version    string         `json:"version"`
	Status     string         `json:"status"`
	Targets    []TargetStatus `json:"targets"`
	DurationMS int64          `json:"duration_ms"`
	Timestamp  time.Time      `json:"timestamp"`
}

// TargetStatus summarizes one target inside a Message.
type TargetStatus struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Compiled int    `json:"compiled"`
	Linked   bool   `json:"linked"`
	Failures int    `json:"failures"`
}

// Publisher delivers build messages.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// NoopPublisher drops every message (default when notifications are not configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Message) error { return nil }
func (NoopPublisher) Close() error                           { return nil }

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes messages on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	retry   retry.Policy
}

// NewNATSPublisher connects to url and publishes on subject, redelivering
// failed messages according to policy.
func NewNATSPublisher(url, subject string, policy retry.Policy) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("cbuild"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, ferrors.NotifyError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	slog.Debug("NATS publisher connected", slog.String("url", url), slog.String("subject", subject))
	return &NATSPublisher{conn: nc, subject: subject, retry: policy}, nil
}

// Publish sends msg and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return ferrors.NotifyError("failed to marshal build message").WithCause(err).Build()
	}

	if err := p.retry.Do(ctx, func() error { return p.send(ctx, data) }); err != nil {
		return err
	}

	slog.Debug("Published build message",
		logfields.BuildID(msg.BuildID),
		logfields.Project(msg.Project),
		slog.String("subject", p.subject))
	return nil
}

// send publishes one message and waits for the flush acknowledgement.
func (p *NATSPublisher) send(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.NotifyError("failed to publish build message").
			WithCause(err).
			WithContext("subject", p.subject).
			Retryable().
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return ferrors.NotifyError("failed to flush build message").
			WithCause(err).
			WithContext("subject", p.subject).
			Retryable().
			Build()
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
