// Package notify announces finished builds to other processes.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
)

// BuildEvent is published after every build of the live preview.
type BuildEvent struct {
	BuildID    string  `json:"build_id"`
	Outcome    string  `json:"outcome"`
	Artifacts  int     `json:"artifacts"`
	DurationMS float64 `json:"duration_ms"`
}

// Notifier publishes build events.
type Notifier interface {
	Publish(ctx context.Context, ev BuildEvent) error
	Close() error
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, BuildEvent) error { return nil }
func (Noop) Close() error                              { return nil }

// NATS publishes events as JSON on one subject.
type NATS struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the NATS server at url. An empty url yields a Noop notifier.
func Connect(url, subject string) (Notifier, error) {
	if url == "" {
		return Noop{}, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("doxidize"),
		nats.Timeout(2*time.Second),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).
			Retryable().
			Build()
	}
	slog.Info("Publishing build events", logfields.URL(url), slog.String("subject", subject))
	return &NATS{conn: conn, subject: subject}, nil
}

// Publish sends ev and waits until the server acknowledged the flush.
func (n *NATS) Publish(ctx context.Context, ev BuildEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode build event").Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to publish build event").
			WithContext("subject", n.subject).
			Build()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to flush build event").
			WithContext("subject", n.subject).
			Build()
	}
	slog.Debug("Published build event", logfields.BuildID(ev.BuildID), slog.String("outcome", ev.Outcome))
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NATS) Close() error {
	return n.conn.Drain()
}
