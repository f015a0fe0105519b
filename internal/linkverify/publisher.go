package linkverify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
)

// Publisher delivers broken-link events.
type Publisher interface {
	PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error
	Close() error
}

// Discard drops every event. Used when no NATS URL is configured.
type Discard struct{}

func (Discard) PublishBrokenLink(context.Context, *BrokenLinkEvent) error { return nil }
func (Discard) Close() error                                            { return nil }

// NATSPublisher publishes events as JSON on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to cfg.URL.
func NewNATSPublisher(cfg config.NATSConfig) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, foundationerrors.ConfigError("NATS URL is required").Build()
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("sitekeeper-audit"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", cfg.URL).Build()
	}
	slog.Info("NATS publisher connected", logfields.URL(cfg.URL), slog.String("subject", cfg.Subject))
	return &NATSPublisher{conn: conn, subject: cfg.Subject}, nil
}

// NewPublisher returns a NATS publisher when a URL is configured, Discard otherwise.
func NewPublisher(cfg config.NATSConfig) (Publisher, error) {
	if cfg.URL == "" {
		return Discard{}, nil
	}
	return NewNATSPublisher(cfg)
}

// PublishBrokenLink publishes one event.
func (p *NATSPublisher) PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to marshal event").Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryNetwork, "failed to publish event").
			WithContext("subject", p.subject).Build()
	}
	slog.Debug("Published broken link event", logfields.URL(event.URL), logfields.File(event.SourceFile))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.FlushTimeout(2 * time.Second)
	p.conn.Close()
	return err
}
