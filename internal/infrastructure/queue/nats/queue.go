// Package nats carries completed-analysis events from the api process to
// the recorder worker.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

type EventBus struct {
	conn    *nats.Conn
	subject string
}

func Connect(url, subject string) (*EventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("doc-helper"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			slog.Info("nats_reconnected", "url", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &EventBus{conn: conn, subject: subject}, nil
}

func (b *EventBus) PublishAnalysisCompleted(ctx context.Context, record domain.AnalysisRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode analysis event: %w", err)
	}
	if err := b.conn.Publish(b.subject, payload); err != nil {
		return domain.WrapError(domain.ErrTemporary, "nats.publish", err)
	}
	return b.conn.FlushWithContext(ctx)
}

// SubscribeAnalysisCompleted delivers events to handler until ctx is done.
// Handler failures are logged and the event dropped; the bus offers no
// redelivery.
func (b *EventBus) SubscribeAnalysisCompleted(ctx context.Context, handler func(context.Context, domain.AnalysisRecord) error) error {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		var record domain.AnalysisRecord
		if err := json.Unmarshal(msg.Data, &record); err != nil {
			slog.Error("analysis_event_decode_failed", "subject", msg.Subject, "error", err)
			return
		}
		handleCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := handler(handleCtx, record); err != nil {
			slog.Error("analysis_event_handler_failed", "content_hash", record.ContentHash, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.subject, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("nats_unsubscribe_failed", "subject", b.subject, "error", err)
		}
	}()
	return nil
}

func (b *EventBus) Close() {
	if b.conn != nil && !b.conn.IsClosed() {
		b.conn.Drain()
	}
}
