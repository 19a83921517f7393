// Package natspub delivers outbox entries to NATS.
package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/outbox"
	"orderflow/internal/pkg/errs"

	"github.com/nats-io/nats.go"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
}

// Message is the JSON body published for every outbox entry.
type Message struct {
	ID        kernel.UUID    `json:"id"`
	TenantID  kernel.UUID    `json:"tenantId"`
	OrderID   kernel.UUID    `json:"orderId"`
	Topic     string         `json:"topic"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Publisher publishes entries on "<prefix>.<topic>". The entry ID goes into
// the Nats-Msg-Id header so JetStream streams drop relay retries.
type Publisher struct {
	conn   Conn
	prefix string
}

func NewPublisher(conn Conn, subjectPrefix string) (*Publisher, error) {
	if conn == nil {
		return nil, errs.NewValueIsRequiredError("nats connection")
	}
	return &Publisher{conn: conn, prefix: subjectPrefix}, nil
}

// Connect dials NATS with reconnects enabled.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	logger = logger.With("component", "nats")
	nc, err := nats.Connect(url,
		nats.Name("orderflow"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

// Subject returns the subject an entry is published on.
func (p *Publisher) Subject(entry outbox.Entry) string {
	if p.prefix == "" {
		return entry.Topic
	}
	return p.prefix + "." + entry.Topic
}

// Publish sends the entry and flushes, so a nil error means the server
// received it.
func (p *Publisher) Publish(ctx context.Context, entry outbox.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(Message{
		ID:        entry.ID,
		TenantID:  entry.TenantID,
		OrderID:   entry.OrderID,
		Topic:     entry.Topic,
		Payload:   entry.Payload,
		CreatedAt: entry.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode outbox entry %s: %w", entry.ID, err)
	}

	msg := nats.NewMsg(p.Subject(entry))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, entry.ID.String())
	msg.Header.Set("Orderflow-Tenant", entry.TenantID.String())

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return p.conn.FlushWithContext(ctx)
}

// LogPublisher writes entries to the log. It stands in for NATS when no
// server is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "log-publisher")}
}

func (p *LogPublisher) Publish(ctx context.Context, entry outbox.Entry) error {
	p.logger.InfoContext(ctx, "outbox entry",
		"id", entry.ID.String(),
		"tenant_id", entry.TenantID.String(),
		"order_id", entry.OrderID.String(),
		"topic", entry.Topic,
		"payload", entry.Payload,
	)
	return nil
}
