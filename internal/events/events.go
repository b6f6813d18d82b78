// Package events publishes domain events. Publishing is best-effort:
// the order flow never fails a request because a broker was unreachable.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
)

// SubjectOrderCreated is the NATS subject for order-commit events.
const SubjectOrderCreated = "orders.created"

// OrderCreated is emitted after an order has durably committed.
type OrderCreated struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	NumItems    int64           `json:"num_items"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Publisher emits domain events to interested consumers.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, event OrderCreated) error

	// Close flushes pending messages and releases the connection.
	Close() error
}

// NATSPublisher publishes events to a NATS server.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) PublishOrderCreated(ctx context.Context, event OrderCreated) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectOrderCreated, payload)
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NoopPublisher discards events. Used in tests and when no broker is
// configured.
type NoopPublisher struct {
	// Published records events for test assertions.
	Published []OrderCreated

	// Err, when set, is returned by every publish.
	Err error
}

func (p *NoopPublisher) PublishOrderCreated(ctx context.Context, event OrderCreated) error {
	if p.Err != nil {
		return p.Err
	}
	p.Published = append(p.Published, event)
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
