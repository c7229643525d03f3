package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/soundpin/soundpin/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			// pins.created drives the analysis worker; work-queue
			// retention so each pin is analyzed exactly once.
			Name:      "PIN_EVENTS",
			Subjects:  []string{"pins.created.>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "PIN_REPORTS",
			Subjects:  []string{"pins.reported.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishPinCreated(ctx context.Context, pin *domain.Pin) error {
	data, err := json.Marshal(pin)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("pins.created."+pin.ID, data)
	return err
}

type reportEvent struct {
	PinID  string `json:"pin_id"`
	Reason string `json:"reason"`
}

func (p *Publisher) PublishPinReported(ctx context.Context, pinID, reason string) error {
	data, err := json.Marshal(reportEvent{PinID: pinID, Reason: reason})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("pins.reported."+pinID, data)
	return err
}

// PublishBroadcast fans a pre-serialized payload to live map clients.
// Core NATS, not JetStream: a stale viewport update has no value.
func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish("pins.updates.broadcast", data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
