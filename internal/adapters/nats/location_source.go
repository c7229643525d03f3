package natsadapter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/stream"
)

// LocationSource implements ports.LocationSource on top of core NATS.
// Device clients publish raw position fixes to positions.update and
// feed faults to positions.error; a single subscription covers both,
// so callbacks fire serially in arrival order.
type LocationSource struct {
	conn *nats.Conn
}

// NewLocationSource wraps an existing NATS connection.
func NewLocationSource(conn *nats.Conn) *LocationSource {
	return &LocationSource{conn: conn}
}

type sourceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Subscribe opens the position feed. The returned stop function
// unsubscribes; it is safe to call once.
func (l *LocationSource) Subscribe(onPosition func(domain.Position), onError func(error)) (func(), error) {
	sub, err := l.conn.Subscribe("positions.>", func(msg *nats.Msg) {
		switch msg.Subject {
		case "positions.update":
			var p domain.Position
			if err := json.Unmarshal(msg.Data, &p); err != nil {
				return
			}
			if p.Timestamp.IsZero() {
				p.Timestamp = time.Now()
			}
			onPosition(p)
		case "positions.error":
			var se sourceError
			if err := json.Unmarshal(msg.Data, &se); err != nil {
				return
			}
			onError(mapSourceError(se))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe positions: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// mapSourceError translates device-reported fault codes into the
// stream package's sentinels so consumers can classify with errors.Is.
func mapSourceError(se sourceError) error {
	switch se.Code {
	case "timeout":
		return stream.ErrTimeout
	case "permission_denied":
		return stream.ErrPermissionDenied
	case "unavailable":
		return stream.ErrUnavailable
	default:
		return fmt.Errorf("location source: %s: %s", se.Code, se.Message)
	}
}
