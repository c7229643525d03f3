package http

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/pkg/metrics"
	"github.com/soundpin/soundpin/internal/stream"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "pins" | "reports" | "positions" (default: pins)
}

// WebSocketHandler returns a handler that upgrades to WebSocket
// and relays real-time events to connected clients.
// Clients send JSON: {"action":"subscribe","channel":"pins"}.
// Default channel is "pins": every freshly created pin as it lands.
// "positions" is served by the stream manager rather than raw NATS,
// so the movement/staleness throttling applies to every consumer.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		if deps.NATS == nil {
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"event feed not available"}`))
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		log.Printf("ws client connected: %s", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription
		var detachPositions func()

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Auto-subscribe to new pins by default
		defaultSubject := "pins.created.>"
		sub, err := deps.NATS.Subscribe(defaultSubject, func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		})
		if err != nil {
			log.Printf("ws default subscribe error: %v", err)
			return
		}
		subs[defaultSubject] = sub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			channel := m.Channel
			if channel == "" {
				channel = "pins"
			}

			// The position feed fans out through the stream manager,
			// not a raw NATS subject.
			if channel == "positions" {
				switch m.Action {
				case "subscribe":
					if deps.Positions == nil {
						_ = writeJSON(map[string]string{"error": "position feed not available"})
						continue
					}
					if detachPositions != nil {
						_ = writeJSON(map[string]string{"status": "already subscribed", "subject": "positions"})
						continue
					}
					detach, err := relayPositions(deps.Positions, writeJSON)
					if err != nil {
						_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
						continue
					}
					detachPositions = detach
					_ = writeJSON(map[string]string{"status": "subscribed", "subject": "positions"})

				case "unsubscribe":
					if detachPositions == nil {
						_ = writeJSON(map[string]string{"error": "not subscribed to positions"})
						continue
					}
					detachPositions()
					detachPositions = nil
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": "positions"})

				default:
					_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
				}
				continue
			}

			var subject string
			switch channel {
			case "pins":
				subject = "pins.created.>"
			case "reports":
				subject = "pins.reported.>"
			default:
				_ = writeJSON(map[string]string{"error": "unknown channel: " + channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := deps.NATS.Subscribe(subject, func(msg *nats.Msg) {
					_ = writeJSON(json.RawMessage(msg.Data))
				})
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		if detachPositions != nil {
			detachPositions()
		}
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Printf("ws client disconnected: %s", remoteAddr)
	}
}

// relayPositions wires a client write function into the shared position
// stream. Detaching the last client stops the upstream source.
func relayPositions(m *stream.Manager, write func(interface{}) error) (func(), error) {
	return m.Subscribe(stream.Handler{
		OnPosition: func(p domain.Position) {
			_ = write(p)
		},
		OnError: func(err error) {
			_ = write(map[string]string{"error": err.Error()})
		},
	})
}
