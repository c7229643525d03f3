package http

import (
	"testing"
	"time"

	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/stream"
)

type stubSource struct {
	onPosition func(domain.Position)
	stops      int
}

func (s *stubSource) Subscribe(onPosition func(domain.Position), onError func(error)) (func(), error) {
	s.onPosition = onPosition
	return func() { s.stops++ }, nil
}

// The client position feed goes through the stream manager, so an
// update that barely moves is never written to the socket.
func TestRelayPositionsDeduplicates(t *testing.T) {
	src := &stubSource{}
	m := stream.NewManager(src)

	var writes []interface{}
	detach, err := relayPositions(m, func(v interface{}) error {
		writes = append(writes, v)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := time.Now()
	src.onPosition(domain.Position{Latitude: 35.0, Longitude: 139.0, Timestamp: base})
	// ~1m north, 5s later: a duplicate
	src.onPosition(domain.Position{Latitude: 35.00001, Longitude: 139.0, Timestamp: base.Add(5 * time.Second)})
	// ~55m north: real movement
	src.onPosition(domain.Position{Latitude: 35.0005, Longitude: 139.0, Timestamp: base.Add(10 * time.Second)})

	if len(writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(writes))
	}

	detach()
	if src.stops != 1 {
		t.Fatalf("expected upstream stop on detach, got %d", src.stops)
	}
}
