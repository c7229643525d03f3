// Package stream multiplexes a single device location feed to many
// consumers, throttling updates that carry no meaningful movement.
package stream

import (
	"errors"
	"sync"
	"time"

	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/core/ports"
	"github.com/soundpin/soundpin/internal/pkg/geo"
)

// Sentinel errors produced by location sources. Timeouts are transient
// and never surface to consumers; the rest do.
var (
	ErrTimeout          = errors.New("location update timed out")
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location service unavailable")
)

const (
	// MinDistanceMeters is the movement below which a position is
	// considered a duplicate of the previous one.
	MinDistanceMeters = 20.0

	// MinInterval forces a position through even without movement, so
	// consumers can tell a stationary device from a dead feed.
	MinInterval = 30 * time.Second
)

// Handler receives fan-out from the manager. OnError may be nil.
type Handler struct {
	OnPosition func(domain.Position)
	OnError    func(error)
}

type subscriber struct {
	id int
	h  Handler
}

// Manager owns at most one upstream subscription regardless of how many
// consumers attach. The first Subscribe starts the source, the last
// Unsubscribe stops it and clears all retained state.
type Manager struct {
	source      ports.LocationSource
	minDistance float64
	minInterval time.Duration

	mu      sync.Mutex
	subs    []*subscriber
	nextID  int
	stop    func()
	last    *domain.Position
	lastErr error

	accepted uint64
	dropped  uint64
}

// NewManager creates a Manager reading from source with the default
// movement and staleness thresholds.
func NewManager(source ports.LocationSource) *Manager {
	return NewManagerWithThresholds(source, MinDistanceMeters, MinInterval)
}

// NewManagerWithThresholds creates a Manager with explicit thresholds,
// for deployments that tune them through configuration.
func NewManagerWithThresholds(source ports.LocationSource, minDistanceMeters float64, minInterval time.Duration) *Manager {
	return &Manager{
		source:      source,
		minDistance: minDistanceMeters,
		minInterval: minInterval,
	}
}

// Subscribe attaches a handler and returns its detach function. A late
// joiner immediately receives the last accepted position, if any.
// Starting the upstream source can fail; in that case no subscription
// is recorded.
func (m *Manager) Subscribe(h Handler) (func(), error) {
	m.mu.Lock()

	if len(m.subs) == 0 {
		stop, err := m.source.Subscribe(m.onPosition, m.onError)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		m.stop = stop
	}

	m.nextID++
	sub := &subscriber{id: m.nextID, h: h}
	m.subs = append(m.subs, sub)
	last := m.last
	m.mu.Unlock()

	// Replay outside the lock; the handler may re-enter the manager.
	if last != nil && h.OnPosition != nil {
		h.OnPosition(*last)
	}

	return func() { m.unsubscribe(sub.id) }, nil
}

func (m *Manager) unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.subs {
		if s.id == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			break
		}
	}

	if len(m.subs) == 0 && m.stop != nil {
		m.stop()
		m.stop = nil
		m.last = nil
		m.lastErr = nil
	}
}

func (m *Manager) onPosition(p domain.Position) {
	m.mu.Lock()

	if !m.accept(p) {
		m.dropped++
		m.mu.Unlock()
		return
	}

	m.accepted++
	m.last = &p

	// Snapshot under the lock, fan out without it. Handlers may block
	// or re-enter the manager.
	targets := make([]Handler, 0, len(m.subs))
	for _, s := range m.subs {
		if s.h.OnPosition != nil {
			targets = append(targets, s.h)
		}
	}
	m.mu.Unlock()

	for _, h := range targets {
		h.OnPosition(p)
	}
}

// accept decides whether a position carries new information. The first
// position always does; after that it must move at least
// MinDistanceMeters or be MinInterval older than the previous one,
// measured by the positions' own timestamps rather than wall time.
func (m *Manager) accept(p domain.Position) bool {
	if m.last == nil {
		return true
	}
	dist := geo.DistanceMeters(m.last.Latitude, m.last.Longitude, p.Latitude, p.Longitude)
	if dist > m.minDistance {
		return true
	}
	return p.Timestamp.Sub(m.last.Timestamp) > m.minInterval
}

func (m *Manager) onError(err error) {
	if errors.Is(err, ErrTimeout) {
		return
	}

	m.mu.Lock()
	m.lastErr = err
	targets := make([]Handler, 0, len(m.subs))
	for _, s := range m.subs {
		if s.h.OnError != nil {
			targets = append(targets, s.h)
		}
	}
	m.mu.Unlock()

	for _, h := range targets {
		h.OnError(err)
	}
}

// LastError returns the most recent non-transient source error, reset
// when the stream tears down.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Stats is a point-in-time snapshot for metrics collection.
type Stats struct {
	Subscribers int
	Accepted    uint64
	Dropped     uint64
}

// Stats reports the current subscriber count and cumulative counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Subscribers: len(m.subs),
		Accepted:    m.accepted,
		Dropped:     m.dropped,
	}
}
