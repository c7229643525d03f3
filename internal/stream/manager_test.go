package stream

import (
	"errors"
	"testing"
	"time"

	"github.com/soundpin/soundpin/internal/core/domain"
)

// fakeSource records subscriptions and lets tests drive the callbacks.
type fakeSource struct {
	starts     int
	stops      int
	onPosition func(domain.Position)
	onError    func(error)
	failStart  error
}

func (f *fakeSource) Subscribe(onPosition func(domain.Position), onError func(error)) (func(), error) {
	if f.failStart != nil {
		return nil, f.failStart
	}
	f.starts++
	f.onPosition = onPosition
	f.onError = onError
	return func() { f.stops++ }, nil
}

func pos(lat, lng float64, at time.Time) domain.Position {
	return domain.Position{Latitude: lat, Longitude: lng, Timestamp: at}
}

func collect(got *[]domain.Position) Handler {
	return Handler{OnPosition: func(p domain.Position) { *got = append(*got, p) }}
}

func TestManager_SingleUpstreamSubscription(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src)

	var a, b []domain.Position
	offA, err := m.Subscribe(collect(&a))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	offB, err := m.Subscribe(collect(&b))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if src.starts != 1 {
		t.Errorf("upstream started %d times, want 1", src.starts)
	}

	offA()
	if src.stops != 0 {
		t.Error("upstream stopped while a subscriber remains")
	}
	offB()
	if src.stops != 1 {
		t.Errorf("upstream stopped %d times, want 1", src.stops)
	}
}

func TestManager_StartFailure(t *testing.T) {
	src := &fakeSource{failStart: errors.New("boom")}
	m := NewManager(src)

	if _, err := m.Subscribe(Handler{}); err == nil {
		t.Fatal("expected start error")
	}
	if got := m.Stats().Subscribers; got != 0 {
		t.Errorf("subscribers = %d after failed start, want 0", got)
	}
}

func TestManager_DedupByDistanceAndTime(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src)

	var got []domain.Position
	off, _ := m.Subscribe(collect(&got))
	defer off()

	t0 := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	src.onPosition(pos(35.0, 139.0, t0))                         // first, accepted
	src.onPosition(pos(35.00001, 139.0, t0.Add(time.Second)))    // ~1m, dropped
	src.onPosition(pos(35.0005, 139.0, t0.Add(2*time.Second)))   // ~55m, accepted
	src.onPosition(pos(35.0005, 139.0, t0.Add(10*time.Second)))  // no move, dropped
	src.onPosition(pos(35.0005, 139.0, t0.Add(100*time.Second))) // stale by timestamp, accepted

	if len(got) != 3 {
		t.Fatalf("delivered %d positions, want 3", len(got))
	}
	if got[1].Latitude != 35.0005 {
		t.Errorf("second accepted position lat = %f, want 35.0005", got[1].Latitude)
	}

	st := m.Stats()
	if st.Accepted != 3 || st.Dropped != 2 {
		t.Errorf("stats accepted=%d dropped=%d, want 3/2", st.Accepted, st.Dropped)
	}
}

func TestManager_IntervalMeasuredByTimestamps(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src)

	var got []domain.Position
	off, _ := m.Subscribe(collect(&got))
	defer off()

	t0 := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	src.onPosition(pos(35.0, 139.0, t0))
	// Same spot, 29s apart by timestamp: still a duplicate no matter
	// how long the test itself takes.
	src.onPosition(pos(35.0, 139.0, t0.Add(29*time.Second)))

	if len(got) != 1 {
		t.Fatalf("delivered %d positions, want 1", len(got))
	}
}

func TestManager_FanOutOrderAndLateJoiner(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src)

	var order []string
	sub := func(name string) Handler {
		return Handler{OnPosition: func(domain.Position) { order = append(order, name) }}
	}

	offA, _ := m.Subscribe(sub("a"))
	offB, _ := m.Subscribe(sub("b"))
	defer offA()
	defer offB()

	t0 := time.Now()
	src.onPosition(pos(35.0, 139.0, t0))

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("fan-out order = %v, want [a b]", order)
	}

	// A late joiner gets the retained position immediately.
	var late []domain.Position
	offC, _ := m.Subscribe(collect(&late))
	defer offC()

	if len(late) != 1 || late[0].Latitude != 35.0 {
		t.Fatalf("late joiner got %v, want the retained position", late)
	}
}

func TestManager_TeardownClearsState(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src)

	var got []domain.Position
	off, _ := m.Subscribe(collect(&got))
	src.onPosition(pos(35.0, 139.0, time.Now()))
	src.onError(ErrUnavailable)
	off()

	if m.LastError() != nil {
		t.Error("teardown must clear the recorded error")
	}

	// A fresh session must not replay the previous one's position.
	var fresh []domain.Position
	off2, _ := m.Subscribe(collect(&fresh))
	defer off2()
	if len(fresh) != 0 {
		t.Errorf("fresh session replayed %d positions, want 0", len(fresh))
	}
	if src.starts != 2 {
		t.Errorf("upstream started %d times, want 2", src.starts)
	}
}

func TestManager_ErrorClassification(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src)

	var got []error
	off, _ := m.Subscribe(Handler{OnError: func(err error) { got = append(got, err) }})
	defer off()

	src.onError(ErrTimeout) // transient, swallowed
	if len(got) != 0 {
		t.Fatalf("timeout reached subscribers: %v", got)
	}
	if m.LastError() != nil {
		t.Error("timeout must not be recorded")
	}

	src.onError(ErrPermissionDenied)
	src.onError(ErrUnavailable)
	if len(got) != 2 {
		t.Fatalf("delivered %d errors, want 2", len(got))
	}
	if !errors.Is(m.LastError(), ErrUnavailable) {
		t.Errorf("last error = %v, want ErrUnavailable", m.LastError())
	}
}

func TestManager_HandlerWithoutErrorCallback(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src)

	off, _ := m.Subscribe(Handler{OnPosition: func(domain.Position) {}})
	defer off()

	// Must not panic.
	src.onError(ErrUnavailable)
}
