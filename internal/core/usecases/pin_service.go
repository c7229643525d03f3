package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/core/ports"
	"github.com/soundpin/soundpin/internal/core/requests"
	"github.com/soundpin/soundpin/internal/pkg/geo"
)

// PinService orchestrates validation, repository calls, batch semantics,
// moderation, and query composition for sound pins.
type PinService struct {
	pins   ports.PinRepository
	cache  ports.CacheService
	events ports.EventPublisher

	clock func() time.Time
	newID func() string
}

// NewPinService creates a new PinService. cache and events may be nil.
func NewPinService(pins ports.PinRepository, cache ports.CacheService, events ports.EventPublisher) *PinService {
	return &PinService{
		pins:   pins,
		cache:  cache,
		events: events,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
}

// CreatePin validates the request, derives the time tag when absent, and
// persists the pin. Validation always precedes the repository call.
func (s *PinService) CreatePin(ctx context.Context, req requests.CreateRequest) (*domain.Pin, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	tag := req.TimeTag
	if tag == "" {
		tag = domain.TimeTagFor(now)
	}

	pin := &domain.Pin{
		ID:         s.newID(),
		OwnerID:    req.OwnerID,
		Location:   req.Location,
		Audio:      req.Audio,
		Weather:    req.Weather,
		TimeTag:    tag,
		Title:      req.Title,
		Status:     domain.StatusActive,
		DeviceInfo: req.DeviceInfo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	stored, err := s.pins.Create(ctx, pin)
	if err != nil {
		return nil, fmt.Errorf("create pin: %w", err)
	}

	if s.events != nil {
		_ = s.events.PublishPinCreated(ctx, stored)
	}
	s.invalidateNearby(ctx)

	return stored, nil
}

// BatchResult reports the outcome of a batch creation. Created pins are
// returned in input order; failed items simply do not appear.
type BatchResult struct {
	Requested int          `json:"requested"`
	Created   int          `json:"created"`
	Pins      []domain.Pin `json:"pins"`
}

// CreatePinsBatch validates and creates each request independently. One
// request's failure never aborts or delays its siblings; no lock is held
// across elements.
func (s *PinService) CreatePinsBatch(ctx context.Context, reqs []requests.CreateRequest) BatchResult {
	results := make([]*domain.Pin, len(reqs))

	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if pin, err := s.CreatePin(ctx, reqs[i]); err == nil {
				results[i] = pin
			}
		}(i)
	}
	wg.Wait()

	out := BatchResult{Requested: len(reqs)}
	for _, p := range results {
		if p != nil {
			out.Pins = append(out.Pins, *p)
			out.Created++
		}
	}
	return out
}

// GetPinByID returns the pin or domain.ErrNotFound.
func (s *PinService) GetPinByID(ctx context.Context, id string) (*domain.Pin, error) {
	return s.pins.GetByID(ctx, id)
}

// UpdatePin applies a validated partial patch. Not-found is a normal,
// expected outcome: nothing is created or mutated.
func (s *PinService) UpdatePin(ctx context.Context, id string, req requests.UpdateRequest) (*domain.Pin, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.pins.Update(ctx, id, ports.UpdatePatch{
		Title:      req.Title,
		Status:     req.Status,
		AIAnalysis: req.AIAnalysis,
	})
}

// DeletePin removes a pin. Idempotent at the contract level: a missing or
// already-deleted id yields domain.ErrNotFound, never a fault.
func (s *PinService) DeletePin(ctx context.Context, id string) error {
	deleted, err := s.pins.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	s.invalidateNearby(ctx)
	return nil
}

// ReportPin validates the reason and flags the pin for moderation. Prior
// AI analysis and all other fields are preserved.
func (s *PinService) ReportPin(ctx context.Context, id string, req requests.ReportRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	reported := domain.StatusReported
	if _, err := s.pins.Update(ctx, id, ports.UpdatePatch{
		Status:       &reported,
		ReportReason: &req.Reason,
	}); err != nil {
		return err
	}

	if s.events != nil {
		_ = s.events.PublishPinReported(ctx, id, req.Reason)
	}
	s.invalidateNearby(ctx)
	return nil
}

// GetNearbyPins returns pins inside the query's bounding box. Ordering is
// unspecified by contract and duplicate coordinates are permitted.
func (s *PinService) GetNearbyPins(ctx context.Context, q requests.NearbyQuery) ([]domain.Pin, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	limit := q.EffectiveLimit()

	cacheKey := fmt.Sprintf("pins:nearby:%.4f:%.4f:%.4f:%.4f:%d",
		q.Bounds.North, q.Bounds.South, q.Bounds.East, q.Bounds.West, limit)
	if s.cache != nil && len(q.Categories) == 0 {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var pins []domain.Pin
			if err := json.Unmarshal(data, &pins); err == nil {
				return pins, nil
			}
		}
	}

	pins, err := s.pins.QueryByBounds(ctx, q.Bounds, limit, q.Categories)
	if err != nil {
		return nil, err
	}

	// Cache for 1 minute; the map viewport is re-queried constantly.
	if s.cache != nil && len(q.Categories) == 0 {
		if data, err := json.Marshal(pins); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}

	return pins, nil
}

// SearchPins composes up to three independent filters (radius, time range,
// category/weather membership), then paginates the filtered result. The
// bounding box is only a pre-filter for the radius: exact great-circle
// distance decides membership.
func (s *PinService) SearchPins(ctx context.Context, q requests.SearchQuery) ([]domain.Pin, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	filter := ports.PinFilter{
		Start:      q.StartTime,
		End:        q.EndTime,
		Categories: q.Categories,
		Weather:    q.Weather,
	}

	loc := q.LocationFilter()
	if loc != nil {
		bounds := geo.BoundsFromRadius(loc.Lat, loc.Lng, loc.RadiusKm)
		filter.Bounds = &bounds
	}

	pins, err := s.pins.QueryByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	if loc != nil {
		matched := pins[:0]
		for _, p := range pins {
			d := geo.DistanceKm(loc.Lat, loc.Lng, p.Location.Lat, p.Location.Lng)
			if d <= loc.RadiusKm {
				p.Distance = &d
				matched = append(matched, p)
			}
		}
		pins = matched
	}

	return paginate(pins, q.Offset, q.EffectiveLimit()), nil
}

// GetUserPins lists every pin owned by a user. Unpaginated: a single user
// is assumed not to exceed a manageable pin count.
func (s *PinService) GetUserPins(ctx context.Context, userID string) ([]domain.Pin, error) {
	return s.pins.ListByOwner(ctx, userID)
}

// AttachAnalysis attaches an async annotation and returns the pin to the
// active state. Used by the analysis workflow after the analyzer responds.
func (s *PinService) AttachAnalysis(ctx context.Context, id string, analysis *domain.AIAnalysis) error {
	active := domain.StatusActive
	_, err := s.pins.Update(ctx, id, ports.UpdatePatch{
		Status:     &active,
		AIAnalysis: analysis,
	})
	return err
}

// invalidateNearby drops cached viewport results after any write that
// changes which pins a map query would return. Best effort.
func (s *PinService) invalidateNearby(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.DeleteByPrefix(ctx, "pins:nearby:")
	}
}

func paginate(pins []domain.Pin, offset, limit int) []domain.Pin {
	if offset >= len(pins) {
		return nil
	}
	end := offset + limit
	if end > len(pins) {
		end = len(pins)
	}
	return pins[offset:end]
}
