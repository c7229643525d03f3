// Package requests defines the typed request variants accepted by the pin
// service and their schema validation. Every inbound payload is validated
// here before it reaches a repository; a request that fails validation is
// never partially applied.
package requests

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/soundpin/soundpin/internal/core/domain"
)

const (
	maxTitleLength = 200

	minReportReason = 10
	maxReportReason = 1000

	// DefaultLimit and MaxLimit bound nearby and search result sizes.
	DefaultLimit = 50
	MaxLimit     = 100
)

// CreateRequest creates a single pin.
type CreateRequest struct {
	OwnerID    string          `json:"owner_id"`
	Location   domain.Location `json:"location"`
	Audio      domain.AudioRef `json:"audio"`
	Weather    *domain.Weather `json:"weather,omitempty"`
	TimeTag    domain.TimeTag  `json:"time_tag,omitempty"`
	Title      string          `json:"title,omitempty"`
	DeviceInfo map[string]any  `json:"device_info,omitempty"`
}

// Validate checks every field contract and reports all violations at once.
func (r CreateRequest) Validate() error {
	ve := &domain.ValidationError{}

	validateLocation(ve, r.Location)
	validateAudio(ve, r.Audio)
	if r.Weather != nil {
		validateWeather(ve, r.Weather)
	}
	if r.TimeTag != "" && !domain.ValidTimeTag(r.TimeTag) {
		ve.Add("time_tag", fmt.Sprintf("unknown time tag %q", r.TimeTag))
	}
	// Length limits count characters, not bytes, so multibyte titles
	// are not penalised.
	if utf8.RuneCountInString(r.Title) > maxTitleLength {
		ve.Add("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}

	return ve.OrNil()
}

// UpdateRequest is a partial patch: every field is optional and omitted
// fields are left untouched.
type UpdateRequest struct {
	Title      *string            `json:"title,omitempty"`
	Status     *domain.PinStatus  `json:"status,omitempty"`
	AIAnalysis *domain.AIAnalysis `json:"ai_analysis,omitempty"`
}

// Validate applies the per-field create rules to whichever fields are set.
func (r UpdateRequest) Validate() error {
	ve := &domain.ValidationError{}

	if r.Title != nil && utf8.RuneCountInString(*r.Title) > maxTitleLength {
		ve.Add("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	if r.Status != nil && !domain.ValidStatus(*r.Status) {
		ve.Add("status", fmt.Sprintf("unknown status %q", *r.Status))
	}
	if r.AIAnalysis != nil {
		if c := r.AIAnalysis.Categories.Confidence; c < 0 || c > 1 {
			ve.Add("ai_analysis.categories.confidence", "must be between 0 and 1")
		}
	}

	return ve.OrNil()
}

// NearbyQuery retrieves pins inside a map viewport. All four bounds are
// required and validated independently.
type NearbyQuery struct {
	Bounds     domain.GeoBounds `json:"bounds"`
	Limit      int              `json:"limit,omitempty"`
	Categories []string         `json:"categories,omitempty"`
}

// Validate range-checks each edge of the bounding box.
func (q NearbyQuery) Validate() error {
	ve := &domain.ValidationError{}

	if q.Bounds.North < -90 || q.Bounds.North > 90 {
		ve.Add("north", "must be between -90 and 90")
	}
	if q.Bounds.South < -90 || q.Bounds.South > 90 {
		ve.Add("south", "must be between -90 and 90")
	}
	if q.Bounds.East < -180 || q.Bounds.East > 180 {
		ve.Add("east", "must be between -180 and 180")
	}
	if q.Bounds.West < -180 || q.Bounds.West > 180 {
		ve.Add("west", "must be between -180 and 180")
	}
	if q.Bounds.South > q.Bounds.North {
		ve.Add("south", "must not exceed north")
	}
	if q.Limit < 0 {
		ve.Add("limit", "must not be negative")
	}

	return ve.OrNil()
}

// EffectiveLimit is the requested limit with the default and hard cap
// applied: 50 when unset, never more than 100.
func (q NearbyQuery) EffectiveLimit() int {
	return clampLimit(q.Limit)
}

// LocationFilter is the resolved form of a search query's lat/lng/radius
// trio.
type LocationFilter struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// SearchQuery retrieves pins through up to three ANDed filters plus
// pagination. An absent filter means no constraint on that dimension.
type SearchQuery struct {
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	RadiusKm *float64 `json:"radius,omitempty"`

	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Categories []string `json:"categories,omitempty"`
	Weather    []string `json:"weather,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// LocationFilter returns a location filter only when lat, lng, and radius
// are all present. A "some but not all" combination is a deliberate,
// documented leniency: it yields no location filter rather than an error.
func (q SearchQuery) LocationFilter() *LocationFilter {
	if q.Lat == nil || q.Lng == nil || q.RadiusKm == nil {
		return nil
	}
	return &LocationFilter{Lat: *q.Lat, Lng: *q.Lng, RadiusKm: *q.RadiusKm}
}

// Validate checks the location trio (only when complete), the time range,
// and pagination fields.
func (q SearchQuery) Validate() error {
	ve := &domain.ValidationError{}

	if loc := q.LocationFilter(); loc != nil {
		if loc.Lat < -90 || loc.Lat > 90 {
			ve.Add("lat", "must be between -90 and 90")
		}
		if loc.Lng < -180 || loc.Lng > 180 {
			ve.Add("lng", "must be between -180 and 180")
		}
		if loc.RadiusKm <= 0 {
			ve.Add("radius", "must be positive")
		}
	}
	if q.StartTime != nil && q.EndTime != nil && q.EndTime.Before(*q.StartTime) {
		ve.Add("end_time", "must not precede start_time")
	}
	if q.Limit < 0 {
		ve.Add("limit", "must not be negative")
	}
	if q.Offset < 0 {
		ve.Add("offset", "must not be negative")
	}

	return ve.OrNil()
}

// EffectiveLimit applies the default and hard cap: 50 when unset, never
// more than 100.
func (q SearchQuery) EffectiveLimit() int {
	return clampLimit(q.Limit)
}

// ReportRequest flags a pin for moderation.
type ReportRequest struct {
	Reason string `json:"reason"`
}

// Validate checks the free-text reason length.
func (r ReportRequest) Validate() error {
	ve := &domain.ValidationError{}
	if n := utf8.RuneCountInString(r.Reason); n < minReportReason || n > maxReportReason {
		ve.Add("reason", fmt.Sprintf("must be between %d and %d characters", minReportReason, maxReportReason))
	}
	return ve.OrNil()
}

func validateLocation(ve *domain.ValidationError, loc domain.Location) {
	if loc.Lat < -90 || loc.Lat > 90 {
		ve.Add("location.lat", "must be between -90 and 90")
	}
	if loc.Lng < -180 || loc.Lng > 180 {
		ve.Add("location.lng", "must be between -180 and 180")
	}
	if loc.Accuracy != nil && *loc.Accuracy <= 0 {
		ve.Add("location.accuracy", "must be positive")
	}
}

func validateAudio(ve *domain.ValidationError, audio domain.AudioRef) {
	if audio.URL == "" {
		ve.Add("audio.url", "is required")
	}
	if audio.DurationSeconds <= 0 || audio.DurationSeconds > domain.MaxAudioDurationSeconds {
		ve.Add("audio.duration_seconds",
			fmt.Sprintf("must be greater than 0 and at most %d", domain.MaxAudioDurationSeconds))
	}
	if !domain.ValidAudioFormat(audio.Format) {
		ve.Add("audio.format", fmt.Sprintf("unknown format %q", audio.Format))
	}
}

func validateWeather(ve *domain.ValidationError, w *domain.Weather) {
	if w.Humidity != nil && (*w.Humidity < 0 || *w.Humidity > 100) {
		ve.Add("weather.humidity", "must be between 0 and 100")
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
