package requests

import (
	"strings"
	"testing"
	"time"

	"github.com/soundpin/soundpin/internal/core/domain"
)

func validCreate() CreateRequest {
	return CreateRequest{
		OwnerID:  "user-1",
		Location: domain.Location{Lat: 35.0, Lng: 139.0},
		Audio:    domain.AudioRef{URL: "https://cdn.example/a.webm", DurationSeconds: 5, Format: domain.FormatWebM},
	}
}

func TestCreateRequest_Valid(t *testing.T) {
	if err := validCreate().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateRequest_InvalidFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateRequest)
		field  string
	}{
		{"lat too high", func(r *CreateRequest) { r.Location.Lat = 91 }, "location.lat"},
		{"lng too low", func(r *CreateRequest) { r.Location.Lng = -181 }, "location.lng"},
		{"zero accuracy", func(r *CreateRequest) { zero := 0.0; r.Location.Accuracy = &zero }, "location.accuracy"},
		{"missing audio url", func(r *CreateRequest) { r.Audio.URL = "" }, "audio.url"},
		{"zero duration", func(r *CreateRequest) { r.Audio.DurationSeconds = 0 }, "audio.duration_seconds"},
		{"duration over cap", func(r *CreateRequest) { r.Audio.DurationSeconds = 601 }, "audio.duration_seconds"},
		{"bad format", func(r *CreateRequest) { r.Audio.Format = "ogg" }, "audio.format"},
		{"bad time tag", func(r *CreateRequest) { r.TimeTag = "noon" }, "time_tag"},
		{"title too long", func(r *CreateRequest) { r.Title = strings.Repeat("x", 201) }, "title"},
		{"humidity over 100", func(r *CreateRequest) {
			h := 101.0
			r.Weather = &domain.Weather{Condition: "rain", Humidity: &h}
		}, "weather.humidity"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validCreate()
			c.mutate(&req)
			err := req.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			ve, ok := domain.AsValidation(err)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			found := false
			for _, f := range ve.Fields {
				if f.Field == c.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected violation on %s, got %v", c.field, ve.Fields)
			}
		})
	}
}

func TestCreateRequest_DurationAtCap(t *testing.T) {
	req := validCreate()
	req.Audio.DurationSeconds = 600
	if err := req.Validate(); err != nil {
		t.Errorf("600s is the inclusive cap, got %v", err)
	}
}

func TestCreateRequest_ReportsAllViolations(t *testing.T) {
	req := validCreate()
	req.Location.Lat = 91
	req.Audio.Format = "flac"
	err := req.Validate()
	ve, ok := domain.AsValidation(err)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Errorf("expected 2 violations, got %v", ve.Fields)
	}
}

func TestUpdateRequest_PartialPatch(t *testing.T) {
	if err := (UpdateRequest{}).Validate(); err != nil {
		t.Errorf("empty patch must be valid, got %v", err)
	}

	bad := domain.PinStatus("archived")
	if err := (UpdateRequest{Status: &bad}).Validate(); err == nil {
		t.Error("expected error for unknown status")
	}

	long := strings.Repeat("x", 201)
	if err := (UpdateRequest{Title: &long}).Validate(); err == nil {
		t.Error("expected error for overlong title")
	}

	if err := (UpdateRequest{AIAnalysis: &domain.AIAnalysis{
		Categories: domain.AICategories{Confidence: 1.5},
	}}).Validate(); err == nil {
		t.Error("expected error for confidence > 1")
	}
}

func TestNearbyQuery_Validate(t *testing.T) {
	ok := NearbyQuery{Bounds: domain.GeoBounds{North: 36, South: 34, East: 140, West: 138}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := NearbyQuery{Bounds: domain.GeoBounds{North: 95, South: 34, East: 140, West: 138}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for north out of range")
	}

	inverted := NearbyQuery{Bounds: domain.GeoBounds{North: 34, South: 36, East: 140, West: 138}}
	if err := inverted.Validate(); err == nil {
		t.Error("expected error for south > north")
	}
}

func TestNearbyQuery_EffectiveLimit(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 50},
		{10, 10},
		{100, 100},
		{101, 100},
		{999, 100},
	}
	for _, c := range cases {
		q := NearbyQuery{Limit: c.in}
		if got := q.EffectiveLimit(); got != c.want {
			t.Errorf("EffectiveLimit(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestSearchQuery_LocationFilterTrio(t *testing.T) {
	lat, lng, r := 35.0, 139.0, 1.0

	full := SearchQuery{Lat: &lat, Lng: &lng, RadiusKm: &r}
	if full.LocationFilter() == nil {
		t.Error("complete trio must produce a location filter")
	}

	// Any incomplete combination is "no location filter", not an error.
	partials := []SearchQuery{
		{Lat: &lat},
		{Lng: &lng},
		{RadiusKm: &r},
		{Lat: &lat, Lng: &lng},
		{Lat: &lat, RadiusKm: &r},
		{Lng: &lng, RadiusKm: &r},
	}
	for i, q := range partials {
		if q.LocationFilter() != nil {
			t.Errorf("partial trio %d must not produce a location filter", i)
		}
		if err := q.Validate(); err != nil {
			t.Errorf("partial trio %d must validate, got %v", i, err)
		}
	}
}

func TestSearchQuery_Validate(t *testing.T) {
	lat, lng := 35.0, 139.0
	negative := -1.0
	if err := (SearchQuery{Lat: &lat, Lng: &lng, RadiusKm: &negative}).Validate(); err == nil {
		t.Error("expected error for non-positive radius")
	}

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	if err := (SearchQuery{StartTime: &start, EndTime: &end}).Validate(); err == nil {
		t.Error("expected error for end before start")
	}

	if err := (SearchQuery{Offset: -1}).Validate(); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestReportRequest_ReasonLength(t *testing.T) {
	if err := (ReportRequest{Reason: "too short"}).Validate(); err == nil {
		t.Error("9-char reason must fail")
	}
	if err := (ReportRequest{Reason: "this is a sufficiently long reason"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (ReportRequest{Reason: strings.Repeat("x", 1001)}).Validate(); err == nil {
		t.Error("1001-char reason must fail")
	}
}

// Lengths are measured in characters. A 4-character CJK reason is 12
// bytes but still too short, and a 200-character CJK title is fine.
func TestLengthLimitsCountRunes(t *testing.T) {
	if err := (ReportRequest{Reason: strings.Repeat("音", 4)}).Validate(); err == nil {
		t.Error("4-char multibyte reason must fail the 10-char minimum")
	}
	if err := (ReportRequest{Reason: strings.Repeat("音", 10)}).Validate(); err != nil {
		t.Errorf("10-char multibyte reason: unexpected error: %v", err)
	}

	req := validCreate()
	req.Title = strings.Repeat("音", 200)
	if err := req.Validate(); err != nil {
		t.Errorf("200-char multibyte title: unexpected error: %v", err)
	}
	req.Title = strings.Repeat("音", 201)
	if err := req.Validate(); err == nil {
		t.Error("201-char multibyte title must fail")
	}

	long := strings.Repeat("音", 201)
	if err := (UpdateRequest{Title: &long}).Validate(); err == nil {
		t.Error("201-char multibyte patch title must fail")
	}
}

// Fractional durations are legal; the store keeps them as float8 and
// must not round them.
func TestCreateRequest_FractionalDuration(t *testing.T) {
	req := validCreate()
	req.Audio.DurationSeconds = 12.5
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
