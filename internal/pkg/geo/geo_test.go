package geo

import (
	"math"
	"testing"

	"github.com/soundpin/soundpin/internal/core/domain"
)

func TestDistanceKm_ZeroForIdenticalPoints(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{35.0, 139.0},
		{-89.9, 179.9},
		{43.263, -2.935},
	}
	for _, p := range points {
		if d := DistanceKm(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("DistanceKm(%v, %v, same) = %v, want 0", p[0], p[1], d)
		}
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(35.0, 139.0, 48.85, 2.35)
	b := DistanceKm(48.85, 2.35, 35.0, 139.0)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Tokyo to Osaka, roughly 400 km.
	d := DistanceKm(35.6762, 139.6503, 34.6937, 135.5023)
	if d < 390 || d > 410 {
		t.Errorf("Tokyo-Osaka distance = %v km, want ~400", d)
	}
}

func TestIsWithinBounds_Inclusive(t *testing.T) {
	b := domain.GeoBounds{North: 36, South: 34, East: 140, West: 138}

	cases := []struct {
		lat, lng float64
		want     bool
	}{
		{35, 139, true},
		{36, 140, true}, // on the corner, edges are inclusive
		{34, 138, true},
		{36.001, 139, false},
		{35, 140.001, false},
		{33.999, 139, false},
	}
	for _, c := range cases {
		if got := IsWithinBounds(c.lat, c.lng, b); got != c.want {
			t.Errorf("IsWithinBounds(%v, %v) = %v, want %v", c.lat, c.lng, got, c.want)
		}
	}
}

func TestBoundsFromRadius_ContainsCenter(t *testing.T) {
	for _, r := range []float64{0.001, 0.5, 1, 10, 500} {
		b := BoundsFromRadius(35.0, 139.0, r)
		if !IsWithinBounds(35.0, 139.0, b) {
			t.Errorf("center not within BoundsFromRadius(r=%v): %+v", r, b)
		}
	}
}

func TestBoundsFromRadius_ApproximateSize(t *testing.T) {
	// At the equator 1 degree of latitude is ~111.32 km, so a 111.32 km
	// radius yields a box one degree out in each direction.
	b := BoundsFromRadius(0, 0, kmPerDegreeLat)
	if math.Abs(b.North-1) > 1e-9 || math.Abs(b.South+1) > 1e-9 {
		t.Errorf("latitude delta wrong: %+v", b)
	}
	if math.Abs(b.East-1) > 1e-9 || math.Abs(b.West+1) > 1e-9 {
		t.Errorf("longitude delta wrong at equator: %+v", b)
	}
}

func TestClassifyAccuracy(t *testing.T) {
	cases := []struct {
		meters float64
		want   string
	}{
		{1, AccuracyHigh},
		{10, AccuracyHigh},
		{10.1, AccuracyMedium},
		{50, AccuracyMedium},
		{51, AccuracyLow},
		{2000, AccuracyLow},
	}
	for _, c := range cases {
		if got := ClassifyAccuracy(c.meters); got != c.want {
			t.Errorf("ClassifyAccuracy(%v) = %s, want %s", c.meters, got, c.want)
		}
	}
}

func TestNormalizeCoordinates(t *testing.T) {
	cases := []struct {
		lat, lng         float64
		wantLat, wantLng float64
	}{
		{35, 139, 35, 139},
		{35, 181, 35, -179},
		{35, -181, 35, 179},
		{35, 360 + 139, 35, 139},
		{91, 0, -89, 0},
		{-91, 0, 89, 0},
	}
	for _, c := range cases {
		lat, lng := NormalizeCoordinates(c.lat, c.lng)
		if math.Abs(lat-c.wantLat) > 1e-9 || math.Abs(lng-c.wantLng) > 1e-9 {
			t.Errorf("NormalizeCoordinates(%v, %v) = (%v, %v), want (%v, %v)",
				c.lat, c.lng, lat, lng, c.wantLat, c.wantLng)
		}
	}
}
