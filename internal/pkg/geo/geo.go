package geo

import (
	"math"

	"github.com/soundpin/soundpin/internal/core/domain"
)

const (
	earthRadiusKm = 6371.0

	// kmPerDegreeLat is the approximate length of one degree of latitude.
	kmPerDegreeLat = 111.32
)

// Accuracy buckets for GPS readings.
const (
	AccuracyHigh   = "high"   // <= 10 m
	AccuracyMedium = "medium" // <= 50 m
	AccuracyLow    = "low"
)

// DistanceKm returns the great-circle distance between two points using the
// Haversine formula. Symmetric in its arguments and zero for identical
// points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceMeters is DistanceKm scaled to meters, for callers that work at
// street resolution (the position stream thresholds).
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceKm(lat1, lng1, lat2, lng2) * 1000
}

// IsWithinBounds reports whether a point falls inside a bounding box,
// inclusive on all edges.
//
// Boxes that cross the anti-meridian (west > east) are not handled: such a
// box matches nothing between east and west. Callers must not construct
// wrapping boxes; behavior for them is unspecified.
func IsWithinBounds(lat, lng float64, b domain.GeoBounds) bool {
	return lat >= b.South && lat <= b.North &&
		lng >= b.West && lng <= b.East
}

// BoundsFromRadius approximates a square bounding box around a center
// point. One degree of latitude is taken as 111.32 km; longitude degrees
// shrink by cos(lat). The result is a square, not a circle: callers that
// need circle-accurate membership must post-filter with DistanceKm.
func BoundsFromRadius(centerLat, centerLng, radiusKm float64) domain.GeoBounds {
	latDelta := radiusKm / kmPerDegreeLat
	lngDelta := radiusKm / (kmPerDegreeLat * math.Cos(toRad(centerLat)))

	return domain.GeoBounds{
		North: centerLat + latDelta,
		South: centerLat - latDelta,
		East:  centerLng + lngDelta,
		West:  centerLng - lngDelta,
	}
}

// ClassifyAccuracy buckets a GPS accuracy reading in meters.
func ClassifyAccuracy(accuracyMeters float64) string {
	switch {
	case accuracyMeters <= 10:
		return AccuracyHigh
	case accuracyMeters <= 50:
		return AccuracyMedium
	default:
		return AccuracyLow
	}
}

// NormalizeCoordinates wraps moderately out-of-range coordinates back into
// canonical ranges by repeated adjustment: latitude shifted by 180,
// longitude by 360. This is an approximation, not an exact modulo
// reduction; extreme inputs (thousands of degrees) converge slowly and are
// not a supported use.
func NormalizeCoordinates(lat, lng float64) (float64, float64) {
	for lat > 90 {
		lat -= 180
	}
	for lat < -90 {
		lat += 180
	}
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lat, lng
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
