package domain

import "time"

// Location is a validated geographic coordinate (WGS 84).
type Location struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"` // meters, > 0 when present
}

// GeoBounds is an axis-aligned lat/lng rectangle used for map-viewport
// queries. Boxes that cross the anti-meridian (west > east) are not
// supported; see geo.IsWithinBounds.
type GeoBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Position is a raw reading from a live location source. Ephemeral: it is
// never persisted, only deduplicated and fanned out to stream subscribers.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters
	Timestamp time.Time `json:"timestamp"`
}
