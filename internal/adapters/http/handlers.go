package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/core/requests"
	"github.com/soundpin/soundpin/internal/pkg/metrics"
)

// CreatePinHandler creates a single pin from a JSON body.
func CreatePinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req requests.CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		pin, err := deps.Pins.CreatePin(c.Context(), req)
		if err != nil {
			return respondError(c, err)
		}
		metrics.PinsCreated.WithLabelValues(string(pin.TimeTag)).Inc()
		return respond(c, fiber.StatusOK, pin)
	}
}

// BatchCreatePinsHandler creates many pins in one call. Elements fail
// independently; the meta object reports how many made it.
func BatchCreatePinsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Pins []requests.CreateRequest `json:"pins"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if len(body.Pins) == 0 {
			return errBadRequest(c, "pins array is required")
		}
		if len(body.Pins) > 100 {
			return errBadRequest(c, "maximum 100 pins per batch")
		}

		res := deps.Pins.CreatePinsBatch(c.Context(), body.Pins)
		for i := range res.Pins {
			metrics.PinsCreated.WithLabelValues(string(res.Pins[i].TimeTag)).Inc()
		}
		return respondMeta(c, fiber.StatusOK, res.Pins, fiber.Map{
			"requested": res.Requested,
			"created":   res.Created,
		})
	}
}

// GetPinHandler returns a single pin by ID.
func GetPinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "pin id is required")
		}
		pin, err := deps.Pins.GetPinByID(c.Context(), id)
		if err != nil {
			return respondError(c, err)
		}
		return respond(c, fiber.StatusOK, pin)
	}
}

// UpdatePinHandler applies a partial patch to a pin.
func UpdatePinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "pin id is required")
		}

		var req requests.UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		pin, err := deps.Pins.UpdatePin(c.Context(), id, req)
		if err != nil {
			return respondError(c, err)
		}
		return respond(c, fiber.StatusOK, pin)
	}
}

// DeletePinHandler removes a pin.
func DeletePinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "pin id is required")
		}
		if err := deps.Pins.DeletePin(c.Context(), id); err != nil {
			return respondError(c, err)
		}
		return respond(c, fiber.StatusOK, fiber.Map{"deleted": true})
	}
}

// ReportPinHandler flags a pin for moderation.
func ReportPinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "pin id is required")
		}

		var req requests.ReportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		if err := deps.Pins.ReportPin(c.Context(), id, req); err != nil {
			return respondError(c, err)
		}
		metrics.PinsReported.Inc()
		return respond(c, fiber.StatusOK, fiber.Map{"reported": true})
	}
}

// NearbyPinsHandler returns pins inside a map viewport.
// GET /v1/pins/nearby?north=..&south=..&east=..&west=..&limit=..&categories=a,b
func NearbyPinsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		edges := map[string]float64{}
		for _, p := range []string{"north", "south", "east", "west"} {
			raw := c.Query(p)
			if raw == "" {
				return errBadRequest(c, p+" query parameter is required")
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errBadRequest(c, p+" must be a number")
			}
			edges[p] = v
		}

		q := requests.NearbyQuery{
			Bounds: domain.GeoBounds{
				North: edges["north"],
				South: edges["south"],
				East:  edges["east"],
				West:  edges["west"],
			},
			Limit:      c.QueryInt("limit", 0),
			Categories: splitCSV(c.Query("categories")),
		}

		pins, err := deps.Pins.GetNearbyPins(c.Context(), q)
		if err != nil {
			return respondError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=60")
		return respond(c, fiber.StatusOK, pins)
	}
}

// SearchPinsHandler runs a combined pin search. The lat/lng/radius trio
// only takes effect when all three are present; a partial trio is
// ignored rather than rejected.
// GET /v1/pins/search?lat=..&lng=..&radius=..&start_time=..&end_time=..&categories=..&weather=..&limit=..&offset=..
func SearchPinsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q requests.SearchQuery

		for name, dst := range map[string]**float64{
			"lat": &q.Lat, "lng": &q.Lng, "radius": &q.RadiusKm,
		} {
			raw := c.Query(name)
			if raw == "" {
				continue
			}
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errBadRequest(c, name+" must be a number")
			}
			*dst = &f
		}

		if raw := c.Query("start_time"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "start_time must be RFC 3339")
			}
			q.StartTime = &t
		}
		if raw := c.Query("end_time"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "end_time must be RFC 3339")
			}
			q.EndTime = &t
		}

		q.Categories = splitCSV(c.Query("categories"))
		q.Weather = splitCSV(c.Query("weather"))
		q.Limit = c.QueryInt("limit", 0)
		q.Offset = c.QueryInt("offset", 0)

		pins, err := deps.Pins.SearchPins(c.Context(), q)
		if err != nil {
			return respondError(c, err)
		}
		SetLinkHeaders(c, Pagination{Offset: q.Offset, Limit: q.EffectiveLimit(), Count: len(pins)})
		return respond(c, fiber.StatusOK, pins)
	}
}

// UserPinsHandler lists every pin owned by a user.
func UserPinsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}
		pins, err := deps.Pins.GetUserPins(c.Context(), userID)
		if err != nil {
			return respondError(c, err)
		}
		return respond(c, fiber.StatusOK, pins)
	}
}

// PositionStreamStatsHandler exposes live feed counters for debugging.
func PositionStreamStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Positions == nil {
			return errInternal(c, "position stream not available")
		}
		st := deps.Positions.Stats()
		return respond(c, fiber.StatusOK, fiber.Map{
			"subscribers": st.Subscribers,
			"accepted":    st.Accepted,
			"dropped":     st.Dropped,
		})
	}
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
