package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soundpin/soundpin/internal/core/domain"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Details   []domain.FieldError `json:"details,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	RequestID string              `json:"requestId,omitempty"`
}

// respond wraps data in the success envelope. Every 2xx response goes
// through here so clients can branch on a single "success" flag.
func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// respondMeta is respond with an extra metadata object alongside data.
func respondMeta(c *fiber.Ctx, status int, data any, meta any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"meta":    meta,
	})
}

// newError builds the failure envelope with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string, details []domain.FieldError) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error": ErrorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC(),
			RequestID: reqID,
		},
	})
}

// respondError maps a domain error onto an HTTP status. Validation
// failures list every violated field; infrastructure failures hide
// their cause behind a generic message.
func respondError(c *fiber.Ctx, err error) error {
	if ve, ok := domain.AsValidation(err); ok {
		return newError(c, fiber.StatusBadRequest, "validation_error", ve.Error(), ve.Fields)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return newError(c, fiber.StatusNotFound, "not_found", "resource not found", nil)
	}
	if errors.Is(err, domain.ErrConflict) {
		return newError(c, fiber.StatusConflict, "conflict", "resource conflict", nil)
	}
	return newError(c, fiber.StatusInternalServerError, "internal_error", "internal server error", nil)
}

// errBadRequest returns a 400 error for malformed input that never
// reached domain validation (unparseable JSON, bad query types).
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg, nil)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg, nil)
}
