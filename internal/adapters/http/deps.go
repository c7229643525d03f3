package http

import (
	"github.com/nats-io/nats.go"

	"github.com/soundpin/soundpin/internal/adapters/postgres"
	"github.com/soundpin/soundpin/internal/adapters/valkey"
	"github.com/soundpin/soundpin/internal/core/usecases"
	"github.com/soundpin/soundpin/internal/stream"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Pins      *usecases.PinService
	Positions *stream.Manager
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
