package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/soundpin/soundpin/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later", nil)
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Post("/pins", timeout.NewWithContext(CreatePinHandler(deps), 15*time.Second))
	v1.Post("/pins/batch", timeout.NewWithContext(BatchCreatePinsHandler(deps), 15*time.Second))
	v1.Get("/pins/nearby", timeout.NewWithContext(NearbyPinsHandler(deps), 15*time.Second))
	v1.Get("/pins/search", timeout.NewWithContext(SearchPinsHandler(deps), 15*time.Second))
	v1.Get("/pins/user/:id", timeout.NewWithContext(UserPinsHandler(deps), 15*time.Second))
	v1.Get("/pins/:id", timeout.NewWithContext(GetPinHandler(deps), 15*time.Second))
	v1.Put("/pins/:id", timeout.NewWithContext(UpdatePinHandler(deps), 15*time.Second))
	v1.Patch("/pins/:id", timeout.NewWithContext(UpdatePinHandler(deps), 15*time.Second))
	v1.Delete("/pins/:id", timeout.NewWithContext(DeletePinHandler(deps), 15*time.Second))
	v1.Post("/pins/:id/report", timeout.NewWithContext(ReportPinHandler(deps), 15*time.Second))
	v1.Get("/users/:id/pins", timeout.NewWithContext(UserPinsHandler(deps), 15*time.Second))

	// Live feed introspection
	v1.Get("/stream/stats", PositionStreamStatsHandler(deps))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
