package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/soundpin/soundpin/internal/adapters/http"
	natsadapter "github.com/soundpin/soundpin/internal/adapters/nats"
	"github.com/soundpin/soundpin/internal/adapters/postgres"
	"github.com/soundpin/soundpin/internal/adapters/valkey"
	"github.com/soundpin/soundpin/internal/core/ports"
	"github.com/soundpin/soundpin/internal/core/usecases"
	"github.com/soundpin/soundpin/internal/pkg/config"
	"github.com/soundpin/soundpin/internal/pkg/logging"
	"github.com/soundpin/soundpin/internal/pkg/metrics"
	"github.com/soundpin/soundpin/internal/pkg/telemetry"
	"github.com/soundpin/soundpin/internal/stream"
)

func main() {
	cfg, err := config.Load("soundpin-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		nc = nil
	} else {
		defer nc.Close()
	}

	// Raw NATS connection for WebSocket relay and the position feed
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Use cases. Typed nils must not leak into the interfaces.
	pinRepo := postgres.NewPinRepo(db)
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	var events ports.EventPublisher
	if nc != nil {
		events = nc
	}
	pinSvc := usecases.NewPinService(pinRepo, cacheSvc, events)

	// Live position feed
	var positions *stream.Manager
	if natsConn != nil {
		positions = stream.NewManagerWithThresholds(
			natsadapter.NewLocationSource(natsConn),
			cfg.Stream.MinDistanceMeters,
			time.Duration(cfg.Stream.MinIntervalSeconds)*time.Second,
		)
	}

	deps := &http.Dependencies{
		Pins:      pinSvc,
		Positions: positions,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Periodic metric scrape of pool and stream state
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
				if positions != nil {
					st := positions.Stats()
					metrics.RecordPositionStream(metrics.StreamStats{
						Subscribers: st.Subscribers,
						Accepted:    st.Accepted,
						Dropped:     st.Dropped,
					})
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "SoundPin API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.soundpin.app",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
