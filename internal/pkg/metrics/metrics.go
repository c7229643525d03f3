package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundpin",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "soundpin",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "soundpin",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Pin metrics
	PinsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundpin",
		Subsystem: "pins",
		Name:      "created_total",
		Help:      "Total pins created",
	}, []string{"time_tag"})

	PinsReported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundpin",
		Subsystem: "pins",
		Name:      "reported_total",
		Help:      "Total pins flagged for moderation",
	})

	AnalysisCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundpin",
		Subsystem: "analysis",
		Name:      "completed_total",
		Help:      "Total audio analyses finished, by outcome",
	}, []string{"outcome"})

	// Live position feed metrics
	positionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundpin",
		Subsystem: "stream",
		Name:      "positions_accepted_total",
		Help:      "Positions accepted by the live feed after deduplication",
	})

	positionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundpin",
		Subsystem: "stream",
		Name:      "positions_dropped_total",
		Help:      "Positions dropped by the live feed as duplicates",
	})

	streamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "soundpin",
		Subsystem: "stream",
		Name:      "subscribers",
		Help:      "Current live feed subscriber count",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "soundpin",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundpin",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundpin",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "soundpin",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "soundpin",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "soundpin",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// StreamStats is the subset of live feed counters exported here. It
// matches stream.Stats without importing the stream package, keeping
// metrics free of domain dependencies.
type StreamStats struct {
	Subscribers int
	Accepted    uint64
	Dropped     uint64
}

// RecordPositionStream pushes a live feed snapshot into the gauges and
// counters. Counters are cumulative, so the caller passes absolute
// totals and this function tracks deltas.
var lastStream StreamStats

func RecordPositionStream(s StreamStats) {
	streamSubscribers.Set(float64(s.Subscribers))
	if d := s.Accepted - lastStream.Accepted; d > 0 {
		positionsAccepted.Add(float64(d))
	}
	if d := s.Dropped - lastStream.Dropped; d > 0 {
		positionsDropped.Add(float64(d))
	}
	lastStream = s
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	// Structural interface so the metrics package does not import
	// pgxpool directly.
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
