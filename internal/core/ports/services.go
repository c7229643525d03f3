package ports

import (
	"context"

	"github.com/soundpin/soundpin/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPinCreated(ctx context.Context, pin *domain.Pin) error
	PublishPinReported(ctx context.Context, pinID, reason string) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePinCreated(ctx context.Context, handler func(ctx context.Context, pin *domain.Pin) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// AnalyzerClient invokes the external audio-analysis service.
type AnalyzerClient interface {
	Analyze(ctx context.Context, audioURL string) (*domain.AIAnalysis, error)
}

// LocationSource is a continuous feed of raw device positions. Subscribe
// opens the underlying feed and returns a stop function; onPosition and
// onError are invoked serially, in arrival order, from a single goroutine.
type LocationSource interface {
	Subscribe(onPosition func(domain.Position), onError func(error)) (stop func(), err error)
}
