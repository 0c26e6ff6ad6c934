package ports

import (
	"context"

	"github.com/samirrijal/astrochart/internal/core/domain"
)

// ChartRequest asks for a chart to be computed asynchronously.
type ChartRequest struct {
	RequestID string                `json:"request_id"`
	Birth     domain.BirthMoment    `json:"birth"`
	Geo       *domain.GeoCoordinate `json:"geo,omitempty"`
}

// EventPublisher publishes chart events to a message broker.
type EventPublisher interface {
	PublishChartComputed(ctx context.Context, chart *domain.Chart) error
	PublishChartRequest(ctx context.Context, req *ChartRequest) error
}

// EventSubscriber consumes chart requests from a message broker.
type EventSubscriber interface {
	SubscribeChartRequests(ctx context.Context, handler func(ctx context.Context, req *ChartRequest) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
