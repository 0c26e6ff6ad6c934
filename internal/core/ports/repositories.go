package ports

import (
	"context"

	"github.com/samirrijal/astrochart/internal/core/domain"
)

// ChartRepository archives computed charts.
type ChartRepository interface {
	Save(ctx context.Context, chart *domain.Chart) error
	GetByID(ctx context.Context, id string) (*domain.Chart, error)
	// ListRecent returns charts newest first along with the total count.
	ListRecent(ctx context.Context, offset, limit int) ([]domain.Chart, int, error)
}
