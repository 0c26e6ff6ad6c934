package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/ports"
)

// ChartRepo implements ports.ChartRepository with pgx. The full chart is
// kept as JSONB next to a few columns that are queried directly.
type ChartRepo struct {
	db *DB
}

var _ ports.ChartRepository = (*ChartRepo)(nil)

// NewChartRepo creates a new ChartRepo.
func NewChartRepo(db *DB) *ChartRepo {
	return &ChartRepo{db: db}
}

// Save archives a chart. Saving the same chart twice is a no-op.
func (r *ChartRepo) Save(ctx context.Context, c *domain.Chart) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	birth, err := json.Marshal(c.Birth)
	if err != nil {
		return fmt.Errorf("encode birth: %w", err)
	}
	var geo []byte
	if c.Geo != nil {
		if geo, err = json.Marshal(c.Geo); err != nil {
			return fmt.Errorf("encode geo: %w", err)
		}
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO charts (id, birth, geo, julian_day, house_system, chart, computed_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, c.ID, birth, geo, float64(c.JulianDay), string(c.HouseSystem), doc, c.ComputedAt)
	if err != nil {
		return fmt.Errorf("insert chart %s: %w", c.ID, err)
	}
	return nil
}

// GetByID returns an archived chart by UUID.
func (r *ChartRepo) GetByID(ctx context.Context, id string) (*domain.Chart, error) {
	var doc []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT chart FROM charts WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrChartNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decodeChart(doc)
}

// ListRecent returns archived charts, newest first, and the total count.
func (r *ChartRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.Chart, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM charts`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT chart FROM charts
		ORDER BY computed_at DESC, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	charts := make([]domain.Chart, 0, limit)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, err
		}
		c, err := decodeChart(doc)
		if err != nil {
			return nil, 0, err
		}
		charts = append(charts, *c)
	}
	return charts, total, rows.Err()
}

func decodeChart(doc []byte) (*domain.Chart, error) {
	var c domain.Chart
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return &c, nil
}
