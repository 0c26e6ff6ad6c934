//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/astrochart/internal/adapters/postgres"
	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/pkg/config"
)

// setupTestDB connects to the database named by the ASTROCHART_DATABASE_*
// settings. The charts migration must already be applied.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("astrochart-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func testChart(t *testing.T) *domain.Chart {
	t.Helper()
	birth, err := domain.NewBirthMoment(1990, 6, 15, 14, 30, -3)
	if err != nil {
		t.Fatal(err)
	}
	return &domain.Chart{
		ID:          uuid.New(),
		Birth:       birth,
		Geo:         &domain.GeoCoordinate{Latitude: -23.55, Longitude: -46.63},
		JulianDay:   2448058.229,
		HouseSystem: domain.HousePlacidus,
		Positions: []domain.PositionResult{
			{Body: domain.Sun, Sign: domain.Gemini, Longitude: 84.2, DegreeInSign: 24.2, OK: true},
		},
		Houses:     []domain.HouseCusp{domain.NewHouseCusp(1, 250)},
		Angles:     []domain.AngularPoint{domain.NewAngularPoint(domain.Ascendant, 250)},
		ComputedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestChartRepo_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewChartRepo(db)
	ctx := context.Background()

	c := testChart(t)
	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Idempotent
	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := repo.GetByID(ctx, c.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != c.ID || got.Birth != c.Birth || len(got.Positions) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if sun, _ := got.Position(domain.Sun); sun.Sign != domain.Gemini {
		t.Errorf("expected sun in gemini, got %v", sun.Sign)
	}
}

func TestChartRepo_GetByID_NotFound(t *testing.T) {
	repo := postgres.NewChartRepo(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrChartNotFound) {
		t.Fatalf("expected ErrChartNotFound, got %v", err)
	}
}

func TestChartRepo_ListRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewChartRepo(db)
	ctx := context.Background()

	older, newer := testChart(t), testChart(t)
	older.ComputedAt = time.Now().Add(-time.Hour).UTC()
	for _, c := range []*domain.Chart{older, newer} {
		if err := repo.Save(ctx, c); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	charts, total, err := repo.ListRecent(ctx, 0, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total < 2 || len(charts) != 1 {
		t.Fatalf("expected 1 of >=2 charts, got %d of %d", len(charts), total)
	}
	if charts[0].ComputedAt.Before(older.ComputedAt) {
		t.Errorf("expected newest first")
	}
}
