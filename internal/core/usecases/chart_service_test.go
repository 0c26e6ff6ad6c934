package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/ports"
	"github.com/samirrijal/astrochart/internal/core/usecases"
)

func newChartService(p ports.EphemerisProvider, opts ...usecases.ChartOption) *usecases.ChartService {
	return usecases.NewChartService(
		usecases.NewPositionResolver(p, nil),
		usecases.NewHouseCalculator(p, domain.HousePlacidus),
		opts...,
	)
}

func TestBuildChart_FullChart(t *testing.T) {
	svc := newChartService(&stubProvider{})
	birth := mustBirth(t, 1990, 6, 15, 14, 30, -3)

	chart, err := svc.BuildChart(context.Background(), birth, &saoPaulo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chart.Positions) != domain.BodyCount {
		t.Errorf("expected %d positions, got %d", domain.BodyCount, len(chart.Positions))
	}
	if !chart.HasHouses() {
		t.Fatalf("expected 12 houses, got %d", len(chart.Houses))
	}
	if len(chart.Angles) != 4 {
		t.Fatalf("expected 4 angles, got %d", len(chart.Angles))
	}
	if chart.HouseSystem != domain.HousePlacidus {
		t.Errorf("expected house system P, got %q", chart.HouseSystem)
	}
	asc, _ := chart.Angle(domain.Ascendant)
	if asc.Longitude != chart.Houses[0].Longitude {
		t.Errorf("ascendant %v should equal first cusp %v", asc.Longitude, chart.Houses[0].Longitude)
	}
	if math.Abs(float64(chart.JulianDay)-2448058.2291667) > 1e-6 {
		t.Errorf("unexpected JD %.7f", float64(chart.JulianDay))
	}
	if chart.ID.String() == "" || chart.ComputedAt.IsZero() {
		t.Error("expected chart identity and timestamp")
	}
	sun, ok := chart.Position(domain.Sun)
	if !ok || sun.Sign != domain.Aries {
		t.Errorf("expected sun in Aries from stub, got %+v", sun)
	}
}

func TestBuildChart_UnknownTimeHasNoHouses(t *testing.T) {
	var houseCalls atomic.Int32
	p := &stubProvider{
		housesFn: func(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
			houseCalls.Add(1)
			return equalCusps(0), nil
		},
	}
	svc := newChartService(p)
	birth := mustBirth(t, 1985, 3, 10, domain.UnknownClock, domain.UnknownClock, 1)

	chart, err := svc.BuildChart(context.Background(), birth, &saoPaulo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chart.Birth.TimeKnown {
		t.Error("expected TimeKnown=false")
	}
	if len(chart.Positions) != domain.BodyCount {
		t.Errorf("expected %d positions, got %d", domain.BodyCount, len(chart.Positions))
	}
	if len(chart.Houses) != 0 || len(chart.Angles) != 0 {
		t.Errorf("expected no houses or angles, got %d/%d", len(chart.Houses), len(chart.Angles))
	}
	if chart.Houses == nil || chart.Angles == nil {
		t.Error("empty house data should be non-nil so it encodes as []")
	}
	if houseCalls.Load() != 0 {
		t.Errorf("houses should not be queried, got %d calls", houseCalls.Load())
	}
}

func TestBuildChart_NoLocationHasNoHouses(t *testing.T) {
	svc := newChartService(&stubProvider{})

	chart, err := svc.BuildChart(context.Background(), mustBirth(t, 2000, 1, 1, 12, 0, 0), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chart.HasHouses() || chart.Geo != nil || chart.HouseSystem != "" {
		t.Errorf("expected positions-only chart, got %+v", chart)
	}
}

func TestBuildChart_PartialBodyFailure(t *testing.T) {
	p := &stubProvider{
		longitudeFn: func(ctx context.Context, jd domain.JulianDay, body domain.Body, flags ports.CalcFlags) (ports.BodyLongitude, error) {
			if body == domain.Pluto {
				return ports.BodyLongitude{}, errors.New("outside table range")
			}
			return ports.BodyLongitude{Longitude: 42}, nil
		},
	}
	repo := &mockChartRepo{}
	cache := newMockCache()
	svc := newChartService(p, usecases.WithChartRepository(repo), usecases.WithCache(cache, 60))

	chart, err := svc.BuildChart(context.Background(), mustBirth(t, 1700, 1, 1, 0, 0, 0), &saoPaulo)
	if err != nil {
		t.Fatalf("partial failure should not fail the chart: %v", err)
	}
	if len(chart.Positions) != domain.BodyCount {
		t.Fatalf("expected %d positions, got %d", domain.BodyCount, len(chart.Positions))
	}
	pluto, _ := chart.Position(domain.Pluto)
	if pluto.OK || !errors.Is(pluto.Err, domain.ErrBodyComputation) {
		t.Errorf("expected pluto failure, got %+v", pluto)
	}
	if !chart.HasHouses() {
		t.Error("body failure should not affect houses")
	}
	if len(repo.saved) != 1 {
		t.Errorf("degraded chart should still be archived")
	}
	if cache.sets != 0 {
		t.Errorf("degraded chart should not be cached")
	}
}

func TestBuildChart_PolarLatitudeDegrades(t *testing.T) {
	p := &stubProvider{
		housesFn: func(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
			return [domain.HouseCount]float64{}, fmt.Errorf("%w: polar", domain.ErrHouseSystemUndefined)
		},
	}
	svc := newChartService(p)
	tromso := domain.GeoCoordinate{Latitude: 69.65, Longitude: 18.96}

	chart, err := svc.BuildChart(context.Background(), mustBirth(t, 1990, 12, 21, 12, 0, 1), &tromso)
	if err != nil {
		t.Fatalf("undefined houses should degrade, not fail: %v", err)
	}
	if len(chart.Houses) != 0 || len(chart.Angles) != 0 {
		t.Errorf("expected no houses, got %d", len(chart.Houses))
	}
	if chart.HouseSystem != "" {
		t.Errorf("expected empty house system, got %q", chart.HouseSystem)
	}
	for _, pos := range chart.Positions {
		if !pos.OK {
			t.Errorf("%s should still be computed", pos.Body)
		}
	}
}

func TestBuildChart_ProviderUnavailableIsFatal(t *testing.T) {
	p := &stubProvider{
		longitudeFn: func(ctx context.Context, jd domain.JulianDay, body domain.Body, flags ports.CalcFlags) (ports.BodyLongitude, error) {
			if body == domain.Saturn {
				return ports.BodyLongitude{}, fmt.Errorf("%w: ephemeris files missing", domain.ErrProviderUnavailable)
			}
			return ports.BodyLongitude{Longitude: 1}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newChartService(p, usecases.WithPublisher(pub))

	chart, err := svc.BuildChart(context.Background(), mustBirth(t, 1990, 6, 15, 14, 30, -3), &saoPaulo)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if chart != nil {
		t.Error("expected no chart")
	}
	if len(pub.computed) != 0 {
		t.Error("failed chart should not be published")
	}
}

func TestBuildChart_HouseProviderUnavailableIsFatal(t *testing.T) {
	p := &stubProvider{
		housesFn: func(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
			return [domain.HouseCount]float64{}, domain.ErrProviderUnavailable
		},
	}
	_, err := newChartService(p).BuildChart(context.Background(), mustBirth(t, 1990, 6, 15, 14, 30, -3), &saoPaulo)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestBuildChart_InvalidInput(t *testing.T) {
	svc := newChartService(&stubProvider{})
	ctx := context.Background()

	_, err := svc.BuildChart(ctx, domain.BirthMoment{Year: 1990, Month: 13, Day: 1, TimeKnown: true}, nil)
	if !errors.Is(err, domain.ErrInvalidBirthMoment) {
		t.Errorf("expected ErrInvalidBirthMoment, got %v", err)
	}

	bad := domain.GeoCoordinate{Latitude: 12, Longitude: 200}
	_, err = svc.BuildChart(ctx, mustBirth(t, 1990, 1, 1, 0, 0, 0), &bad)
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestBuildChart_ArchivesCachesAndPublishes(t *testing.T) {
	var calls atomic.Int32
	p := &stubProvider{
		longitudeFn: func(ctx context.Context, jd domain.JulianDay, body domain.Body, flags ports.CalcFlags) (ports.BodyLongitude, error) {
			calls.Add(1)
			return ports.BodyLongitude{Longitude: 123.5}, nil
		},
	}
	repo := &mockChartRepo{}
	cache := newMockCache()
	pub := &mockPublisher{}
	svc := newChartService(p,
		usecases.WithChartRepository(repo),
		usecases.WithCache(cache, 60),
		usecases.WithPublisher(pub),
	)
	birth := mustBirth(t, 1990, 6, 15, 14, 30, -3)

	first, err := svc.BuildChart(context.Background(), birth, &saoPaulo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 1 || len(pub.computed) != 1 || cache.sets != 1 {
		t.Fatalf("expected save/publish/cache once, got %d/%d/%d", len(repo.saved), len(pub.computed), cache.sets)
	}

	second, err := svc.BuildChart(context.Background(), birth, &saoPaulo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected cached chart %s, got %s", first.ID, second.ID)
	}
	if calls.Load() != domain.BodyCount {
		t.Errorf("expected provider to be queried once per body, got %d", calls.Load())
	}
	if len(second.Houses) != domain.HouseCount {
		t.Errorf("cached chart lost its houses")
	}
}

func TestBuildChart_CancelledContextIsNotArchived(t *testing.T) {
	repo := &mockChartRepo{}
	pub := &mockPublisher{}
	cache := newMockCache()
	p := &stubProvider{
		longitudeFn: func(ctx context.Context, jd domain.JulianDay, body domain.Body, flags ports.CalcFlags) (ports.BodyLongitude, error) {
			return ports.BodyLongitude{}, ctx.Err()
		},
	}
	svc := newChartService(p,
		usecases.WithChartRepository(repo),
		usecases.WithCache(cache, 60),
		usecases.WithPublisher(pub),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chart, err := svc.BuildChart(ctx, mustBirth(t, 1990, 6, 15, 14, 30, -3), &saoPaulo)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if chart != nil {
		t.Errorf("expected no chart, got %+v", chart)
	}
	if len(repo.saved) != 0 || len(pub.computed) != 0 || cache.sets != 0 {
		t.Errorf("expected nothing archived, got save/publish/cache %d/%d/%d", len(repo.saved), len(pub.computed), cache.sets)
	}
}

func TestBuildChart_CacheKeyUsesExactCoordinates(t *testing.T) {
	cache := newMockCache()
	svc := newChartService(&stubProvider{}, usecases.WithCache(cache, 60))
	birth := mustBirth(t, 1990, 6, 15, 14, 30, -3)

	near := domain.GeoCoordinate{Latitude: -23.55001, Longitude: -46.63}
	first, err := svc.BuildChart(context.Background(), birth, &saoPaulo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.BuildChart(context.Background(), birth, &near)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.ID == first.ID {
		t.Fatal("nearby coordinates must not share a cached chart")
	}
	if *second.Geo != near {
		t.Errorf("expected geo %+v, got %+v", near, *second.Geo)
	}
	if cache.sets != 2 {
		t.Errorf("expected two cache entries, got %d", cache.sets)
	}

	offset := mustBirth(t, 1990, 6, 15, 14, 30, -3.001)
	third, err := svc.BuildChart(context.Background(), offset, &saoPaulo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.ID == first.ID {
		t.Error("distinct UTC offsets must not share a cached chart")
	}
}

func TestBuildChart_ArchiveFailureIsNotFatal(t *testing.T) {
	repo := &mockChartRepo{saveFn: func(ctx context.Context, c *domain.Chart) error { return errors.New("db down") }}
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := newChartService(&stubProvider{}, usecases.WithChartRepository(repo), usecases.WithPublisher(pub))

	if _, err := svc.BuildChart(context.Background(), mustBirth(t, 1990, 6, 15, 14, 30, -3), nil); err != nil {
		t.Fatalf("archive failures should be swallowed: %v", err)
	}
}

func TestGetChart(t *testing.T) {
	id := "0b8f6b52-6a43-4c44-9c1e-6d3a2f2b7f10"
	repo := &mockChartRepo{
		getByIDFn: func(ctx context.Context, got string) (*domain.Chart, error) {
			if got != id {
				return nil, domain.ErrChartNotFound
			}
			return &domain.Chart{}, nil
		},
	}
	svc := newChartService(&stubProvider{}, usecases.WithChartRepository(repo))

	if _, err := svc.GetChart(context.Background(), id); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := svc.GetChart(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrChartNotFound) {
		t.Errorf("expected ErrChartNotFound, got %v", err)
	}
	if _, err := newChartService(&stubProvider{}).GetChart(context.Background(), id); !errors.Is(err, domain.ErrChartNotFound) {
		t.Errorf("expected ErrChartNotFound without a repository, got %v", err)
	}
}

func TestListCharts_ClampLimit(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockChartRepo{
		listRecentFn: func(ctx context.Context, offset, limit int) ([]domain.Chart, int, error) {
			gotOffset, gotLimit = offset, limit
			return nil, 0, nil
		},
	}
	svc := newChartService(&stubProvider{}, usecases.WithChartRepository(repo))

	_, _, _ = svc.ListCharts(context.Background(), -5, 1000)
	if gotLimit != 20 || gotOffset != 0 {
		t.Errorf("expected offset 0 limit 20, got %d/%d", gotOffset, gotLimit)
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		offset, limit         int
		wantOffset, wantLimit int
	}{
		{0, 10, 0, 10},
		{-3, 10, 0, 10},
		{5, 0, 5, usecases.DefaultPageLimit},
		{5, -1, 5, usecases.DefaultPageLimit},
		{5, usecases.MaxPageLimit, 5, usecases.MaxPageLimit},
		{5, usecases.MaxPageLimit + 1, 5, usecases.DefaultPageLimit},
	}
	for _, tt := range tests {
		off, lim := usecases.ClampPage(tt.offset, tt.limit)
		if off != tt.wantOffset || lim != tt.wantLimit {
			t.Errorf("ClampPage(%d, %d) = %d, %d; want %d, %d", tt.offset, tt.limit, off, lim, tt.wantOffset, tt.wantLimit)
		}
	}
}

func TestRequestChart(t *testing.T) {
	pub := &mockPublisher{}
	svc := newChartService(&stubProvider{}, usecases.WithPublisher(pub))

	id, err := svc.RequestChart(context.Background(), mustBirth(t, 1990, 6, 15, 14, 30, -3), &saoPaulo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.requests) != 1 || pub.requests[0].RequestID != id {
		t.Fatalf("expected one published request with id %s", id)
	}

	if _, err := newChartService(&stubProvider{}).RequestChart(context.Background(), mustBirth(t, 1990, 1, 1, 0, 0, 0), nil); err == nil {
		t.Error("expected error without a publisher")
	}
}

func TestHandleChartRequest(t *testing.T) {
	down := &stubProvider{
		longitudeFn: func(ctx context.Context, jd domain.JulianDay, body domain.Body, flags ports.CalcFlags) (ports.BodyLongitude, error) {
			return ports.BodyLongitude{}, domain.ErrProviderUnavailable
		},
	}

	invalid := &ports.ChartRequest{RequestID: "r1", Birth: domain.BirthMoment{Year: 1990, Month: 2, Day: 30, TimeKnown: true}}
	if err := newChartService(&stubProvider{}).HandleChartRequest(context.Background(), invalid); err != nil {
		t.Errorf("invalid requests should be dropped, got %v", err)
	}

	valid := &ports.ChartRequest{RequestID: "r2", Birth: mustBirth(t, 1990, 2, 3, 4, 5, 0)}
	if err := newChartService(down).HandleChartRequest(context.Background(), valid); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("provider outage should be retried, got %v", err)
	}
	if err := newChartService(&stubProvider{}).HandleChartRequest(context.Background(), valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
