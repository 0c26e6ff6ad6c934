package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/ports"
)

// --- Stub EphemerisProvider ---

type stubProvider struct {
	longitudeFn func(ctx context.Context, jd domain.JulianDay, body domain.Body, flags ports.CalcFlags) (ports.BodyLongitude, error)
	housesFn    func(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error)
}

// LongitudeOf places body n at 30n+15, the middle of sign n, by default.
func (s *stubProvider) LongitudeOf(ctx context.Context, jd domain.JulianDay, body domain.Body, flags ports.CalcFlags) (ports.BodyLongitude, error) {
	if s.longitudeFn != nil {
		return s.longitudeFn(ctx, jd, body, flags)
	}
	return ports.BodyLongitude{Longitude: float64(body)*30 + 15, Speed: 1}, nil
}

// HousesOf returns equal houses starting at 100° by default.
func (s *stubProvider) HousesOf(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
	if s.housesFn != nil {
		return s.housesFn(ctx, jd, lat, lon, system)
	}
	return equalCusps(100), nil
}

func equalCusps(asc float64) [domain.HouseCount]float64 {
	var cusps [domain.HouseCount]float64
	for i := range cusps {
		cusps[i] = domain.NormalizeLongitude(asc + float64(i)*30)
	}
	return cusps
}

// --- Mock ChartRepository ---

type mockChartRepo struct {
	mu    sync.Mutex
	saved []*domain.Chart

	saveFn       func(ctx context.Context, chart *domain.Chart) error
	getByIDFn    func(ctx context.Context, id string) (*domain.Chart, error)
	listRecentFn func(ctx context.Context, offset, limit int) ([]domain.Chart, int, error)
}

func (m *mockChartRepo) Save(ctx context.Context, chart *domain.Chart) error {
	m.mu.Lock()
	m.saved = append(m.saved, chart)
	m.mu.Unlock()
	if m.saveFn != nil {
		return m.saveFn(ctx, chart)
	}
	return nil
}

func (m *mockChartRepo) GetByID(ctx context.Context, id string) (*domain.Chart, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrChartNotFound
}

func (m *mockChartRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.Chart, int, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, context.Canceled
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	computed []*domain.Chart
	requests []*ports.ChartRequest
	err      error
}

func (m *mockPublisher) PublishChartComputed(ctx context.Context, chart *domain.Chart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computed = append(m.computed, chart)
	return m.err
}

func (m *mockPublisher) PublishChartRequest(ctx context.Context, req *ports.ChartRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.err
}
