package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/ports"
	"github.com/samirrijal/astrochart/internal/pkg/metrics"
	"github.com/samirrijal/astrochart/internal/pkg/telemetry"
)

const defaultChartCacheTTL = 3600

var tracer = otel.Tracer("github.com/samirrijal/astrochart/internal/core/usecases")

// ChartService assembles natal charts and archives the results.
type ChartService struct {
	positions *PositionResolver
	houses    *HouseCalculator
	charts    ports.ChartRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	logger    *slog.Logger
	cacheTTL  int
	now       func() time.Time
}

// ChartOption customises a ChartService.
type ChartOption func(*ChartService)

// WithChartRepository archives every computed chart.
func WithChartRepository(r ports.ChartRepository) ChartOption {
	return func(s *ChartService) { s.charts = r }
}

// WithCache enables read-through caching of complete charts.
func WithCache(c ports.CacheService, ttlSeconds int) ChartOption {
	return func(s *ChartService) {
		s.cache = c
		if ttlSeconds > 0 {
			s.cacheTTL = ttlSeconds
		}
	}
}

// WithPublisher announces computed charts and accepts async requests.
func WithPublisher(p ports.EventPublisher) ChartOption {
	return func(s *ChartService) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ChartOption {
	return func(s *ChartService) { s.logger = l }
}

// NewChartService creates a new ChartService.
func NewChartService(positions *PositionResolver, houses *HouseCalculator, opts ...ChartOption) *ChartService {
	s := &ChartService{
		positions: positions,
		houses:    houses,
		logger:    slog.Default(),
		cacheTTL:  defaultChartCacheTTL,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// BuildChart computes the chart for a birth moment. Houses and angles are
// only computed when geo is given and the time of birth is known; a failed
// body or house set degrades the chart instead of failing it. Only invalid
// input and an unavailable ephemeris are returned as errors.
func (s *ChartService) BuildChart(ctx context.Context, birth domain.BirthMoment, geo *domain.GeoCoordinate) (chart *domain.Chart, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "ChartService.BuildChart", trace.WithAttributes(
		telemetry.BirthKey.String(birth.String()),
		telemetry.BirthTimeKnownKey.Bool(birth.TimeKnown),
		telemetry.GeoPresentKey.Bool(geo != nil),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.ChartBuilds.WithLabelValues("failed").Inc()
		}
		metrics.ChartBuildDuration.Observe(time.Since(start).Seconds())
		span.End()
	}()

	if err := birth.Validate(); err != nil {
		return nil, err
	}
	if geo != nil {
		if err := geo.Validate(); err != nil {
			return nil, err
		}
	}

	key := chartCacheKey(birth, geo, s.houses.System())
	if cached, ok := s.cachedChart(ctx, key); ok {
		metrics.ChartBuilds.WithLabelValues("cached").Inc()
		span.SetAttributes(telemetry.CacheHitKey.Bool(true))
		return cached, nil
	}

	jd := ToJulianDay(birth)
	wantHouses := geo != nil && birth.TimeKnown

	var (
		positions []domain.PositionResult
		houses    domain.HouseSet
		houseErr  error
		g         errgroup.Group
	)
	g.Go(func() error {
		positions = s.positions.ResolvePositions(ctx, jd, domain.Bodies())
		return nil
	})
	if wantHouses {
		g.Go(func() error {
			houses, houseErr = s.houses.ComputeHouses(ctx, jd, *geo)
			return nil
		})
	}
	_ = g.Wait()

	// Every query after a deadline or cancel fails; don't archive that.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := providerFailure(positions, houseErr); err != nil {
		return nil, err
	}

	chart = &domain.Chart{
		ID:         uuid.New(),
		Birth:      birth,
		Geo:        geo,
		JulianDay:  jd,
		Positions:  positions,
		Houses:     []domain.HouseCusp{},
		Angles:     []domain.AngularPoint{},
		ComputedAt: s.now().UTC(),
	}
	if wantHouses && houseErr == nil {
		chart.HouseSystem = s.houses.System()
		chart.Houses = houses.Cusps
		chart.Angles = houses.Angles
	}
	if houseErr != nil {
		s.logger.WarnContext(ctx, "house computation failed, returning chart without houses",
			"birth", birth.String(),
			"latitude", geo.Latitude,
			"error", houseErr,
		)
	}

	complete := houseErr == nil
	for _, p := range positions {
		if !p.OK {
			complete = false
			break
		}
	}
	outcome := "complete"
	if !complete {
		outcome = "degraded"
	}
	metrics.ChartBuilds.WithLabelValues(outcome).Inc()
	span.SetAttributes(
		telemetry.ChartIDKey.String(chart.ID.String()),
		telemetry.ChartOutcomeKey.String(outcome),
		telemetry.JulianDayKey.Float64(float64(jd)),
	)

	s.archive(ctx, chart, key, complete)
	return chart, nil
}

// providerFailure returns the first sub-result that reports the ephemeris
// as unavailable; that state is provider-wide, so the whole chart fails.
func providerFailure(positions []domain.PositionResult, houseErr error) error {
	for _, p := range positions {
		if errors.Is(p.Err, domain.ErrProviderUnavailable) {
			return fmt.Errorf("%w (while computing %s)", domain.ErrProviderUnavailable, p.Body.Code())
		}
	}
	if errors.Is(houseErr, domain.ErrProviderUnavailable) {
		return fmt.Errorf("%w (while computing houses)", domain.ErrProviderUnavailable)
	}
	return nil
}

// archive stores, caches and announces a chart. All three are best-effort.
func (s *ChartService) archive(ctx context.Context, chart *domain.Chart, key string, complete bool) {
	if s.charts != nil {
		if err := s.charts.Save(ctx, chart); err != nil {
			s.logger.ErrorContext(ctx, "archive chart", "chart_id", chart.ID, "error", err)
		}
	}

	// Degraded charts may reflect a transient failure; don't pin them.
	if s.cache != nil && complete {
		if data, err := json.Marshal(chart); err == nil {
			_ = s.cache.Set(ctx, key, data, s.cacheTTL)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishChartComputed(ctx, chart); err != nil {
			s.logger.WarnContext(ctx, "publish chart computed", "chart_id", chart.ID, "error", err)
		}
	}
}

func (s *ChartService) cachedChart(ctx context.Context, key string) (*domain.Chart, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues("chart").Inc()
		return nil, false
	}
	var chart domain.Chart
	if err := json.Unmarshal(data, &chart); err != nil {
		metrics.CacheMisses.WithLabelValues("chart").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("chart").Inc()
	return &chart, true
}

func chartCacheKey(birth domain.BirthMoment, geo *domain.GeoCoordinate, system domain.HouseSystem) string {
	clock := "unknown"
	if birth.TimeKnown {
		clock = fmt.Sprintf("%02d:%02d", birth.Hour, birth.Minute)
	}
	place := "none"
	if geo != nil {
		place = exactFloat(geo.Latitude) + "," + exactFloat(geo.Longitude)
	}
	return fmt.Sprintf("chart:v2:%04d-%02d-%02d:%s:%s:%s:%s",
		birth.Year, birth.Month, birth.Day, clock, exactFloat(birth.UTCOffsetHours), place, system)
}

// exactFloat formats v with the fewest digits that parse back to v, so
// distinct inputs never share a key.
func exactFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// GetChart returns an archived chart.
func (s *ChartService) GetChart(ctx context.Context, id string) (*domain.Chart, error) {
	if s.charts == nil {
		return nil, domain.ErrChartNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrChartNotFound, id)
	}
	return s.charts.GetByID(ctx, id)
}

// Paging bounds for chart listings.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ClampPage normalises list paging: a negative offset becomes 0 and a limit
// outside (0, MaxPageLimit] becomes DefaultPageLimit.
func ClampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	return offset, limit
}

// ListCharts returns archived charts, newest first, and the total count.
func (s *ChartService) ListCharts(ctx context.Context, offset, limit int) ([]domain.Chart, int, error) {
	if s.charts == nil {
		return nil, 0, nil
	}
	offset, limit = ClampPage(offset, limit)
	return s.charts.ListRecent(ctx, offset, limit)
}

// RequestChart queues a chart for asynchronous computation and returns the
// request ID.
func (s *ChartService) RequestChart(ctx context.Context, birth domain.BirthMoment, geo *domain.GeoCoordinate) (string, error) {
	if s.publisher == nil {
		return "", errors.New("chart requests are not enabled")
	}
	if err := birth.Validate(); err != nil {
		return "", err
	}
	if geo != nil {
		if err := geo.Validate(); err != nil {
			return "", err
		}
	}
	req := &ports.ChartRequest{RequestID: uuid.NewString(), Birth: birth, Geo: geo}
	if err := s.publisher.PublishChartRequest(ctx, req); err != nil {
		return "", fmt.Errorf("publish chart request: %w", err)
	}
	return req.RequestID, nil
}

// HandleChartRequest computes a queued chart. Invalid requests are dropped
// (returning nil so they are not redelivered); provider outages are returned
// so the broker retries.
func (s *ChartService) HandleChartRequest(ctx context.Context, req *ports.ChartRequest) error {
	ctx, span := tracer.Start(ctx, "ChartService.HandleChartRequest",
		trace.WithAttributes(telemetry.RequestIDKey.String(req.RequestID)))
	defer span.End()

	chart, err := s.BuildChart(ctx, req.Birth, req.Geo)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidBirthMoment) || errors.Is(err, domain.ErrInvalidCoordinate) {
			s.logger.WarnContext(ctx, "dropping invalid chart request", "request_id", req.RequestID, "error", err)
			return nil
		}
		return err
	}
	s.logger.InfoContext(ctx, "chart request computed", "request_id", req.RequestID, "chart_id", chart.ID)
	return nil
}
