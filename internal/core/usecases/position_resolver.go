package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/ports"
	"github.com/samirrijal/astrochart/internal/pkg/metrics"
)

const positionFlags = ports.FlagHighPrecision | ports.FlagSpeed

// PositionResolver places bodies on the ecliptic by querying the ephemeris
// once per body, in parallel.
type PositionResolver struct {
	provider ports.EphemerisProvider
	logger   *slog.Logger
}

// NewPositionResolver creates a new PositionResolver. A nil logger uses
// slog.Default().
func NewPositionResolver(provider ports.EphemerisProvider, logger *slog.Logger) *PositionResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &PositionResolver{provider: provider, logger: logger}
}

// ResolvePositions returns one result per distinct requested body, in
// canonical body order. A failing body is reported in its own result and
// never affects the others; the call returns only after every query has
// finished. Invalid body values are reported as failed results.
func (r *PositionResolver) ResolvePositions(ctx context.Context, jd domain.JulianDay, bodies []domain.Body) []domain.PositionResult {
	order := canonicalBodies(bodies)
	results := make([]domain.PositionResult, len(order))

	// Plain Group, not WithContext: one failure must not cancel its siblings.
	var g errgroup.Group
	for i, body := range order {
		g.Go(func() error {
			results[i] = r.resolveOne(ctx, jd, body)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *PositionResolver) resolveOne(ctx context.Context, jd domain.JulianDay, body domain.Body) (res domain.PositionResult) {
	res = domain.PositionResult{Body: body, BodyID: body.ID().String()}
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res = failedPosition(body, fmt.Errorf("provider panic: %v", p))
		}
		metrics.BodyComputationDuration.WithLabelValues(body.Code()).Observe(time.Since(start).Seconds())
		outcome := "ok"
		if !res.OK {
			outcome = "failed"
			r.logger.WarnContext(ctx, "body computation failed",
				"body", body.Code(),
				"jd", float64(jd),
				"error", res.Err,
			)
		}
		metrics.BodyComputations.WithLabelValues(body.Code(), outcome).Inc()
	}()

	if !body.Valid() {
		return failedPosition(body, fmt.Errorf("unknown body %d", int(body)))
	}

	lon, err := r.provider.LongitudeOf(ctx, jd, body, positionFlags)
	if err != nil {
		return failedPosition(body, err)
	}

	sign, deg := domain.ToSign(lon.Longitude)
	res.Longitude = domain.NormalizeLongitude(lon.Longitude)
	res.Sign = sign
	res.SignID = sign.ID().String()
	res.DegreeInSign = deg
	res.Speed = lon.Speed
	res.OK = true
	return res
}

func failedPosition(body domain.Body, cause error) domain.PositionResult {
	err := &domain.BodyError{Body: body, Err: cause}
	return domain.PositionResult{
		Body:   body,
		BodyID: body.ID().String(),
		Error:  err.Error(),
		Err:    err,
	}
}

// canonicalBodies de-duplicates bodies and sorts them into canonical order.
// Unknown values are kept, after the known ones, so they surface as failures.
func canonicalBodies(bodies []domain.Body) []domain.Body {
	var seen [domain.BodyCount]bool
	var unknown []domain.Body
	unknownSeen := map[domain.Body]bool{}
	for _, b := range bodies {
		if b.Valid() {
			seen[b] = true
			continue
		}
		if !unknownSeen[b] {
			unknownSeen[b] = true
			unknown = append(unknown, b)
		}
	}

	out := make([]domain.Body, 0, len(bodies))
	for _, b := range domain.Bodies() {
		if seen[b] {
			out = append(out, b)
		}
	}
	return append(out, unknown...)
}
