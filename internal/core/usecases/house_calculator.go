package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/ports"
	"github.com/samirrijal/astrochart/internal/pkg/metrics"
)

// HouseCalculator divides the ecliptic into houses for a time and place.
type HouseCalculator struct {
	provider ports.EphemerisProvider
	system   domain.HouseSystem
}

// NewHouseCalculator creates a new HouseCalculator. An empty system means
// Placidus.
func NewHouseCalculator(provider ports.EphemerisProvider, system domain.HouseSystem) *HouseCalculator {
	if system == "" {
		system = domain.HousePlacidus
	}
	return &HouseCalculator{provider: provider, system: system}
}

// System returns the house system in use.
func (h *HouseCalculator) System() domain.HouseSystem { return h.system }

// ComputeHouses returns all twelve cusps and the four angles, or an error
// wrapping domain.ErrHouseSystemUndefined. It never returns a partial set.
func (h *HouseCalculator) ComputeHouses(ctx context.Context, jd domain.JulianDay, geo domain.GeoCoordinate) (set domain.HouseSet, err error) {
	defer func() {
		if p := recover(); p != nil {
			set, err = domain.HouseSet{}, fmt.Errorf("%w: provider panic: %v", domain.ErrHouseSystemUndefined, p)
		}
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		metrics.HouseComputations.WithLabelValues(outcome).Inc()
	}()

	if err := geo.Validate(); err != nil {
		return domain.HouseSet{}, err
	}

	cusps, err := h.provider.HousesOf(ctx, jd, geo.Latitude, geo.Longitude, h.system)
	if err != nil {
		return domain.HouseSet{}, classifyHouseError(err)
	}
	for i, c := range cusps {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return domain.HouseSet{}, fmt.Errorf("%w: cusp %d is not finite", domain.ErrHouseSystemUndefined, i+1)
		}
	}

	set.Cusps = make([]domain.HouseCusp, domain.HouseCount)
	for i, c := range cusps {
		set.Cusps[i] = domain.NewHouseCusp(i+1, c)
	}

	asc := set.Cusps[0].Longitude
	mc := set.Cusps[9].Longitude
	set.Angles = []domain.AngularPoint{
		domain.NewAngularPoint(domain.Ascendant, asc),
		domain.NewAngularPoint(domain.Descendant, domain.Opposite(asc)),
		domain.NewAngularPoint(domain.Midheaven, mc),
		domain.NewAngularPoint(domain.Nadir, domain.Opposite(mc)),
	}
	return set, nil
}

// classifyHouseError keeps provider-wide unavailability distinct; anything
// else is reported as an undefined house set.
func classifyHouseError(err error) error {
	switch {
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrHouseSystemUndefined):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrHouseSystemUndefined, err)
	}
}
