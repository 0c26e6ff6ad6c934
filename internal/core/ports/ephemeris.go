package ports

import (
	"context"

	"github.com/samirrijal/astrochart/internal/core/domain"
)

// CalcFlags tunes a single ephemeris query.
type CalcFlags uint8

const (
	// FlagHighPrecision asks for the provider's most accurate theory.
	FlagHighPrecision CalcFlags = 1 << iota
	// FlagSpeed asks for the daily motion alongside the longitude.
	FlagSpeed
)

// Has reports whether every bit in f is set.
func (c CalcFlags) Has(f CalcFlags) bool { return c&f == f }

// BodyLongitude is a body's geocentric ecliptic longitude in degrees.
// Speed is in degrees/day and is zero unless FlagSpeed was requested.
type BodyLongitude struct {
	Longitude float64
	Speed     float64
}

// EphemerisProvider supplies raw body and house longitudes. Implementations
// must be safe for concurrent use. Errors that mean the provider as a whole
// cannot serve requests must wrap domain.ErrProviderUnavailable.
type EphemerisProvider interface {
	LongitudeOf(ctx context.Context, jd domain.JulianDay, body domain.Body, flags CalcFlags) (BodyLongitude, error)
	HousesOf(ctx context.Context, jd domain.JulianDay, latitude, longitude float64, system domain.HouseSystem) ([domain.HouseCount]float64, error)
}
