// Package ephemeris implements ports.EphemerisProvider on top of the
// meeus astronomical algorithms: VSOP87 for the Sun and planets, the
// Chapront ELP series for the Moon, and the Meeus Pluto theory. VSOP87
// coefficient files are loaded once at startup and only read afterwards,
// so a Provider is safe for concurrent use.
package ephemeris

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/elliptic"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	pp "github.com/soniakeys/meeus/v3/planetposition"
	"github.com/soniakeys/meeus/v3/pluto"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/ports"
)

// The Pluto theory is only fitted to 1885-2099.
const (
	plutoMinJD = 2409177.5 // 1885-01-01
	plutoMaxJD = 2488069.5 // 2099-12-31
)

// Half-width of the central difference used for daily motion.
const speedStep = 1.0 / 24

// General precession in longitude, degrees per Julian century.
const precessionPerCentury = 5029.0966 / 3600

var vsopIndex = map[domain.Body]int{
	domain.Mercury: pp.Mercury,
	domain.Venus:   pp.Venus,
	domain.Mars:    pp.Mars,
	domain.Jupiter: pp.Jupiter,
	domain.Saturn:  pp.Saturn,
	domain.Uranus:  pp.Uranus,
	domain.Neptune: pp.Neptune,
}

// Provider answers longitude and house queries.
type Provider struct {
	earth   *pp.V87Planet
	planets map[domain.Body]*pp.V87Planet
}

var _ ports.EphemerisProvider = (*Provider)(nil)

// New loads the VSOP87 files from dataPath. An empty dataPath falls back to
// the directory named by the VSOP87 environment variable.
func New(dataPath string) (*Provider, error) {
	load := func(ibody int) (*pp.V87Planet, error) {
		if dataPath == "" {
			return pp.LoadPlanet(ibody)
		}
		return pp.LoadPlanetPath(ibody, dataPath)
	}

	earth, err := load(pp.Earth)
	if err != nil {
		return nil, fmt.Errorf("%w: load vsop87 earth: %w", domain.ErrProviderUnavailable, err)
	}

	planets := make(map[domain.Body]*pp.V87Planet, len(vsopIndex))
	for body, ibody := range vsopIndex {
		v, err := load(ibody)
		if err != nil {
			return nil, fmt.Errorf("%w: load vsop87 %s: %w", domain.ErrProviderUnavailable, body.Code(), err)
		}
		planets[body] = v
	}

	slog.Info("ephemeris loaded", "theory", "vsop87", "planets", len(planets)+1, "path", dataPath)
	return &Provider{earth: earth, planets: planets}, nil
}

// LongitudeOf returns the apparent geocentric ecliptic longitude of body.
// Julian Day UT is used as dynamical time; the difference (about a minute)
// moves the Moon by well under an arcminute.
func (p *Provider) LongitudeOf(ctx context.Context, jd domain.JulianDay, body domain.Body, flags ports.CalcFlags) (ports.BodyLongitude, error) {
	if err := ctx.Err(); err != nil {
		return ports.BodyLongitude{}, err
	}
	if p == nil || p.earth == nil {
		return ports.BodyLongitude{}, domain.ErrProviderUnavailable
	}

	jde := float64(jd)
	lon, err := p.longitude(jde, body)
	if err != nil {
		return ports.BodyLongitude{}, err
	}
	out := ports.BodyLongitude{Longitude: lon}

	if flags.Has(ports.FlagSpeed) {
		before, err := p.longitude(jde-speedStep, body)
		if err != nil {
			return out, err
		}
		after, err := p.longitude(jde+speedStep, body)
		if err != nil {
			return out, err
		}
		out.Speed = math.Remainder(after-before, 360) / (2 * speedStep)
	}
	return out, nil
}

func (p *Provider) longitude(jde float64, body domain.Body) (float64, error) {
	switch body {
	case domain.Sun:
		λ, _, _ := solar.ApparentVSOP87(p.earth, jde)
		return domain.NormalizeLongitude(λ.Deg()), nil

	case domain.Moon:
		λ, _, _ := moonposition.Position(jde)
		Δψ, _ := nutation.Nutation(jde)
		return domain.NormalizeLongitude(λ.Deg() + Δψ.Deg()), nil

	case domain.Pluto:
		if jde < plutoMinJD || jde > plutoMaxJD {
			return 0, fmt.Errorf("pluto theory not valid at jd %.5f", jde)
		}
		α, δ := pluto.Astrometric(jde, p.earth)
		ε0 := nutation.MeanObliquity(base.J2000)
		lon := equatorialToEclipticLongitude(α.Rad(), δ.Rad(), ε0.Rad())
		// Astrometric J2000 position, carried to the equinox of date.
		return domain.NormalizeLongitude(lon + precessionPerCentury*base.J2000Century(jde)), nil
	}

	planet, ok := p.planets[body]
	if !ok {
		return 0, fmt.Errorf("no theory loaded for %s", body.Code())
	}
	α, δ := elliptic.Position(planet, p.earth, jde)
	return equatorialToEclipticLongitude(α.Rad(), δ.Rad(), trueObliquity(jde).Rad()), nil
}

// HousesOf computes house cusps for the given instant and place.
func (p *Provider) HousesOf(ctx context.Context, jd domain.JulianDay, latitude, longitude float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
	var cusps [domain.HouseCount]float64
	if err := ctx.Err(); err != nil {
		return cusps, err
	}
	if system != domain.HousePlacidus {
		return cusps, fmt.Errorf("%w: unsupported house system %q", domain.ErrHouseSystemUndefined, system)
	}

	ramc := RAMC(float64(jd), longitude)
	eps := trueObliquity(float64(jd)).Deg()
	return Placidus(ramc, eps, latitude)
}

// RAMC is the right ascension of the midheaven in degrees: local apparent
// sidereal time for an east-positive geographic longitude.
func RAMC(jd, longitude float64) float64 {
	gast := sidereal.Apparent(jd)
	return domain.NormalizeLongitude(toDeg(gast.Rad()) + longitude)
}

// trueObliquity returns the obliquity of the ecliptic of date.
func trueObliquity(jde float64) unit.Angle {
	_, Δε := nutation.Nutation(jde)
	return nutation.MeanObliquity(jde) + Δε
}
