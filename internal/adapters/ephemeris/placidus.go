package ephemeris

import (
	"fmt"
	"math"

	"github.com/samirrijal/astrochart/internal/core/domain"
)

const (
	placidusMaxIter   = 1000
	placidusTolerance = 1e-9
)

// placidusStep describes an intermediate cusp as an offset from RAMC plus a
// fraction of the ascensional difference of the cusp itself.
type placidusStep struct {
	house int
	base  float64
	k     float64
}

var placidusSteps = []placidusStep{
	{house: 11, base: 30, k: 1.0 / 3},
	{house: 12, base: 60, k: 2.0 / 3},
	{house: 2, base: 120, k: 2.0 / 3},
	{house: 3, base: 150, k: 1.0 / 3},
}

// Placidus computes the twelve cusp longitudes (index 0 = house 1) from the
// right ascension of the midheaven, the true obliquity and the geographic
// latitude, all in degrees. It fails inside the polar circles, where some
// ecliptic degrees never rise or set and the time trisection is undefined.
func Placidus(ramc, obliquity, latitude float64) ([domain.HouseCount]float64, error) {
	var cusps [domain.HouseCount]float64

	if math.Abs(latitude) >= 90-obliquity {
		return cusps, fmt.Errorf("%w: placidus undefined at latitude %.4f", domain.ErrHouseSystemUndefined, latitude)
	}

	mc := MidheavenLongitude(ramc, obliquity)
	asc := AscendantLongitude(ramc, obliquity, latitude)

	cusps[0] = asc
	cusps[9] = mc

	for _, st := range placidusSteps {
		lon, err := placidusCusp(ramc, obliquity, latitude, st)
		if err != nil {
			return cusps, err
		}
		cusps[st.house-1] = lon
	}

	// Houses 1-3 and 10-12 are computed; the rest are their opposites.
	for _, h := range []int{0, 1, 2} {
		cusps[h+6] = domain.Opposite(cusps[h])
	}
	for _, h := range []int{9, 10, 11} {
		cusps[h-6] = domain.Opposite(cusps[h])
	}

	for i, c := range cusps {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return cusps, fmt.Errorf("%w: cusp %d not finite", domain.ErrHouseSystemUndefined, i+1)
		}
	}
	return cusps, nil
}

func placidusCusp(ramc, eps, lat float64, st placidusStep) (float64, error) {
	ra := ramc + st.base
	for i := 0; i < placidusMaxIter; i++ {
		lon := raToEclipticLongitude(ra, eps)
		decl := asind(sind(eps) * sind(lon))
		x := tand(lat) * tand(decl)
		if math.Abs(x) > 1 {
			return 0, fmt.Errorf("%w: house %d cusp is circumpolar", domain.ErrHouseSystemUndefined, st.house)
		}
		next := ramc + st.base + st.k*asind(x)
		if math.Abs(math.Remainder(next-ra, 360)) < placidusTolerance {
			return domain.NormalizeLongitude(raToEclipticLongitude(next, eps)), nil
		}
		ra = next
	}
	return 0, fmt.Errorf("%w: house %d cusp did not converge", domain.ErrHouseSystemUndefined, st.house)
}

// MidheavenLongitude is the ecliptic longitude culminating at the given RAMC.
func MidheavenLongitude(ramc, eps float64) float64 {
	return domain.NormalizeLongitude(raToEclipticLongitude(ramc, eps))
}

// AscendantLongitude is the ecliptic longitude rising on the eastern horizon.
func AscendantLongitude(ramc, eps, lat float64) float64 {
	y := cosd(ramc)
	x := -(sind(ramc)*cosd(eps) + tand(lat)*sind(eps))
	return domain.NormalizeLongitude(atan2d(y, x))
}

// raToEclipticLongitude maps a right ascension to the ecliptic point with
// that right ascension.
func raToEclipticLongitude(ra, eps float64) float64 {
	return atan2d(sind(ra), cosd(ra)*cosd(eps))
}

// equatorialToEclipticLongitude converts RA/Dec (radians) to ecliptic
// longitude in degrees for the given obliquity (radians).
func equatorialToEclipticLongitude(ra, dec, eps float64) float64 {
	y := math.Sin(ra)*math.Cos(eps) + math.Tan(dec)*math.Sin(eps)
	return domain.NormalizeLongitude(math.Atan2(y, math.Cos(ra)) * 180 / math.Pi)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

func sind(d float64) float64      { return math.Sin(toRad(d)) }
func cosd(d float64) float64      { return math.Cos(toRad(d)) }
func tand(d float64) float64      { return math.Tan(toRad(d)) }
func asind(x float64) float64     { return toDeg(math.Asin(x)) }
func atan2d(y, x float64) float64 { return toDeg(math.Atan2(y, x)) }
