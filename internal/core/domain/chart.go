package domain

import (
	"time"

	"github.com/google/uuid"
)

// HouseSystem selects the house division algorithm; the value is the
// single-letter code ephemeris libraries use.
type HouseSystem string

const HousePlacidus HouseSystem = "P"

// HouseCount is the number of houses in a complete house set.
const HouseCount = 12

// PositionResult is the placement of one body. When OK is false only Body
// and Err/Error are meaningful.
type PositionResult struct {
	Body         Body    `json:"body"`
	BodyID       string  `json:"body_id"`
	Sign         Sign    `json:"sign"`
	SignID       string  `json:"sign_id"`
	Longitude    float64 `json:"longitude"`
	DegreeInSign float64 `json:"degree_in_sign"`
	OK           bool    `json:"computed_ok"`
	Error        string  `json:"error,omitempty"`

	// Speed in degrees/day, kept for future use.
	Speed float64 `json:"-"`
	Err   error   `json:"-"`
}

// HouseCusp is the ecliptic longitude at which a house begins.
type HouseCusp struct {
	House        int     `json:"house"`
	Longitude    float64 `json:"longitude"`
	Sign         Sign    `json:"sign"`
	SignID       string  `json:"sign_id"`
	DegreeInSign float64 `json:"degree_in_sign"`
}

// AngleKind names one of the four chart angles.
type AngleKind string

const (
	Ascendant  AngleKind = "ascendant"
	Descendant AngleKind = "descendant"
	Midheaven  AngleKind = "midheaven"
	Nadir      AngleKind = "nadir"
)

// AngleKinds lists the angles in chart order.
func AngleKinds() []AngleKind {
	return []AngleKind{Ascendant, Descendant, Midheaven, Nadir}
}

// AngularPoint is one of the four chart angles.
type AngularPoint struct {
	Kind         AngleKind `json:"kind"`
	Longitude    float64   `json:"longitude"`
	Sign         Sign      `json:"sign"`
	SignID       string    `json:"sign_id"`
	DegreeInSign float64   `json:"degree_in_sign"`
}

// HouseSet is a complete set of twelve cusps and the four angles derived
// from them.
type HouseSet struct {
	Cusps  []HouseCusp    `json:"cusps"`
	Angles []AngularPoint `json:"angles"`
}

// Chart is an assembled natal chart. It is never mutated after assembly.
type Chart struct {
	ID          uuid.UUID        `json:"id"`
	Birth       BirthMoment      `json:"birth"`
	Geo         *GeoCoordinate   `json:"geo,omitempty"`
	JulianDay   JulianDay        `json:"julian_day"`
	HouseSystem HouseSystem      `json:"house_system,omitempty"`
	Positions   []PositionResult `json:"positions"`
	Houses      []HouseCusp      `json:"houses"`
	Angles      []AngularPoint   `json:"angles"`
	ComputedAt  time.Time        `json:"computed_at"`
}

// HasHouses reports whether the chart carries a house set.
func (c *Chart) HasHouses() bool { return len(c.Houses) == HouseCount }

// Position returns the placement of b, if present.
func (c *Chart) Position(b Body) (PositionResult, bool) {
	for _, p := range c.Positions {
		if p.Body == b {
			return p, true
		}
	}
	return PositionResult{}, false
}

// Angle returns the angular point of the given kind, if present.
func (c *Chart) Angle(kind AngleKind) (AngularPoint, bool) {
	for _, a := range c.Angles {
		if a.Kind == kind {
			return a, true
		}
	}
	return AngularPoint{}, false
}

// NewHouseCusp sign-maps a cusp longitude.
func NewHouseCusp(house int, longitude float64) HouseCusp {
	lon := NormalizeLongitude(longitude)
	sign, deg := ToSign(lon)
	return HouseCusp{House: house, Longitude: lon, Sign: sign, SignID: sign.ID().String(), DegreeInSign: deg}
}

// NewAngularPoint sign-maps an angle longitude.
func NewAngularPoint(kind AngleKind, longitude float64) AngularPoint {
	lon := NormalizeLongitude(longitude)
	sign, deg := ToSign(lon)
	return AngularPoint{Kind: kind, Longitude: lon, Sign: sign, SignID: sign.ID().String(), DegreeInSign: deg}
}

// Opposite returns the point 180° across the ecliptic.
func Opposite(longitude float64) float64 {
	return NormalizeLongitude(longitude + 180)
}
