package domain

import (
	"fmt"
	"math"
	"time"
)

// UnknownClock is passed as both hour and minute when the time of birth is
// not known.
const UnknownClock = -1

// Local noon is used for the Julian Day when the clock time is unknown.
const (
	unknownHour   = 12
	unknownMinute = 0
)

const maxUTCOffsetHours = 14

// BirthMoment is a civil local birth date and time with its UTC offset.
// Construct it with NewBirthMoment; the zero value is not meaningful.
type BirthMoment struct {
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	Day            int     `json:"day"`
	Hour           int     `json:"hour"`
	Minute         int     `json:"minute"`
	UTCOffsetHours float64 `json:"utc_offset_hours"`
	TimeKnown      bool    `json:"time_known"`
}

// NewBirthMoment validates and builds a BirthMoment. Pass UnknownClock for
// both hour and minute when the time of birth is unknown; the moment is then
// placed at local noon and flagged so that houses are not computed.
func NewBirthMoment(year, month, day, hour, minute int, utcOffsetHours float64) (BirthMoment, error) {
	if month < 1 || month > 12 {
		return BirthMoment{}, fmt.Errorf("%w: month %d out of range", ErrInvalidBirthMoment, month)
	}
	if day < 1 || day > daysIn(year, month) {
		return BirthMoment{}, fmt.Errorf("%w: day %d out of range for %04d-%02d", ErrInvalidBirthMoment, day, year, month)
	}
	if math.IsNaN(utcOffsetHours) || math.Abs(utcOffsetHours) > maxUTCOffsetHours {
		return BirthMoment{}, fmt.Errorf("%w: utc offset %v out of range", ErrInvalidBirthMoment, utcOffsetHours)
	}

	b := BirthMoment{
		Year:           year,
		Month:          month,
		Day:            day,
		UTCOffsetHours: utcOffsetHours,
	}

	if hour == UnknownClock && minute == UnknownClock {
		b.Hour, b.Minute = unknownHour, unknownMinute
		return b, nil
	}
	if hour < 0 || hour >= 24 {
		return BirthMoment{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidBirthMoment, hour)
	}
	if minute < 0 || minute >= 60 {
		return BirthMoment{}, fmt.Errorf("%w: minute %d out of range", ErrInvalidBirthMoment, minute)
	}
	b.Hour, b.Minute = hour, minute
	b.TimeKnown = true
	return b, nil
}

// Validate re-checks a BirthMoment that did not come from NewBirthMoment,
// e.g. one decoded from JSON.
func (b BirthMoment) Validate() error {
	hour, minute := b.Hour, b.Minute
	if !b.TimeKnown {
		hour, minute = UnknownClock, UnknownClock
	}
	_, err := NewBirthMoment(b.Year, b.Month, b.Day, hour, minute, b.UTCOffsetHours)
	return err
}

// LocalHours is the local clock time as fractional hours.
func (b BirthMoment) LocalHours() float64 {
	return float64(b.Hour) + float64(b.Minute)/60
}

// UTCHours is the clock time shifted to UTC. It may fall outside [0, 24)
// when the offset moves the instant into the previous or next day.
func (b BirthMoment) UTCHours() float64 {
	return b.LocalHours() - b.UTCOffsetHours
}

// Time returns the instant as a UTC time.Time.
func (b BirthMoment) Time() time.Time {
	local := time.Date(b.Year, time.Month(b.Month), b.Day, b.Hour, b.Minute, 0, 0, time.UTC)
	return local.Add(-time.Duration(b.UTCOffsetHours * float64(time.Hour)))
}

func (b BirthMoment) String() string {
	clock := "??:??"
	if b.TimeKnown {
		clock = fmt.Sprintf("%02d:%02d", b.Hour, b.Minute)
	}
	return fmt.Sprintf("%04d-%02d-%02d %s UTC%+.2f", b.Year, b.Month, b.Day, clock, b.UTCOffsetHours)
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// GeoCoordinate is a WGS 84 position on the Earth's surface.
type GeoCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate ranges.
func (g GeoCoordinate) Validate() error {
	if math.IsNaN(g.Latitude) || g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, g.Latitude)
	}
	if math.IsNaN(g.Longitude) || g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, g.Longitude)
	}
	return nil
}

// JulianDay is a continuous day count in Universal Time.
type JulianDay float64
