package usecases

import (
	"github.com/soniakeys/meeus/v3/julian"

	"github.com/samirrijal/astrochart/internal/core/domain"
)

// ToJulianDay converts a civil birth moment to a Julian Day in UT.
// The UTC offset is removed from the local hour first (UTC = local − offset);
// the resulting fractional day may leave [1, 31], which the Gregorian
// formula handles since it is linear in the day.
func ToJulianDay(b domain.BirthMoment) domain.JulianDay {
	day := float64(b.Day) + b.UTCHours()/24
	return domain.JulianDay(julian.CalendarGregorianToJD(b.Year, b.Month, day))
}
