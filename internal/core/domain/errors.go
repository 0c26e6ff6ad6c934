package domain

import (
	"errors"
	"fmt"
)

// Chart computation failures. Adapters wrap these with %w so that callers
// can classify them with errors.Is.
var (
	// ErrInvalidBirthMoment rejects structurally invalid input before any
	// computation starts.
	ErrInvalidBirthMoment = errors.New("invalid birth moment")
	// ErrInvalidCoordinate rejects out-of-range latitude/longitude.
	ErrInvalidCoordinate = errors.New("invalid geographic coordinate")
	// ErrBodyComputation is scoped to a single body and never aborts a chart.
	ErrBodyComputation = errors.New("body computation failed")
	// ErrHouseSystemUndefined means no house set could be produced, e.g.
	// Placidus inside the polar circles.
	ErrHouseSystemUndefined = errors.New("house system undefined")
	// ErrProviderUnavailable means the ephemeris cannot be reached or loaded.
	ErrProviderUnavailable = errors.New("ephemeris provider unavailable")
	// ErrChartNotFound is returned by chart stores for unknown IDs.
	ErrChartNotFound = errors.New("chart not found")
)

// BodyError records why one body could not be placed.
type BodyError struct {
	Body Body
	Err  error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBodyComputation, e.Body.Code(), e.Err)
}

func (e *BodyError) Unwrap() []error { return []error{ErrBodyComputation, e.Err} }
