package http

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/usecases"
)

// ChartInput is the body of POST /v1/charts. Time may be omitted when the
// time of birth is unknown; latitude and longitude go together.
type ChartInput struct {
	Date      string   `json:"date"`           // YYYY-MM-DD, local
	Time      *string  `json:"time,omitempty"` // HH:MM, local
	UTCOffset float64  `json:"utc_offset"`     // hours east of UTC
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

var errLatLonPair = errors.New("latitude and longitude must be given together")

// parse validates the input and converts it to domain values.
func (in ChartInput) parse() (domain.BirthMoment, *domain.GeoCoordinate, error) {
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return domain.BirthMoment{}, nil, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidBirthMoment)
	}

	hour, minute := domain.UnknownClock, domain.UnknownClock
	if in.Time != nil && *in.Time != "" {
		clock, err := time.Parse("15:04", *in.Time)
		if err != nil {
			return domain.BirthMoment{}, nil, fmt.Errorf("%w: time must be HH:MM", domain.ErrInvalidBirthMoment)
		}
		hour, minute = clock.Hour(), clock.Minute()
	}

	birth, err := domain.NewBirthMoment(date.Year(), int(date.Month()), date.Day(), hour, minute, in.UTCOffset)
	if err != nil {
		return domain.BirthMoment{}, nil, err
	}

	if (in.Latitude == nil) != (in.Longitude == nil) {
		return domain.BirthMoment{}, nil, fmt.Errorf("%w: %w", domain.ErrInvalidCoordinate, errLatLonPair)
	}
	if in.Latitude == nil {
		return birth, nil, nil
	}
	geo := &domain.GeoCoordinate{Latitude: *in.Latitude, Longitude: *in.Longitude}
	if err := geo.Validate(); err != nil {
		return domain.BirthMoment{}, nil, err
	}
	return birth, geo, nil
}

// CreateChartHandler computes a chart from a JSON body.
func CreateChartHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in ChartInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		birth, geo, err := in.parse()
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		chart, err := deps.Charts.BuildChart(c.UserContext(), birth, geo)
		if err != nil {
			return writeDomainError(c, err)
		}
		c.Location("/v1/charts/" + chart.ID.String())
		return c.Status(fiber.StatusCreated).JSON(chart)
	}
}

// NatalHandler is the query-string form of CreateChartHandler:
// GET /v1/natal?date=1990-06-15&time=14:30&utc_offset=-3&lat=-23.55&lon=-46.63
func NatalHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := ChartInput{Date: c.Query("date")}
		if t := c.Query("time"); t != "" {
			in.Time = &t
		}
		if off := c.Query("utc_offset"); off != "" {
			v, err := strconv.ParseFloat(off, 64)
			if err != nil {
				return errBadRequest(c, "utc_offset must be a number")
			}
			in.UTCOffset = v
		}
		for _, q := range []struct {
			name string
			dst  **float64
		}{{"lat", &in.Latitude}, {"lon", &in.Longitude}} {
			raw := c.Query(q.name)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errBadRequest(c, q.name+" must be a number")
			}
			*q.dst = &v
		}

		birth, geo, err := in.parse()
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		chart, err := deps.Charts.BuildChart(c.UserContext(), birth, geo)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(chart)
	}
}

// RequestChartHandler queues a chart for the background worker and returns
// 202 with the request ID.
func RequestChartHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in ChartInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		birth, geo, err := in.parse()
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		id, err := deps.Charts.RequestChart(c.UserContext(), birth, geo)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidBirthMoment) || errors.Is(err, domain.ErrInvalidCoordinate) {
				return errBadRequest(c, err.Error())
			}
			LoggerFromCtx(c.UserContext()).Warn("queue chart request", "error", err)
			return errUnavailable(c, "chart queue unavailable")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"request_id": id})
	}
}

// GetChartHandler returns an archived chart.
func GetChartHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		chart, err := deps.Charts.GetChart(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(chart)
	}
}

// ListChartsHandler returns recently computed charts, newest first.
func ListChartsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pg := pageFromQuery(c)

		charts, total, err := deps.Charts.ListCharts(c.UserContext(), pg.Offset, pg.Limit)
		if err != nil {
			return writeDomainError(c, err)
		}
		pg.Total = total

		SetLinkHeaders(c, pg)
		return c.JSON(newPage(charts, pg))
	}
}

// ListSignsHandler returns the zodiac sign catalogue.
func ListSignsHandler() fiber.Handler {
	signs := usecases.SignCatalog()
	return func(c *fiber.Ctx) error {
		return c.JSON(signs)
	}
}

// ListBodiesHandler returns the body catalogue.
func ListBodiesHandler() fiber.Handler {
	bodies := usecases.BodyCatalog()
	return func(c *fiber.Ctx) error {
		return c.JSON(bodies)
	}
}
