package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/astrochart/internal/core/domain"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": Version,
		})
	}
}

// j2000 is used to probe the ephemeris.
const j2000 = domain.JulianDay(2451545.0)

// ReadyHandler checks the ephemeris, DB, NATS, and cache. Only the
// ephemeris is required; the others degrade features but not charts.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Ephemeris
		if deps.Ephemeris != nil {
			if _, err := deps.Ephemeris.LongitudeOf(ctx, j2000, domain.Sun, 0); err != nil {
				checks["ephemeris"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["ephemeris"] = "ok"
			}
		} else {
			checks["ephemeris"] = "not configured"
			allOK = false
		}

		// Database
		checks["database"] = pingCheck(ctx, deps.DB)

		// NATS
		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
			}
		} else {
			checks["nats"] = "not configured"
		}

		// Valkey cache
		checks["cache"] = pingCheck(ctx, deps.Cache)

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}

func pingCheck(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
