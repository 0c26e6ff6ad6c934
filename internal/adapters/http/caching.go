package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint, unless the handler already set one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.Response().StatusCode() >= 400 {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "no-cache"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/v1/signs" || path == "/v1/bodies":
			ttl = "public, max-age=86400" // identifiers never change

		case strings.HasPrefix(path, "/v1/charts/"):
			ttl = "public, max-age=86400, immutable" // archived charts are never mutated

		case path == "/v1/charts":
			ttl = "private, max-age=0" // new charts arrive constantly

		case path == "/v1/natal":
			ttl = "private, no-store" // each call archives a new chart

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=300"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
