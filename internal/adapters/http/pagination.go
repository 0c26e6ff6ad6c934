package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/samirrijal/astrochart/internal/core/usecases"
)

// PaginatedResponse wraps one page of a listing with its paging metadata.
// Data is never null.
type PaginatedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newPage[T any](items []T, p Pagination) PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PaginatedResponse[T]{Data: items, Pagination: p}
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// pageFromQuery reads ?offset and ?limit, clamped the same way the chart
// service clamps them.
func pageFromQuery(c *fiber.Ctx) Pagination {
	offset, limit := usecases.ClampPage(
		c.QueryInt("offset", 0),
		c.QueryInt("limit", usecases.DefaultPageLimit),
	)
	return Pagination{Offset: offset, Limit: limit}
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses.
// Query parameters other than offset and limit are carried over.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	links := []string{pageLink(c, 0, p.Limit, "first")}

	if p.Offset > 0 {
		links = append(links, pageLink(c, max(p.Offset-p.Limit, 0), p.Limit, "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, pageLink(c, p.Offset+p.Limit, p.Limit, "next"))
	}
	links = append(links, pageLink(c, max(p.Total-p.Limit, 0), p.Limit, "last"))

	c.Set(fiber.HeaderLink, strings.Join(links, ", "))
}

func pageLink(c *fiber.Ctx, offset, limit int, rel string) string {
	path, _, _ := strings.Cut(c.OriginalURL(), "?")

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	c.Request().URI().QueryArgs().CopyTo(args)
	args.SetUint("offset", offset)
	args.SetUint("limit", limit)

	return fmt.Sprintf(`<%s?%s>; rel="%s"`, path, args.QueryString(), rel)
}
