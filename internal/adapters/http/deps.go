package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/astrochart/internal/core/ports"
	"github.com/samirrijal/astrochart/internal/core/usecases"
)

// Pinger is a backing service that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers. Optional
// backends are left nil when unavailable.
type Dependencies struct {
	Charts    *usecases.ChartService
	Ephemeris ports.EphemerisProvider
	NATS      *nats.Conn
	DB        Pinger
	Cache     Pinger

	// ComputeTimeout bounds a single chart computation; zero means 15s.
	ComputeTimeout time.Duration
	// OpenAPIPath is served at /docs/openapi.yaml; empty means api/openapi.yaml.
	OpenAPIPath string
}

func (d *Dependencies) computeTimeout() time.Duration {
	if d.ComputeTimeout > 0 {
		return d.ComputeTimeout
	}
	return 15 * time.Second
}
