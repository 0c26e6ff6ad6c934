package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys shared by chart instrumentation.
const (
	BirthKey          = attribute.Key("chart.birth")
	BirthTimeKnownKey = attribute.Key("chart.birth.time_known")
	GeoPresentKey     = attribute.Key("chart.geo.present")
	CacheHitKey       = attribute.Key("chart.cache.hit")
	ChartIDKey        = attribute.Key("chart.id")
	ChartOutcomeKey   = attribute.Key("chart.outcome")
	JulianDayKey      = attribute.Key("chart.julian_day")
	RequestIDKey      = attribute.Key("chart.request_id")
)
