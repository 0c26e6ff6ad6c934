package usecases

import "github.com/samirrijal/astrochart/internal/core/domain"

// CatalogEntry describes one enumerated sign or body with its stable
// identifiers.
type CatalogEntry struct {
	Code           string   `json:"code"`
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Ordinal        int      `json:"ordinal"`
	StartLongitude *float64 `json:"start_longitude,omitempty"`
}

// SignCatalog lists the twelve signs in zodiac order.
func SignCatalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, domain.SignCount)
	for _, s := range domain.Signs() {
		start := s.StartLongitude()
		out = append(out, CatalogEntry{
			Code:           s.Code(),
			ID:             s.ID().String(),
			Name:           s.String(),
			Ordinal:        s.Ordinal(),
			StartLongitude: &start,
		})
	}
	return out
}

// BodyCatalog lists the bodies in canonical order.
func BodyCatalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, domain.BodyCount)
	for _, b := range domain.Bodies() {
		out = append(out, CatalogEntry{
			Code:    b.Code(),
			ID:      b.ID().String(),
			Name:    b.String(),
			Ordinal: int(b),
		})
	}
	return out
}
