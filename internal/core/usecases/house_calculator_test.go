package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/usecases"
)

var saoPaulo = domain.GeoCoordinate{Latitude: -23.55, Longitude: -46.63}

func TestComputeHouses_Complete(t *testing.T) {
	h := usecases.NewHouseCalculator(&stubProvider{}, "")
	if h.System() != domain.HousePlacidus {
		t.Fatalf("expected Placidus by default, got %q", h.System())
	}

	set, err := h.ComputeHouses(context.Background(), j2000, saoPaulo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Cusps) != domain.HouseCount {
		t.Fatalf("expected %d cusps, got %d", domain.HouseCount, len(set.Cusps))
	}
	for i, c := range set.Cusps {
		if c.House != i+1 {
			t.Errorf("cusp %d numbered %d", i, c.House)
		}
	}
	if len(set.Angles) != 4 {
		t.Fatalf("expected 4 angles, got %d", len(set.Angles))
	}
	for i, kind := range domain.AngleKinds() {
		if set.Angles[i].Kind != kind {
			t.Errorf("angle %d: expected %s, got %s", i, kind, set.Angles[i].Kind)
		}
	}
}

func TestComputeHouses_AnglesDerivedFromCusps(t *testing.T) {
	cusps := [domain.HouseCount]float64{250, 280, 310, 340, 10, 40, 70, 100, 130, 160, 190, 220}
	p := &stubProvider{
		housesFn: func(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
			return cusps, nil
		},
	}
	h := usecases.NewHouseCalculator(p, domain.HousePlacidus)

	set, err := h.ComputeHouses(context.Background(), j2000, saoPaulo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[domain.AngleKind]float64{
		domain.Ascendant:  250,
		domain.Descendant: 70,
		domain.Midheaven:  160,
		domain.Nadir:      340,
	}
	for _, a := range set.Angles {
		if math.Abs(a.Longitude-want[a.Kind]) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", a.Kind, want[a.Kind], a.Longitude)
		}
	}
	if set.Angles[0].Sign != domain.Sagittarius || set.Angles[0].DegreeInSign != 10 {
		t.Errorf("ascendant should be Sagittarius 10°, got %s %v", set.Angles[0].Sign, set.Angles[0].DegreeInSign)
	}
}

func TestComputeHouses_UndefinedIsAllOrNothing(t *testing.T) {
	p := &stubProvider{
		housesFn: func(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
			return [domain.HouseCount]float64{}, fmt.Errorf("%w: latitude %v inside polar circle", domain.ErrHouseSystemUndefined, lat)
		},
	}
	h := usecases.NewHouseCalculator(p, "")

	set, err := h.ComputeHouses(context.Background(), j2000, domain.GeoCoordinate{Latitude: 78.2, Longitude: 15.6})
	if !errors.Is(err, domain.ErrHouseSystemUndefined) {
		t.Fatalf("expected ErrHouseSystemUndefined, got %v", err)
	}
	if len(set.Cusps) != 0 || len(set.Angles) != 0 {
		t.Errorf("expected empty set, got %d cusps and %d angles", len(set.Cusps), len(set.Angles))
	}
}

func TestComputeHouses_NonFiniteCusp(t *testing.T) {
	p := &stubProvider{
		housesFn: func(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
			c := equalCusps(0)
			c[10] = math.NaN()
			return c, nil
		},
	}
	h := usecases.NewHouseCalculator(p, "")

	_, err := h.ComputeHouses(context.Background(), j2000, saoPaulo)
	if !errors.Is(err, domain.ErrHouseSystemUndefined) {
		t.Fatalf("expected ErrHouseSystemUndefined, got %v", err)
	}
}

func TestComputeHouses_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    error
		notWant error
	}{
		{"generic failure", errors.New("boom"), domain.ErrHouseSystemUndefined, domain.ErrProviderUnavailable},
		{"unavailable", fmt.Errorf("%w: no tables", domain.ErrProviderUnavailable), domain.ErrProviderUnavailable, domain.ErrHouseSystemUndefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{
				housesFn: func(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
					return [domain.HouseCount]float64{}, tt.err
				},
			}
			_, err := usecases.NewHouseCalculator(p, "").ComputeHouses(context.Background(), j2000, saoPaulo)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if errors.Is(err, tt.notWant) {
				t.Errorf("did not expect %v in %v", tt.notWant, err)
			}
		})
	}
}

func TestComputeHouses_PanicIsContained(t *testing.T) {
	p := &stubProvider{
		housesFn: func(ctx context.Context, jd domain.JulianDay, lat, lon float64, system domain.HouseSystem) ([domain.HouseCount]float64, error) {
			panic("division by zero")
		},
	}
	_, err := usecases.NewHouseCalculator(p, "").ComputeHouses(context.Background(), j2000, saoPaulo)
	if !errors.Is(err, domain.ErrHouseSystemUndefined) {
		t.Fatalf("expected ErrHouseSystemUndefined, got %v", err)
	}
}

func TestComputeHouses_InvalidCoordinate(t *testing.T) {
	_, err := usecases.NewHouseCalculator(&stubProvider{}, "").
		ComputeHouses(context.Background(), j2000, domain.GeoCoordinate{Latitude: 91})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}
