package usecases_test

import (
	"testing"

	"github.com/samirrijal/astrochart/internal/core/usecases"
)

func TestSignCatalog(t *testing.T) {
	signs := usecases.SignCatalog()
	if len(signs) != 12 {
		t.Fatalf("expected 12 signs, got %d", len(signs))
	}
	if signs[0].Code != "aries" || *signs[0].StartLongitude != 0 {
		t.Errorf("unexpected first sign %+v", signs[0])
	}
	if signs[11].Code != "pisces" || *signs[11].StartLongitude != 330 {
		t.Errorf("unexpected last sign %+v", signs[11])
	}
	seen := map[string]bool{}
	for _, s := range signs {
		if seen[s.ID] {
			t.Errorf("duplicate id %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestBodyCatalog(t *testing.T) {
	bodies := usecases.BodyCatalog()
	if len(bodies) != 10 {
		t.Fatalf("expected 10 bodies, got %d", len(bodies))
	}
	if bodies[0].Code != "sun" || bodies[9].Code != "pluto" {
		t.Errorf("unexpected order: %s..%s", bodies[0].Code, bodies[9].Code)
	}
	if bodies[1].StartLongitude != nil {
		t.Error("bodies have no start longitude")
	}
}
