package usecase

import (
	"testing"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

func TestInferFiltersExtractsYearAndLawType(t *testing.T) {
	filters := InferFilters("lov om arbeidsmiljø fra 2005")
	if filters.Year != 2005 {
		t.Fatalf("expected year 2005, got %d", filters.Year)
	}
	if filters.LawType != domain.LawTypeLov {
		t.Fatalf("expected law type Lov, got %q", filters.LawType)
	}
}

func TestInferFiltersPrefersForskriftOverLov(t *testing.T) {
	// "forskrift til lov" names both types; the more specific one wins.
	filters := InferFilters("Forskrift til lov om offentlige anskaffelser")
	if filters.LawType != domain.LawTypeForskrift {
		t.Fatalf("expected law type Forskrift, got %q", filters.LawType)
	}
}

func TestInferFiltersCanonicalizesMinistryShortForm(t *testing.T) {
	filters := InferFilters("rundskriv fra justisdepartementet")
	if filters.Ministry != "Justis- og beredskapsdepartementet" {
		t.Fatalf("expected canonical ministry name, got %q", filters.Ministry)
	}
}

func TestInferFiltersIgnoresOutOfRangeNumbers(t *testing.T) {
	filters := InferFilters("paragraf 1521 i straffeloven")
	if filters.Year != 0 {
		t.Fatalf("expected no year, got %d", filters.Year)
	}
}

func TestInferFiltersEmptyForPlainQuery(t *testing.T) {
	filters := InferFilters("oppsigelse i prøvetid")
	if !filters.IsZero() {
		t.Fatalf("expected zero filters, got %+v", filters)
	}
}

func TestExplicitLawTypeReturnsEmptyWhenNoneNamed(t *testing.T) {
	if got := explicitLawType("arbeidsgivers styringsrett"); got != "" {
		t.Fatalf("expected no explicit type, got %q", got)
	}
}
