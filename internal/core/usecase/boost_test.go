package usecase

import (
	"testing"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

func TestBoostBaseLawsPartitionsAmendmentsAfterBaseLaws(t *testing.T) {
	hits := []domain.SearchHit{
		{Title: "Forskrift om endring i byggesaksforskriften"},
		{Title: "Lov om arbeidsmiljø"},
		{Title: "Delegering av myndighet etter plan- og bygningsloven"},
		{Title: "Plan- og bygningsloven"},
	}

	boosted := boostBaseLaws(hits)
	if len(boosted) != 4 {
		t.Fatalf("expected 4 hits, got %d", len(boosted))
	}
	want := []string{
		"Lov om arbeidsmiljø",
		"Plan- og bygningsloven",
		"Forskrift om endring i byggesaksforskriften",
		"Delegering av myndighet etter plan- og bygningsloven",
	}
	for i, title := range want {
		if boosted[i].Title != title {
			t.Fatalf("position %d: expected %q, got %q", i, title, boosted[i].Title)
		}
	}
}

func TestBoostBaseLawsIsStableWithinPartitions(t *testing.T) {
	hits := []domain.SearchHit{
		{Title: "Lov A"},
		{Title: "Ikrafttredelse av lov B"},
		{Title: "Lov C"},
		{Title: "Endringer i forskrift D"},
	}

	boosted := boostBaseLaws(hits)
	if boosted[0].Title != "Lov A" || boosted[1].Title != "Lov C" {
		t.Fatalf("base partition order changed: %q, %q", boosted[0].Title, boosted[1].Title)
	}
	if boosted[2].Title != "Ikrafttredelse av lov B" || boosted[3].Title != "Endringer i forskrift D" {
		t.Fatalf("amendment partition order changed: %q, %q", boosted[2].Title, boosted[3].Title)
	}
}

func TestBoostBaseLawsReturnsInputWhenNoAmendments(t *testing.T) {
	hits := []domain.SearchHit{{Title: "Lov A"}, {Title: "Lov B"}}
	boosted := boostBaseLaws(hits)
	if len(boosted) != 2 || boosted[0].Title != "Lov A" {
		t.Fatalf("expected identical order, got %+v", boosted)
	}
}

func TestIsAmendmentTitleMatchesCaseInsensitive(t *testing.T) {
	if !isAmendmentTitle("FORSKRIFT OM ENDRING I REGELVERK") {
		t.Fatal("expected amendment match on uppercase title")
	}
	if isAmendmentTitle("Lov om pengespill") {
		t.Fatal("expected no amendment match")
	}
}
