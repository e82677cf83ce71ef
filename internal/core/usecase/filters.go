package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

var yearPattern = regexp.MustCompile(`\b(1[6-9]\d{2}|20\d{2}|2100)\b`)

// lawTypeKeywords maps query vocabulary to canonical law types. More
// specific types come first: "forskrift til lov" must resolve to Forskrift,
// not Lov, so "lov" is checked last.
var lawTypeKeywords = []struct {
	keyword string
	lawType string
}{
	{"forskrift", domain.LawTypeForskrift},
	{"vedtak", domain.LawTypeVedtak},
	{"instruks", domain.LawTypeInstruks},
	{"reglement", domain.LawTypeReglement},
	{"vedlegg", domain.LawTypeVedlegg},
	{"lov", domain.LawTypeLov},
}

// ministryNames maps name variants found in queries to the canonical
// ministry value stored on documents. Longer variants come first so the
// full official name wins over its short form.
var ministryNames = []struct {
	variant   string
	canonical string
}{
	{"justis- og beredskapsdepartementet", "Justis- og beredskapsdepartementet"},
	{"justisdepartementet", "Justis- og beredskapsdepartementet"},
	{"helse- og omsorgsdepartementet", "Helse- og omsorgsdepartementet"},
	{"helsedepartementet", "Helse- og omsorgsdepartementet"},
	{"klima- og miljødepartementet", "Klima- og miljødepartementet"},
	{"miljødepartementet", "Klima- og miljødepartementet"},
	{"finansdepartementet", "Finansdepartementet"},
	{"kunnskapsdepartementet", "Kunnskapsdepartementet"},
	{"arbeidsdepartementet", "Arbeids- og inkluderingsdepartementet"},
	{"samferdselsdepartementet", "Samferdselsdepartementet"},
	{"forsvarsdepartementet", "Forsvarsdepartementet"},
	{"utenriksdepartementet", "Utenriksdepartementet"},
	{"kommunaldepartementet", "Kommunal- og distriktsdepartementet"},
	{"landbruksdepartementet", "Landbruks- og matdepartementet"},
	{"næringsdepartementet", "Nærings- og fiskeridepartementet"},
	{"kulturdepartementet", "Kultur- og likestillingsdepartementet"},
	{"barnedepartementet", "Barne- og familiedepartementet"},
}

// InferFilters extracts best-effort search filters from free query text.
// It may produce no filter at all.
func InferFilters(query string) domain.SearchFilters {
	var filters domain.SearchFilters
	lower := strings.ToLower(query)

	if match := yearPattern.FindString(lower); match != "" {
		if year, err := strconv.Atoi(match); err == nil {
			filters.Year = year
		}
	}

	filters.LawType = explicitLawType(lower)

	for _, entry := range ministryNames {
		if strings.Contains(lower, entry.variant) {
			filters.Ministry = entry.canonical
			break
		}
	}

	return filters
}

// explicitLawType reports the law type named in the query, or "" when none
// is mentioned. Input must already be lowercased.
func explicitLawType(lowerQuery string) string {
	for _, entry := range lawTypeKeywords {
		if strings.Contains(lowerQuery, entry.keyword) {
			return entry.lawType
		}
	}
	return ""
}
