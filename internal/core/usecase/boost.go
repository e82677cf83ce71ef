package usecase

import (
	"strings"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

// amendmentVocabulary marks documents that modify another instrument rather
// than enact one. Matching titles are always ordered after base laws.
var amendmentVocabulary = []string{
	"endring",
	"endringer",
	"ikrafttredelse",
	"ikraftsetting",
	"delegering",
	"overføring",
}

func isAmendmentTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, word := range amendmentVocabulary {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// boostBaseLaws partitions hits into base laws followed by amendments,
// preserving the relative order inside each partition. It is a pure
// ranking stage and is re-applied after re-ranking so amendments never
// outrank base documents on semantic score alone.
func boostBaseLaws(hits []domain.SearchHit) []domain.SearchHit {
	if len(hits) < 2 {
		return hits
	}

	base := make([]domain.SearchHit, 0, len(hits))
	amendments := make([]domain.SearchHit, 0)
	for _, hit := range hits {
		if isAmendmentTitle(hit.Title) {
			amendments = append(amendments, hit)
			continue
		}
		base = append(base, hit)
	}
	if len(amendments) == 0 {
		return hits
	}
	return append(base, amendments...)
}
