package usecase

import (
	"fmt"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

// normaliseCitations maps the model's claimed citations back onto the
// authoritative paginated evidence order. Labels are always recomputed:
// the model cannot know the final pagination offset, so its numbering is
// never trusted. Citations referencing unknown evidence IDs are dropped
// silently.
func normaliseCitations(modelCitations []domain.Citation, evidence []domain.Evidence, p domain.Pagination) []domain.Citation {
	offset := (p.Page - 1) * p.PageSize
	if offset < 0 {
		offset = 0
	}

	position := make(map[string]int, len(evidence))
	for i, item := range evidence {
		position[item.ID] = offset + i + 1
	}

	// No citations from the model: every evidence item becomes implicitly
	// cited, in list order.
	if len(modelCitations) == 0 {
		out := make([]domain.Citation, 0, len(evidence))
		for _, item := range evidence {
			out = append(out, domain.Citation{
				EvidenceID: item.ID,
				Label:      fmt.Sprintf("[%d]", position[item.ID]),
			})
		}
		return out
	}

	out := make([]domain.Citation, 0, len(modelCitations))
	for _, citation := range modelCitations {
		pos, ok := position[citation.EvidenceID]
		if !ok {
			continue
		}
		out = append(out, domain.Citation{
			EvidenceID: citation.EvidenceID,
			Label:      fmt.Sprintf("[%d]", pos),
			Quote:      citation.Quote,
		})
	}
	return out
}
