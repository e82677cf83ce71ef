package usecase

import (
	"fmt"
	"strings"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

const fallbackMaxTitles = 5

// buildFallbackAnswer is the deterministic non-model answer used whenever
// the agent path is unavailable or fails. No randomness, no external calls.
func buildFallbackAnswer(question string, evidence []domain.Evidence, fallbackProvider string) string {
	if len(evidence) == 0 {
		if fallbackProvider != "" {
			return fmt.Sprintf("Beklager, jeg fant ingen relevante kilder for spørsmålet ditt (søket ble utført via %s). Prøv gjerne å omformulere spørsmålet.", fallbackProvider)
		}
		return "Beklager, jeg fant ingen relevante kilder for spørsmålet ditt. Prøv gjerne å omformulere spørsmålet eller oppgi lovens navn."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Jeg kunne ikke generere et fullstendig svar på «%s», men fant disse kildene som kan være relevante:\n", strings.TrimSpace(question))

	count := 0
	for _, item := range evidence {
		if count >= fallbackMaxTitles {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = strings.TrimSpace(item.Link)
		}
		if title == "" {
			continue
		}
		if item.Source == domain.EvidenceSourceLovdata {
			fmt.Fprintf(&b, "- %s (Lovdata)\n", title)
		} else {
			fmt.Fprintf(&b, "- %s\n", title)
		}
		count++
	}
	return strings.TrimRight(b.String(), "\n")
}
