package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

const systemPrompt = `Du er en juridisk assistent som svarer på spørsmål om norsk rett.
Du har to verktøy: search_legal_documents (strukturert søk i Lovdata med valgfrie filtre) og search_legal_practice (fritekstsøk etter juridisk praksis).
Bruk verktøyene til å samle kilder før du svarer. Hvis tidligere søk ga for få eller irrelevante treff, søk på nytt med andre ord eller færre filtre.
Når du har nok kilder, svar UTEN verktøykall med et JSON-objekt:
{"answer":"<svar på norsk med kildehenvisninger som [1]>","citations":[{"evidence_id":"lovdata-1","quote":"..."}]}
Siter bare evidence_id-er som finnes i kildelisten. Svar alltid på norsk.`

func buildUserPrompt(question string, evidence []domain.Evidence, results []domain.AgentFunctionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Spørsmål: %s\n\n", strings.TrimSpace(question))

	b.WriteString("Innsamlede kilder:\n")
	if len(evidence) == 0 {
		b.WriteString("(ingen ennå)\n")
	}
	for _, item := range evidence {
		fmt.Fprintf(&b, "- id=%s kilde=%s tittel=%q", item.ID, item.Source, item.Title)
		if item.Date != "" {
			fmt.Fprintf(&b, " dato=%s", item.Date)
		}
		if item.Snippet != "" {
			fmt.Fprintf(&b, "\n  utdrag: %s", item.Snippet)
		}
		b.WriteString("\n")
	}

	if len(results) > 0 {
		b.WriteString("\nTidligere verktøyresultater:\n")
		for _, result := range results {
			fmt.Fprintf(&b, "- %s: %s\n  veiledning: %s\n", result.Tool, result.Output, result.Guidance)
		}
	}
	return b.String()
}

func toolDefinitions() []openai.Tool {
	structuredParams := json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Søkeord for Lovdata-korpuset"},
			"year": {"type": "integer", "description": "Begrens til kunngjøringsår"},
			"law_type": {"type": "string", "enum": ["Lov", "Forskrift", "Vedtak", "Instruks", "Reglement", "Vedlegg"]},
			"ministry": {"type": "string", "description": "Ansvarlig departement"}
		},
		"required": ["query"]
	}`)
	practiceParams := json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Fritekstsøk etter juridisk praksis"}
		},
		"required": ["query"]
	}`)

	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        domain.ToolSearchLegalDocuments,
				Description: "Søk i Lovdata-korpuset av lover, forskrifter og vedtak med valgfrie filtre.",
				Parameters:  structuredParams,
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        domain.ToolSearchLegalPractice,
				Description: "Fritekstsøk etter juridisk praksis og omtale på nettet.",
				Parameters:  practiceParams,
			},
		},
	}
}
