package openai

import (
	"strings"
	"testing"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

func TestBuildUserPromptListsEvidenceAndResults(t *testing.T) {
	evidence := []domain.Evidence{
		{ID: "lovdata-1", Source: "lovdata", Title: "Arbeidsmiljøloven", Date: "2005-06-17", Snippet: "om arbeidsmiljø"},
	}
	results := []domain.AgentFunctionResult{
		{Tool: domain.ToolSearchLegalDocuments, Output: `{"total_hits":1}`, Guidance: "Cite the evidence."},
	}

	prompt := buildUserPrompt("hva regulerer arbeidsmiljøloven?", evidence, results)
	for _, want := range []string{
		"Spørsmål: hva regulerer arbeidsmiljøloven?",
		"id=lovdata-1",
		"Arbeidsmiljøloven",
		"dato=2005-06-17",
		"utdrag: om arbeidsmiljø",
		"search_legal_documents",
		"Cite the evidence.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildUserPromptWithoutEvidence(t *testing.T) {
	prompt := buildUserPrompt("spørsmål", nil, nil)
	if !strings.Contains(prompt, "(ingen ennå)") {
		t.Fatalf("expected empty-evidence marker, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "Tidligere verktøyresultater") {
		t.Fatalf("expected no results section, got:\n%s", prompt)
	}
}

func TestParseAnswerExtractsJSONFromSurroundingText(t *testing.T) {
	content := "Her er svaret:\n{\"answer\":\"Loven gjelder [1].\",\"citations\":[{\"evidence_id\":\"lovdata-1\",\"quote\":\"§ 1\"}]}\nHåper det hjelper."
	turn, err := parseAnswer(content)
	if err != nil {
		t.Fatalf("parseAnswer() error = %v", err)
	}
	if turn.Answer != "Loven gjelder [1]." {
		t.Fatalf("unexpected answer %q", turn.Answer)
	}
	if len(turn.Citations) != 1 || turn.Citations[0].EvidenceID != "lovdata-1" || turn.Citations[0].Quote != "§ 1" {
		t.Fatalf("unexpected citations %+v", turn.Citations)
	}
}

func TestParseAnswerKeepsPlainTextWithoutCitations(t *testing.T) {
	turn, err := parseAnswer("Loven gjelder for alle arbeidsforhold.")
	if err != nil {
		t.Fatalf("parseAnswer() error = %v", err)
	}
	if turn.Answer != "Loven gjelder for alle arbeidsforhold." {
		t.Fatalf("unexpected answer %q", turn.Answer)
	}
	if len(turn.Citations) != 0 {
		t.Fatalf("expected no citations, got %+v", turn.Citations)
	}
}

func TestToolDefinitionsExposeExactlyTwoTools(t *testing.T) {
	tools := toolDefinitions()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Function.Name != domain.ToolSearchLegalDocuments {
		t.Fatalf("unexpected first tool %q", tools[0].Function.Name)
	}
	if tools[1].Function.Name != domain.ToolSearchLegalPractice {
		t.Fatalf("unexpected second tool %q", tools[1].Function.Name)
	}
}
