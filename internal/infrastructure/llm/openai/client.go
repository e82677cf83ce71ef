// Package openai adapts a chat-completion provider (OpenAI or any
// compatible endpoint) into the agent-model and embedder ports.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

type Client struct {
	api        *openai.Client
	chatModel  string
	embedModel string
}

func New(apiKey, baseURL, chatModel, embedModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:        openai.NewClientWithConfig(cfg),
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

// modelAnswer is the JSON shape the model is instructed to return when it
// is done gathering evidence.
type modelAnswer struct {
	Answer    string `json:"answer"`
	Citations []struct {
		EvidenceID string `json:"evidence_id"`
		Label      string `json:"label,omitempty"`
		Quote      string `json:"quote,omitempty"`
	} `json:"citations,omitempty"`
}

// Step runs one agent turn. The model either requests tool calls or
// produces the terminal answer with citations.
func (c *Client) Step(ctx context.Context, question string, evidence []domain.Evidence, results []domain.AgentFunctionResult) (*domain.ModelTurn, error) {
	request := openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(question, evidence, results)},
		},
		Tools: toolDefinitions(),
	}

	response, err := c.api.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	choice := response.Choices[0].Message

	if len(choice.ToolCalls) > 0 {
		turn := &domain.ModelTurn{ToolCalls: make([]domain.ToolCall, 0, len(choice.ToolCalls))}
		for _, call := range choice.ToolCalls {
			turn.ToolCalls = append(turn.ToolCalls, domain.ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
		}
		return turn, nil
	}

	return parseAnswer(choice.Content)
}

func parseAnswer(content string) (*domain.ModelTurn, error) {
	raw := extractJSONObject(content)
	var parsed modelAnswer
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		// A plain-text reply still counts as a terminal answer; only the
		// citations are lost.
		return &domain.ModelTurn{Answer: strings.TrimSpace(content)}, nil
	}

	turn := &domain.ModelTurn{Answer: strings.TrimSpace(parsed.Answer)}
	for _, citation := range parsed.Citations {
		turn.Citations = append(turn.Citations, domain.Citation{
			EvidenceID: citation.EvidenceID,
			Label:      citation.Label,
			Quote:      citation.Quote,
		})
	}
	return turn, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

// EmbedQuery builds the query vector for hybrid search.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	response, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Data[0].Embedding, nil
}
