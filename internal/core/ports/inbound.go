package ports

import (
	"context"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

// AssistantService is the inbound contract for answering a legal question.
type AssistantService interface {
	Run(ctx context.Context, req domain.AssistantRequest) (*domain.AgentRunResult, error)
}

// DocumentSearcher is the inbound contract for paginated corpus search.
type DocumentSearcher interface {
	SearchPublicData(ctx context.Context, input domain.LovdataSearchInput) (*domain.LovdataSearchResult, error)
}
