package ports

import (
	"context"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

// DocumentStore issues hybrid (full-text + vector, RRF-fused) queries
// against the persisted Lovdata corpus. Store errors propagate to the
// caller uncaught; fallback policy is the caller's decision.
type DocumentStore interface {
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)
	FetchFullText(ctx context.Context, filename, member string) (string, error)
}

// Reranker scores a candidate set against a query with a cross-encoder.
// It is an enhancement: callers fall back to the original order on error.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate, topN int) ([]domain.RankedCandidate, error)
}

// WebSearcher runs a free-text search scoped to a site and returns organic
// results.
type WebSearcher interface {
	SearchSite(ctx context.Context, query, site string, limit int) ([]domain.OrganicResult, error)
}

// AgentModel is one chat-completion turn: given the question, the current
// evidence window, and prior tool outcomes, it returns either a terminal
// answer with citations or tool calls to execute.
type AgentModel interface {
	Step(ctx context.Context, question string, evidence []domain.Evidence, results []domain.AgentFunctionResult) (*domain.ModelTurn, error)
}

// Embedder builds the query vector for hybrid search.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EventPublisher emits answered-question audit events for external
// consumers.
type EventPublisher interface {
	PublishAnswered(ctx context.Context, event domain.AnsweredEvent) error
}
