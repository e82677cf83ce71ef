// Package jina calls a Jina-compatible cross-encoder rerank endpoint
// (POST /rerank with model, query, documents, top_n).
package jina

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/resilience"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/transport"
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		executor:   executor,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores candidates against the query, descending by relevance.
// The caller has already capped and cleaned the candidate list.
func (c *Client) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate, topN int) ([]domain.RankedCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}

	documents := make([]string, len(candidates))
	for i, candidate := range candidates {
		documents[i] = candidate.Text
	}

	request := rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	}

	var response rerankResponse
	call := func(callCtx context.Context) error {
		return transport.PostJSON(callCtx, c.httpClient, c.baseURL+"/rerank", c.headers(), request, &response, "rerank")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "rerank", call, transport.ClassifyError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.RankedCandidate, 0, len(response.Results))
	for _, result := range response.Results {
		if result.Index < 0 || result.Index >= len(candidates) {
			return nil, fmt.Errorf("rerank result index %d out of range", result.Index)
		}
		candidate := candidates[result.Index]
		ranked = append(ranked, domain.RankedCandidate{
			Index:          candidate.Index,
			RelevanceScore: result.RelevanceScore,
			Text:           candidate.Text,
			Metadata:       candidate.Metadata,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	return ranked, nil
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}
