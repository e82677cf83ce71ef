package usecase

import (
	"context"
	"strings"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
	"github.com/paragraf-ai/lovdata-assistant/internal/core/ports"
)

// buildRerankCandidates converts hits into scoring candidates. Hits with no
// usable text after the title+snippet fallback are excluded without failing
// the call; Index always points back into the original hit slice.
func buildRerankCandidates(hits []domain.SearchHit) []domain.RerankCandidate {
	candidates := make([]domain.RerankCandidate, 0, len(hits))
	for i, hit := range hits {
		text := candidateText(hit)
		if text == "" {
			continue
		}
		candidates = append(candidates, domain.RerankCandidate{
			Index: i,
			Text:  text,
			Metadata: map[string]string{
				"filename": hit.Filename,
				"member":   hit.Member,
			},
		})
	}
	if len(candidates) > domain.RerankCandidateLimit {
		candidates = candidates[:domain.RerankCandidateLimit]
	}
	return candidates
}

func candidateText(hit domain.SearchHit) string {
	parts := make([]string, 0, 2)
	if title := strings.TrimSpace(hit.Title); title != "" {
		parts = append(parts, title)
	}
	if snippet := strings.TrimSpace(hit.Snippet); snippet != "" {
		parts = append(parts, snippet)
	}
	return strings.Join(parts, "\n")
}

// rerankOrOriginal applies cross-encoder re-ranking and returns the
// re-ordered hits, or the input unchanged when re-ranking is unavailable or
// fails. The second return reports whether re-ranking was applied.
func rerankOrOriginal(ctx context.Context, reranker ports.Reranker, query string, hits []domain.SearchHit, topN int) ([]domain.SearchHit, bool, error) {
	if reranker == nil || len(hits) == 0 {
		return hits, false, nil
	}

	candidates := buildRerankCandidates(hits)
	if len(candidates) == 0 {
		return hits, false, nil
	}
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}

	ranked, err := reranker.Rerank(ctx, query, candidates, topN)
	if err != nil {
		return hits, false, err
	}
	if len(ranked) == 0 {
		return hits, false, nil
	}

	out := make([]domain.SearchHit, 0, len(hits))
	taken := make(map[int]struct{}, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(hits) {
			continue
		}
		if _, dup := taken[r.Index]; dup {
			continue
		}
		taken[r.Index] = struct{}{}
		hit := hits[r.Index]
		hit.Score = r.RelevanceScore
		out = append(out, hit)
	}
	for i, hit := range hits {
		if _, ok := taken[i]; !ok {
			out = append(out, hit)
		}
	}
	return out, true, nil
}
