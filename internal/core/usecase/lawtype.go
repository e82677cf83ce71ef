package usecase

import (
	"context"
	"strings"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

// minTypeResults is the threshold a law-type result set has to reach before
// lower-priority types are skipped.
func minTypeResults(pageSize int) int {
	threshold := pageSize / 2
	if threshold < 3 {
		threshold = 3
	}
	return threshold
}

type typedResult struct {
	lawType string
	result  *domain.SearchResult
	err     error
}

// searchByTypePriority runs the store query across the law-type priority
// list when the caller gave no explicit lawType filter. The two most
// authoritative types are queried concurrently; the rest only when neither
// reaches the minimum-result threshold. Ties among the remaining types go
// to the earlier entry in the priority list.
func (uc *SearchUseCase) searchByTypePriority(ctx context.Context, query string, opts domain.SearchOptions, pageSize int) (*domain.SearchResult, string, error) {
	threshold := minTypeResults(pageSize)

	if explicit := explicitLawType(strings.ToLower(query)); explicit != "" {
		result, err := uc.searchWithType(ctx, query, opts, explicit)
		if err != nil {
			return nil, "", err
		}
		if len(result.Hits) > 0 {
			return result, explicit, nil
		}
	}

	first, second := domain.LawTypePriority[0], domain.LawTypePriority[1]
	results := make(chan typedResult, 2)
	for _, lawType := range []string{first, second} {
		go func(lawType string) {
			result, err := uc.searchWithType(ctx, query, opts, lawType)
			results <- typedResult{lawType: lawType, result: result, err: err}
		}(lawType)
	}

	byType := make(map[string]*domain.SearchResult, 2)
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			return nil, "", r.err
		}
		byType[r.lawType] = r.result
	}

	// Priority order decides when both concurrent types meet the threshold.
	for _, lawType := range []string{first, second} {
		if result := byType[lawType]; len(result.Hits) >= threshold {
			return result, lawType, nil
		}
	}

	best := byType[first]
	bestType := first
	if len(byType[second].Hits) > len(best.Hits) {
		best = byType[second]
		bestType = second
	}

	for _, lawType := range domain.LawTypePriority[2:] {
		result, err := uc.searchWithType(ctx, query, opts, lawType)
		if err != nil {
			return nil, "", err
		}
		if len(result.Hits) >= threshold {
			return result, lawType, nil
		}
		if len(result.Hits) > len(best.Hits) {
			best = result
			bestType = lawType
		}
	}

	if len(best.Hits) > 0 {
		return best, bestType, nil
	}

	// Every type came back empty: retry once with no type filter at all.
	unfiltered, err := uc.store.Search(ctx, query, opts)
	if err != nil {
		return nil, "", err
	}
	return unfiltered, "", nil
}

func (uc *SearchUseCase) searchWithType(ctx context.Context, query string, opts domain.SearchOptions, lawType string) (*domain.SearchResult, error) {
	typed := opts
	typed.Filters.LawType = lawType
	return uc.store.Search(ctx, query, typed)
}
