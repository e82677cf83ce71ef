package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
	"github.com/paragraf-ai/lovdata-assistant/internal/core/ports"
)

type SearchConfig struct {
	EnableReranking bool
	RerankTopN      int
	RRFK            int
	ViewerBasePath  string
}

// SearchUseCase composes the store query, law-type prioritization, base-law
// boosting, and re-ranking into the paginated public search operation.
type SearchUseCase struct {
	store    ports.DocumentStore
	reranker ports.Reranker
	cfg      SearchConfig
	logger   *slog.Logger
}

func NewSearchUseCase(store ports.DocumentStore, reranker ports.Reranker, cfg SearchConfig, logger *slog.Logger) *SearchUseCase {
	if cfg.RerankTopN <= 0 {
		cfg.RerankTopN = domain.DefaultRerankTopN
	}
	if cfg.RRFK <= 0 {
		cfg.RRFK = domain.DefaultRRFK
	}
	if cfg.ViewerBasePath == "" {
		cfg.ViewerBasePath = "/documents/xml"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		store:    store,
		reranker: reranker,
		cfg:      cfg,
		logger:   logger,
	}
}

// SearchPublicData is the paginated corpus search. The ranking pipeline is
// a fixed composition of pure stages: boost, optional rerank, boost again,
// slice. Pagination metadata always derives from the pre-slice total.
func (uc *SearchUseCase) SearchPublicData(ctx context.Context, input domain.LovdataSearchInput) (*domain.LovdataSearchResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search public data", fmt.Errorf("query is required"))
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > domain.MaxPageSize {
		pageSize = domain.MaxPageSize
	}
	offset := (page - 1) * pageSize

	reranking := input.EnableReranking && uc.cfg.EnableReranking && uc.reranker != nil
	rerankTopN := input.RerankTopN
	if rerankTopN <= 0 {
		rerankTopN = uc.cfg.RerankTopN
	}

	// With re-ranking the whole candidate window is fetched from offset 0
	// so it can be re-ordered before slicing out the requested page.
	opts := domain.SearchOptions{
		Limit:          pageSize,
		Offset:         offset,
		Filters:        input.Filters,
		QueryEmbedding: input.QueryEmbedding,
		RRFK:           uc.cfg.RRFK,
	}
	if reranking {
		opts.Limit = rerankTopN
		opts.Offset = 0
	}

	var (
		result  *domain.SearchResult
		lawType = input.Filters.LawType
		err     error
	)
	if input.Filters.LawType == "" {
		result, lawType, err = uc.searchByTypePriority(ctx, query, opts, pageSize)
	} else {
		result, err = uc.store.Search(ctx, query, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("search document store: %w", err)
	}

	hits := boostBaseLaws(result.Hits)
	reranked := false
	if reranking && len(hits) > 0 {
		requested := offset + pageSize + 5
		if requested > len(hits) {
			requested = len(hits)
		}
		rerankedHits, applied, rerankErr := rerankOrOriginal(ctx, uc.reranker, query, hits, requested)
		if rerankErr != nil {
			uc.logger.Warn("rerank_failed", "error", rerankErr, "candidates", len(hits))
		} else if applied {
			hits = boostBaseLaws(rerankedHits)
			reranked = true
		}
	}

	if reranking {
		hits = sliceHits(hits, offset, pageSize)
	} else {
		// The store already applied the offset; only the page window cap
		// remains.
		hits = sliceHits(hits, 0, pageSize)
	}

	filenames := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for i := range hits {
		hits[i].URL = uc.buildViewerURL(hits[i].Filename, hits[i].Member)
		if _, ok := seen[hits[i].Filename]; !ok {
			seen[hits[i].Filename] = struct{}{}
			filenames = append(filenames, hits[i].Filename)
		}
	}

	return &domain.LovdataSearchResult{
		Hits:       hits,
		Filenames:  filenames,
		Pagination: domain.NewPagination(page, pageSize, result.Total),
		LawType:    lawType,
		Reranked:   reranked,
	}, nil
}

func sliceHits(hits []domain.SearchHit, offset, limit int) []domain.SearchHit {
	if offset >= len(hits) {
		return []domain.SearchHit{}
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end]
}

// buildViewerURL points at the public document viewer. Member paths ending
// in .xml are rewritten to .html; the viewer endpoint resolves the .xml
// twin when serving.
func (uc *SearchUseCase) buildViewerURL(filename, member string) string {
	if strings.HasSuffix(strings.ToLower(member), ".xml") {
		member = member[:len(member)-len(".xml")] + ".html"
	}
	values := url.Values{}
	values.Set("filename", filename)
	values.Set("member", member)
	return uc.cfg.ViewerBasePath + "?" + values.Encode()
}
