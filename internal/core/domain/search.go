package domain

import "math"

// Law types in descending order of legal authority. Searches without an
// explicit lawType filter walk this list.
const (
	LawTypeLov       = "Lov"
	LawTypeForskrift = "Forskrift"
	LawTypeVedtak    = "Vedtak"
	LawTypeInstruks  = "Instruks"
	LawTypeReglement = "Reglement"
	LawTypeVedlegg   = "Vedlegg"
)

var LawTypePriority = []string{
	LawTypeLov,
	LawTypeForskrift,
	LawTypeVedtak,
	LawTypeInstruks,
	LawTypeReglement,
	LawTypeVedlegg,
}

const (
	MaxPageSize          = 50
	DefaultRerankTopN    = 50
	DefaultRRFK          = 60
	RerankCandidateLimit = 100
)

// SearchHit is one candidate document segment returned by the store.
// (Filename, Member) is the natural key of a document within an archive.
type SearchHit struct {
	Filename string  `json:"filename"`
	Member   string  `json:"member"`
	Title    string  `json:"title,omitempty"`
	Date     string  `json:"date,omitempty"`
	Snippet  string  `json:"snippet,omitempty"`
	LawType  string  `json:"law_type,omitempty"`
	Ministry string  `json:"ministry,omitempty"`
	Year     int     `json:"year,omitempty"`
	Score    float64 `json:"score"`
	URL      string  `json:"url,omitempty"`
}

// SearchFilters narrow the candidate set; zero values mean no constraint.
type SearchFilters struct {
	Year     int    `json:"year,omitempty"`
	LawType  string `json:"law_type,omitempty"`
	Ministry string `json:"ministry,omitempty"`
}

func (f SearchFilters) IsZero() bool {
	return f.Year == 0 && f.LawType == "" && f.Ministry == ""
}

type SearchOptions struct {
	Limit          int
	Offset         int
	Filters        SearchFilters
	QueryEmbedding []float32
	RRFK           int
}

type SearchResult struct {
	Hits  []SearchHit
	Total int
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalHits  int `json:"total_hits"`
	TotalPages int `json:"total_pages"`
}

// NewPagination clamps page/pageSize and derives totalPages from the
// pre-slice total. TotalPages is 1 even for an empty result set.
func NewPagination(page, pageSize, totalHits int) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	totalPages := 1
	if totalHits > 0 {
		totalPages = int(math.Ceil(float64(totalHits) / float64(pageSize)))
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalHits:  totalHits,
		TotalPages: totalPages,
	}
}

type LovdataSearchInput struct {
	Query           string
	Page            int
	PageSize        int
	Filters         SearchFilters
	EnableReranking bool
	RerankTopN      int
	QueryEmbedding  []float32
}

type LovdataSearchResult struct {
	Hits       []SearchHit `json:"hits"`
	Filenames  []string    `json:"filenames"`
	Pagination Pagination  `json:"pagination"`
	LawType    string      `json:"law_type,omitempty"`
	Reranked   bool        `json:"reranked"`
}

// RerankCandidate is one document handed to the cross-encoder provider.
// Index points back into the caller's candidate slice.
type RerankCandidate struct {
	Index    int
	Text     string
	Metadata map[string]string
}

type RankedCandidate struct {
	Index          int
	RelevanceScore float64
	Text           string
	Metadata       map[string]string
}

// OrganicResult is one hit from the external web-search provider.
type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
	Date    string `json:"date,omitempty"`
}
