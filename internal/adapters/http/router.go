package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
	"github.com/paragraf-ai/lovdata-assistant/internal/core/ports"
	"github.com/paragraf-ai/lovdata-assistant/internal/observability/metrics"
)

const maxRequestPageSize = 20

type RouterConfig struct {
	APIKey string
	// RequestBudget is the wall-clock budget for one assistant run. The
	// handler reserves headroom so a response is always written before
	// the transport deadline.
	RequestBudget time.Duration
}

type Router struct {
	assistant ports.AssistantService
	searcher  ports.DocumentSearcher
	store     ports.DocumentStore
	metrics   *metrics.HTTPServerMetrics
	cfg       RouterConfig
}

func NewRouter(
	assistant ports.AssistantService,
	searcher ports.DocumentSearcher,
	store ports.DocumentStore,
	m *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	if cfg.RequestBudget <= 0 {
		cfg.RequestBudget = 30 * time.Second
	}
	return &Router{
		assistant: assistant,
		searcher:  searcher,
		store:     store,
		metrics:   m,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/assistant/run", authMiddleware(rt.cfg.APIKey, http.HandlerFunc(rt.assistantRun)))
	mux.Handle("/v1/search", authMiddleware(rt.cfg.APIKey, http.HandlerFunc(rt.searchDocuments)))
	mux.Handle("/documents/xml", authMiddleware(rt.cfg.APIKey, http.HandlerFunc(rt.documentXML)))
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	return requestIDMiddleware(metricsMiddleware(rt.metrics, accessLogMiddleware(mux)))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type assistantRequest struct {
	Question string `json:"question"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

type assistantResponse struct {
	Answer     string            `json:"answer"`
	Evidence   []domain.Evidence `json:"evidence"`
	Citations  []domain.Citation `json:"citations"`
	Pagination domain.Pagination `json:"pagination"`
	Metadata   assistantMetadata `json:"metadata"`
}

type assistantMetadata struct {
	RequestID      string `json:"request_id,omitempty"`
	Iterations     int    `json:"iterations"`
	FallbackReason string `json:"fallback_reason,omitempty"`
	Provider       string `json:"provider,omitempty"`
	DurationMS     int64  `json:"duration_ms"`
	Degraded       bool   `json:"degraded"`
}

func (rt *Router) assistantRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req assistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json", "field": "body"})
		return
	}
	if len([]rune(strings.TrimSpace(req.Question))) < 3 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "question must be at least 3 characters",
			"field": "question",
		})
		return
	}
	if req.Page < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page must be >= 1", "field": "page"})
		return
	}
	if req.PageSize < 0 || req.PageSize > maxRequestPageSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "pageSize must be between 1 and " + strconv.Itoa(maxRequestPageSize),
			"field": "pageSize",
		})
		return
	}

	start := time.Now()
	// Reserve headroom inside the budget so the degraded response is
	// always written before any upstream transport deadline fires.
	budget := rt.cfg.RequestBudget - 500*time.Millisecond
	if budget < time.Second {
		budget = rt.cfg.RequestBudget
	}
	runCtx, cancel := context.WithTimeout(r.Context(), budget)
	defer cancel()

	result, err := rt.assistant.Run(runCtx, domain.AssistantRequest{
		Question:  req.Question,
		Page:      req.Page,
		PageSize:  req.PageSize,
		Locale:    req.Locale,
		RequestID: requestIDFromContext(r.Context()),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			rt.writeDegradedResponse(w, r, req, start)
			return
		}
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.ObserveAssistantRun(result.Iterations, len(result.Evidence), result.FallbackReason)
	}

	writeJSON(w, http.StatusOK, assistantResponse{
		Answer:     result.Answer,
		Evidence:   result.Evidence,
		Citations:  result.Citations,
		Pagination: result.Pagination,
		Metadata: assistantMetadata{
			RequestID:      requestIDFromContext(r.Context()),
			Iterations:     result.Iterations,
			FallbackReason: result.FallbackReason,
			Provider:       result.Provider,
			DurationMS:     time.Since(start).Milliseconds(),
			Degraded:       result.FallbackReason != "",
		},
	})
}

// writeDegradedResponse is the soft-timeout path: the budget expired before
// the agent produced anything, but the caller still gets a well-formed
// answer object.
func (rt *Router) writeDegradedResponse(w http.ResponseWriter, r *http.Request, req assistantRequest, start time.Time) {
	if rt.metrics != nil {
		rt.metrics.ObserveAssistantRun(0, 0, "timeout")
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	writeJSON(w, http.StatusOK, assistantResponse{
		Answer:     "Beklager, forespørselen tok for lang tid. Prøv igjen med et mer avgrenset spørsmål.",
		Evidence:   []domain.Evidence{},
		Citations:  []domain.Citation{},
		Pagination: domain.NewPagination(page, pageSize, 0),
		Metadata: assistantMetadata{
			RequestID:      requestIDFromContext(r.Context()),
			FallbackReason: "timeout",
			DurationMS:     time.Since(start).Milliseconds(),
			Degraded:       true,
		},
	})
}

func (rt *Router) searchDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter q is required", "field": "q"})
		return
	}
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 10)

	result, err := rt.searcher.SearchPublicData(r.Context(), domain.LovdataSearchInput{
		Query:    query,
		Page:     page,
		PageSize: pageSize,
		Filters: domain.SearchFilters{
			Year:     queryInt(r, "year", 0),
			LawType:  r.URL.Query().Get("lawType"),
			Ministry: r.URL.Query().Get("ministry"),
		},
		EnableReranking: r.URL.Query().Get("rerank") != "false",
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.ObserveSearch(result.LawType)
		rt.metrics.ObserveRerank(result.Reranked)
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) documentXML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filename := r.URL.Query().Get("filename")
	member := r.URL.Query().Get("member")
	if filename == "" || member == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filename and member are required"})
		return
	}

	content, err := rt.store.FetchFullText(r.Context(), filename, member)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	switch r.URL.Query().Get("format") {
	case "json":
		writeJSON(w, http.StatusOK, map[string]string{
			"filename": filename,
			"member":   member,
			"content":  content,
		})
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(content))
	default:
		contentType := "application/xml; charset=utf-8"
		if strings.HasSuffix(strings.ToLower(member), ".html") {
			contentType = "text/html; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(content))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
