package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
	"github.com/paragraf-ai/lovdata-assistant/internal/core/ports"
)

const defaultPracticeResults = 5

// AssistantUseCase drives the tool-calling agent loop: it hands the model
// the current evidence window and prior tool outcomes, executes requested
// tool calls, accumulates deduplicated evidence, and iterates until the
// model answers or the iteration/time budget runs out. Every exit path
// produces a coherent answer object.
type AssistantUseCase struct {
	searcher     ports.DocumentSearcher
	model        ports.AgentModel
	web          ports.WebSearcher
	embedder     ports.Embedder
	publisher    ports.EventPublisher
	limits       domain.AgentLimits
	practiceSite string
	logger       *slog.Logger
}

func NewAssistantUseCase(
	searcher ports.DocumentSearcher,
	model ports.AgentModel,
	web ports.WebSearcher,
	embedder ports.Embedder,
	publisher ports.EventPublisher,
	limits domain.AgentLimits,
	practiceSite string,
	logger *slog.Logger,
) *AssistantUseCase {
	if limits.MaxIterations <= 0 {
		limits.MaxIterations = 5
	}
	if limits.Timeout <= 0 {
		limits.Timeout = 25 * time.Second
	}
	if limits.ModelTimeout <= 0 {
		limits.ModelTimeout = 15 * time.Second
	}
	if limits.ToolTimeout <= 0 {
		limits.ToolTimeout = 10 * time.Second
	}
	if limits.EvidenceWindow <= 0 {
		limits.EvidenceWindow = 6
	}
	if practiceSite == "" {
		practiceSite = "lovdata.no"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistantUseCase{
		searcher:     searcher,
		model:        model,
		web:          web,
		embedder:     embedder,
		publisher:    publisher,
		limits:       limits,
		practiceSite: practiceSite,
		logger:       logger,
	}
}

type agentState struct {
	builder      *evidenceBuilder
	evidence     []domain.Evidence
	history      []domain.AgentFunctionResult
	pagination   domain.Pagination
	usedPractice bool
}

// discardLovdataEvidence implements the replace-on-reissue semantics: when
// the agent re-runs the structured document search it has decided the prior
// results were insufficient, so lovdata evidence is dropped while web
// evidence is retained as independently valuable.
func (s *agentState) discardLovdataEvidence() {
	kept := s.evidence[:0]
	for _, item := range s.evidence {
		if item.Source == domain.EvidenceSourceLovdata {
			continue
		}
		kept = append(kept, item)
	}
	s.evidence = kept
	s.builder.Reset(domain.EvidenceSourceLovdata)
}

func (s *agentState) window(limit int) []domain.Evidence {
	if len(s.evidence) <= limit {
		return s.evidence
	}
	return s.evidence[:limit]
}

func (uc *AssistantUseCase) Run(ctx context.Context, req domain.AssistantRequest) (*domain.AgentRunResult, error) {
	question := strings.TrimSpace(req.Question)
	if len([]rune(question)) < 3 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "assistant run", fmt.Errorf("question must be at least 3 characters"))
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	start := time.Now()
	loopCtx, cancel := context.WithTimeout(ctx, uc.limits.Timeout)
	defer cancel()

	state := &agentState{
		builder:    newEvidenceBuilder(),
		pagination: domain.NewPagination(page, pageSize, 0),
	}

	var (
		answer         string
		modelCitations []domain.Citation
		fallbackReason string
		iterations     int
	)

	if uc.model == nil {
		fallbackReason = "agent_unavailable"
	}

	for i := 1; uc.model != nil && i <= uc.limits.MaxIterations; i++ {
		if loopCtx.Err() != nil {
			fallbackReason = "timeout"
			break
		}
		iterations = i

		modelCtx, modelCancel := context.WithTimeout(loopCtx, uc.limits.ModelTimeout)
		turn, err := uc.model.Step(modelCtx, question, state.window(uc.limits.EvidenceWindow), state.history)
		modelCancel()
		if err != nil {
			if isTimeoutError(err) {
				fallbackReason = "timeout"
			} else {
				fallbackReason = "model_error"
			}
			uc.logger.Warn("agent_model_step_failed", "iteration", i, "error", err)
			break
		}

		if len(turn.ToolCalls) == 0 {
			answer = strings.TrimSpace(turn.Answer)
			modelCitations = turn.Citations
			if answer == "" {
				fallbackReason = "empty_answer"
			}
			break
		}

		// Tool calls within one iteration run sequentially; interleaved
		// evidence mutation is not worth reasoning about.
		for _, call := range turn.ToolCalls {
			result := uc.executeTool(loopCtx, call, state, page, pageSize)
			state.history = append(state.history, result)
		}
	}

	if answer == "" && fallbackReason == "" {
		fallbackReason = "max_iterations"
	}

	if answer == "" && len(state.evidence) == 0 {
		uc.gatherFallbackEvidence(ctx, question, state, page, pageSize)
	}

	provider := ""
	if state.usedPractice {
		provider = "Serper"
	}
	citations := normaliseCitations(modelCitations, state.evidence, state.pagination)
	if answer == "" {
		answer = buildFallbackAnswer(question, state.evidence, provider)
	}

	result := &domain.AgentRunResult{
		Answer:         answer,
		Evidence:       state.evidence,
		Citations:      citations,
		Pagination:     state.pagination,
		Iterations:     iterations,
		FallbackReason: fallbackReason,
		Provider:       provider,
	}
	uc.publishAnswered(ctx, req, result, time.Since(start))
	return result, nil
}

// gatherFallbackEvidence runs the site-scoped web search directly when the
// agent exits without an answer and without evidence, so the deterministic
// fallback answer still has sources to point at.
func (uc *AssistantUseCase) gatherFallbackEvidence(ctx context.Context, question string, state *agentState, page, pageSize int) {
	if uc.web == nil {
		return
	}
	searchCtx, cancel := context.WithTimeout(ctx, uc.limits.ToolTimeout)
	defer cancel()

	results, err := uc.web.SearchSite(searchCtx, question, uc.practiceSite, defaultPracticeResults)
	if err != nil {
		uc.logger.Warn("fallback_search_failed", "error", err)
		return
	}
	added := state.builder.AddFallbackResults(results)
	if len(added) == 0 {
		return
	}
	state.evidence = append(state.evidence, added...)
	state.usedPractice = true
	if state.pagination.TotalHits == 0 {
		state.pagination = domain.NewPagination(page, pageSize, len(state.evidence))
	}
}

func (uc *AssistantUseCase) executeTool(ctx context.Context, call domain.ToolCall, state *agentState, page, pageSize int) domain.AgentFunctionResult {
	toolCtx, cancel := context.WithTimeout(ctx, uc.limits.ToolTimeout)
	defer cancel()

	switch call.Name {
	case domain.ToolSearchLegalDocuments:
		return uc.runStructuredSearch(toolCtx, call, state, page, pageSize)
	case domain.ToolSearchLegalPractice:
		return uc.runPracticeSearch(toolCtx, call, state)
	default:
		return domain.AgentFunctionResult{
			CallID:   call.ID,
			Tool:     call.Name,
			Output:   `{"error":"unknown tool"}`,
			Guidance: fmt.Sprintf("Tool %q does not exist. Available tools: %s, %s.", call.Name, domain.ToolSearchLegalDocuments, domain.ToolSearchLegalPractice),
		}
	}
}

func (uc *AssistantUseCase) runStructuredSearch(ctx context.Context, call domain.ToolCall, state *agentState, page, pageSize int) domain.AgentFunctionResult {
	var args domain.StructuredSearchArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || strings.TrimSpace(args.Query) == "" {
		uc.logger.Warn("malformed_tool_arguments", "tool", call.Name, "arguments", call.Arguments)
		return domain.AgentFunctionResult{
			CallID:   call.ID,
			Tool:     call.Name,
			Output:   `{"error":"malformed arguments"}`,
			Guidance: `Arguments must be a JSON object with a non-empty "query" and optional "year", "law_type", "ministry".`,
		}
	}

	filters := domain.SearchFilters{
		Year:     args.Year,
		LawType:  args.LawType,
		Ministry: args.Ministry,
	}
	if filters.IsZero() {
		filters = InferFilters(args.Query)
	}

	input := domain.LovdataSearchInput{
		Query:           args.Query,
		Page:            page,
		PageSize:        pageSize,
		Filters:         filters,
		EnableReranking: true,
	}
	if uc.embedder != nil {
		embedding, err := uc.embedder.EmbedQuery(ctx, args.Query)
		if err != nil {
			uc.logger.Warn("query_embedding_failed", "error", err)
		} else {
			input.QueryEmbedding = embedding
		}
	}

	result, err := uc.searcher.SearchPublicData(ctx, input)
	if err != nil {
		// Store failures do not abort the answer; the loop continues with
		// empty evidence for this tool call.
		uc.logger.Warn("structured_search_failed", "error", err, "query", args.Query)
		return domain.AgentFunctionResult{
			CallID:   call.ID,
			Tool:     call.Name,
			Output:   `{"error":"search unavailable"}`,
			Guidance: "The document search failed. Answer from already-gathered evidence or try the practice search.",
		}
	}

	// Prior lovdata evidence is replaced only once the replacement search
	// has succeeded; a failed reissue keeps the old results.
	state.discardLovdataEvidence()

	added := state.builder.AddSearchHits(result.Hits)
	state.evidence = append(state.evidence, added...)
	state.pagination = result.Pagination

	output, _ := json.Marshal(map[string]any{
		"total_hits": result.Pagination.TotalHits,
		"returned":   len(added),
		"law_type":   result.LawType,
		"evidence":   evidenceSummaries(added),
	})
	return domain.AgentFunctionResult{
		CallID:   call.ID,
		Tool:     call.Name,
		Output:   string(output),
		Guidance: structuredSearchGuidance(result.Pagination.TotalHits, filters),
	}
}

func (uc *AssistantUseCase) runPracticeSearch(ctx context.Context, call domain.ToolCall, state *agentState) domain.AgentFunctionResult {
	var args domain.PracticeSearchArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || strings.TrimSpace(args.Query) == "" {
		uc.logger.Warn("malformed_tool_arguments", "tool", call.Name, "arguments", call.Arguments)
		return domain.AgentFunctionResult{
			CallID:   call.ID,
			Tool:     call.Name,
			Output:   `{"error":"malformed arguments"}`,
			Guidance: `Arguments must be a JSON object with a non-empty "query".`,
		}
	}
	if uc.web == nil {
		return domain.AgentFunctionResult{
			CallID:   call.ID,
			Tool:     call.Name,
			Output:   `{"error":"practice search unavailable"}`,
			Guidance: "Web search is not configured. Use search_legal_documents instead.",
		}
	}

	state.usedPractice = true
	results, err := uc.web.SearchSite(ctx, args.Query, uc.practiceSite, defaultPracticeResults)
	if err != nil {
		uc.logger.Warn("practice_search_failed", "error", err, "query", args.Query)
		return domain.AgentFunctionResult{
			CallID:   call.ID,
			Tool:     call.Name,
			Output:   `{"error":"search unavailable"}`,
			Guidance: "The practice search failed. Answer from already-gathered evidence.",
		}
	}

	added := state.builder.AddOrganicResults(results)
	state.evidence = append(state.evidence, added...)

	output, _ := json.Marshal(map[string]any{
		"returned": len(added),
		"evidence": evidenceSummaries(added),
	})
	guidance := fmt.Sprintf("Practice search returned %d new result(s).", len(added))
	if len(added) == 0 {
		guidance = "Practice search returned no citable results. Try broader terms or answer from document evidence."
	}
	return domain.AgentFunctionResult{
		CallID:   call.ID,
		Tool:     call.Name,
		Output:   string(output),
		Guidance: guidance,
	}
}

func structuredSearchGuidance(totalHits int, filters domain.SearchFilters) string {
	if totalHits == 0 {
		if !filters.IsZero() {
			return "No documents matched. Relax the filters: drop year, ministry, or law_type and retry with broader terms."
		}
		return "No documents matched. Retry with different or broader query terms."
	}
	if totalHits > 100 {
		return fmt.Sprintf("Found %d documents; the query is broad. Narrow it with year or law_type filters if the top hits look unspecific.", totalHits)
	}
	return fmt.Sprintf("Found %d document(s). Cite the relevant evidence IDs in the final answer.", totalHits)
}

func evidenceSummaries(items []domain.Evidence) []map[string]string {
	out := make([]map[string]string, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]string{
			"id":    item.ID,
			"title": item.Title,
			"date":  item.Date,
		})
	}
	return out
}

func (uc *AssistantUseCase) publishAnswered(ctx context.Context, req domain.AssistantRequest, result *domain.AgentRunResult, elapsed time.Duration) {
	if uc.publisher == nil {
		return
	}
	event := domain.AnsweredEvent{
		RequestID:      req.RequestID,
		Question:       req.Question,
		EvidenceCount:  len(result.Evidence),
		CitationCount:  len(result.Citations),
		Iterations:     result.Iterations,
		FallbackReason: result.FallbackReason,
		DurationMS:     elapsed.Milliseconds(),
		AnsweredAt:     time.Now().UTC(),
	}
	if err := uc.publisher.PublishAnswered(ctx, event); err != nil {
		uc.logger.Warn("publish_answered_failed", "error", err)
	}
}

func isTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
