package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/paragraf-ai/lovdata-assistant/internal/config"
	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
	"github.com/paragraf-ai/lovdata-assistant/internal/core/ports"
	"github.com/paragraf-ai/lovdata-assistant/internal/core/usecase"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/llm/openai"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/queue/nats"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/repository/postgres"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/rerank/jina"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/resilience"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/websearch/serper"
	"github.com/paragraf-ai/lovdata-assistant/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Store     ports.DocumentStore
	Assistant ports.AssistantService
	Searcher  ports.DocumentSearcher
	Metrics   *metrics.HTTPServerMetrics

	closeFn func()
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewDocumentStore(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	var reranker ports.Reranker
	if cfg.RerankEnabled {
		reranker = jina.New(cfg.RerankBaseURL, cfg.RerankAPIKey, cfg.RerankModel, executor)
	}

	var web ports.WebSearcher
	if cfg.SerperAPIKey != "" {
		web = serper.New(cfg.SerperBaseURL, cfg.SerperAPIKey, cfg.SerperLocation, executor)
	}

	llm := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIChatModel, cfg.OpenAIEmbedModel)

	publisher, err := nats.New(cfg.NATSURL, cfg.NATSSubject, executor)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init event publisher: %w", err)
	}

	searchUC := usecase.NewSearchUseCase(store, reranker, usecase.SearchConfig{
		EnableReranking: cfg.RerankEnabled,
		RerankTopN:      cfg.RerankTopN,
		RRFK:            cfg.FusionRRFK,
		ViewerBasePath:  cfg.ViewerBasePath,
	}, logger)

	assistantUC := usecase.NewAssistantUseCase(
		searchUC,
		llm,
		web,
		llm,
		publisher,
		domain.AgentLimits{
			MaxIterations:  cfg.AgentMaxIterations,
			Timeout:        cfg.AgentTimeout,
			ModelTimeout:   cfg.AgentModelTimeout,
			ToolTimeout:    cfg.AgentToolTimeout,
			EvidenceWindow: cfg.AgentEvidenceWindow,
		},
		cfg.PracticeSite,
		logger,
	)

	return &App{
		Config:    cfg,
		Store:     store,
		Assistant: assistantUC,
		Searcher:  searchUC,
		Metrics:   metrics.NewHTTPServerMetrics("lovdata-assistant"),

		closeFn: func() {
			publisher.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
