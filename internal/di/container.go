package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ticket-dedup/internal/adapter/index"
	"ticket-dedup/internal/adapter/llm"
	"ticket-dedup/internal/domain"
	"ticket-dedup/internal/infra/config"
	"ticket-dedup/internal/infra/httpclient"
	"ticket-dedup/internal/usecase"
	"ticket-dedup/internal/usecase/dedup"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	DetectUsecase usecase.DetectDuplicatesUsecase
	IngestUsecase usecase.IngestTicketsUsecase

	// Fallback is exposed for readiness reporting.
	Fallback *index.MemoryIndex
}

// NewApplicationComponents wires all dependencies from config. pool may be
// nil when the primary index database is unavailable; the pipeline then runs
// in fallback-only degraded mode.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.Timeout) * time.Second)
	llmHTTP := httpclient.NewPooledClient(time.Duration(cfg.LLM.Timeout) * time.Second)

	encoder := llm.NewOllamaEmbedder(cfg.Embedder.URL, cfg.Embedder.Model, cfg.Embedder.Timeout, embedderHTTP)

	var primary domain.VectorIndex
	if pool != nil {
		primary = index.NewPgvectorIndex(pool)
	} else {
		log.Warn("primary_index_unconfigured",
			slog.String("mode", "fallback_only"))
	}
	fallback := index.NewMemoryIndex(cfg.Fallback.Size, time.Duration(cfg.Fallback.TTLMin)*time.Minute)

	var model domain.LLMClient
	switch cfg.LLM.Provider {
	case "ollama":
		model = llm.NewOllamaGenerator(cfg.LLM.OllamaURL, cfg.LLM.OllamaModel, cfg.LLM.Timeout, llmHTTP)
	case "anthropic":
		if cfg.LLM.AnthropicAPIKey != "" {
			model = llm.NewAnthropicGenerator(cfg.LLM.AnthropicAPIKey, cfg.LLM.AnthropicModel)
		} else {
			log.Warn("anthropic_api_key_missing",
				slog.String("mode", "rerank_passthrough"))
		}
	default:
		log.Warn("unknown_llm_provider",
			slog.String("provider", cfg.LLM.Provider),
			slog.String("mode", "rerank_passthrough"))
	}
	if model != nil {
		log.Info("llm_configured",
			slog.String("provider", cfg.LLM.Provider),
			slog.String("model", model.Version()))
	}

	retriever := dedup.NewRetriever(encoder, primary, fallback, cfg.Dedup.Namespace, log)
	reranker := dedup.NewReranker(model, dedup.RerankConfig{
		Timeout:   time.Duration(cfg.Dedup.RerankTimeout) * time.Second,
		MaxTokens: cfg.LLM.MaxTokens,
	}, log)
	summarizer := dedup.NewSummarizer(model, dedup.SummarizeConfig{
		Timeout:   time.Duration(cfg.Dedup.SummaryTimeout) * time.Second,
		MaxTokens: cfg.LLM.MaxTokens,
	}, log)

	detectUsecase := usecase.NewDetectDuplicatesUsecase(
		retriever, reranker, summarizer,
		cfg.Dedup.RetrieveK, cfg.Dedup.RerankN, log,
	)

	// Ingestion writes to the primary index; without one it still feeds the
	// fallback so a DB-less deployment has something to retrieve from.
	ingestIndex := primary
	if ingestIndex == nil {
		ingestIndex = fallback
	}
	ingestUsecase := usecase.NewIngestTicketsUsecase(
		encoder, ingestIndex,
		cfg.Embedder.BatchSize, cfg.Ingest.UpsertBatchSize, cfg.Ingest.RatePerSec,
		log,
	)

	return &ApplicationComponents{
		DetectUsecase: detectUsecase,
		IngestUsecase: ingestUsecase,
		Fallback:      fallback,
	}
}
