package dedup

import (
	"context"
	"log/slog"
	"time"

	"ticket-dedup/internal/domain"
)

// RerankConfig holds reranking stage parameters.
type RerankConfig struct {
	Timeout   time.Duration
	MaxTokens int
}

// Reranker asks a language model to select and order the candidates most
// likely to be duplicates of the query (Stage 2).
//
// The stage never returns an error: a missing model or a failed invocation
// degrades to returning the first n candidates unranked, and a model that
// selects nothing yields an empty result, which is a legitimate "no
// duplicates" outcome.
type Reranker struct {
	model  domain.LLMClient
	cfg    RerankConfig
	logger *slog.Logger
}

// NewReranker constructs the stage. model may be nil when no reranking LLM
// is configured; the stage then passes candidates through unmodified.
func NewReranker(model domain.LLMClient, cfg RerankConfig, logger *slog.Logger) *Reranker {
	return &Reranker{model: model, cfg: cfg, logger: logger}
}

// Rerank returns at most n tickets drawn from candidates, in the model's
// preference order. The output is always a subset of the input.
func (r *Reranker) Rerank(ctx context.Context, detectionID, query string, candidates []domain.CandidateTicket, n int) []domain.RerankedTicket {
	if len(candidates) == 0 {
		return []domain.RerankedTicket{}
	}
	if n <= 0 {
		n = len(candidates)
	}

	if r.model == nil {
		r.logger.Warn("reranker_unavailable_passthrough",
			slog.String("detection_id", detectionID),
			slog.Int("candidate_count", len(candidates)))
		return passthrough(candidates, n)
	}

	start := time.Now()
	prompt := buildRerankPrompt(query, candidates, n)

	rerankCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		rerankCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	resp, err := r.model.Generate(rerankCtx, prompt, r.cfg.MaxTokens)
	if err != nil {
		r.logger.Warn("reranking_failed_passthrough",
			slog.String("detection_id", detectionID),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return passthrough(candidates, n)
	}

	sel := parseSelection(resp.Text, len(candidates), r.logger)
	if sel.none || len(sel.entries) == 0 {
		r.logger.Info("reranker_selected_none",
			slog.String("detection_id", detectionID),
			slog.Bool("explicit_none", sel.none),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return []domain.RerankedTicket{}
	}

	if len(sel.entries) > n {
		sel.entries = sel.entries[:n]
	}

	reranked := make([]domain.RerankedTicket, 0, len(sel.entries))
	for _, entry := range sel.entries {
		reranked = append(reranked, domain.RerankedTicket{
			CandidateTicket: candidates[entry.index],
			LLMScore:        entry.score,
			Reasoning:       entry.reasoning,
		})
	}

	r.logger.Info("reranking_completed",
		slog.String("detection_id", detectionID),
		slog.Int("candidate_count", len(candidates)),
		slog.Int("selected_count", len(reranked)),
		slog.String("model", r.model.Version()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return reranked
}

// passthrough returns the first n candidates in retrieval order, without
// model annotations.
func passthrough(candidates []domain.CandidateTicket, n int) []domain.RerankedTicket {
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]domain.RerankedTicket, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, domain.RerankedTicket{CandidateTicket: c})
	}
	return out
}
