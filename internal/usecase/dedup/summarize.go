package dedup

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ticket-dedup/internal/domain"
)

// Fixed summarization outcomes. Callers display these verbatim, so they are
// part of the stage contract.
const (
	NoTicketsSummary      = "No tickets provided for summarization."
	SummaryFailureMessage = "Failed to generate summary due to an error"
	SummaryUnavailableLLM = "Summary unavailable: LLM not initialized."
)

// SummarizeConfig holds summarization stage parameters.
type SummarizeConfig struct {
	Timeout   time.Duration
	MaxTokens int
}

// Summarizer produces a short natural-language description of how the
// selected tickets relate to the query (Stage 3). It always returns some
// string and never an error.
type Summarizer struct {
	model  domain.LLMClient
	cfg    SummarizeConfig
	logger *slog.Logger
}

// NewSummarizer constructs the stage. model may be nil.
func NewSummarizer(model domain.LLMClient, cfg SummarizeConfig, logger *slog.Logger) *Summarizer {
	return &Summarizer{model: model, cfg: cfg, logger: logger}
}

// Summarize describes the similarities across the ticket set.
func (s *Summarizer) Summarize(ctx context.Context, detectionID, query string, tickets []domain.CandidateTicket) string {
	if len(tickets) == 0 {
		return NoTicketsSummary
	}
	return s.generate(ctx, detectionID, buildSummaryPrompt(query, tickets), len(tickets))
}

// SummarizeTicket is the single-ticket variant, describing one candidate
// against the query. Same failure policy as Summarize.
func (s *Summarizer) SummarizeTicket(ctx context.Context, detectionID, query string, ticket domain.CandidateTicket) string {
	return s.generate(ctx, detectionID, buildTicketSummaryPrompt(query, ticket), 1)
}

func (s *Summarizer) generate(ctx context.Context, detectionID, prompt string, ticketCount int) string {
	if s.model == nil {
		s.logger.Warn("summarizer_unavailable",
			slog.String("detection_id", detectionID))
		return SummaryUnavailableLLM
	}

	start := time.Now()

	genCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	resp, err := s.model.Generate(genCtx, prompt, s.cfg.MaxTokens)
	if err != nil {
		s.logger.Warn("summarization_failed",
			slog.String("detection_id", detectionID),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return SummaryFailureMessage
	}

	s.logger.Info("summarization_completed",
		slog.String("detection_id", detectionID),
		slog.Int("ticket_count", ticketCount),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return strings.TrimSpace(resp.Text)
}
