package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticket-dedup/internal/domain"
	"ticket-dedup/internal/usecase/dedup"
)

// Pipeline-level error strings. These are the only error conditions callers
// branch on; everything else degrades inside its stage.
const (
	ErrNoInitialTickets     = "No initial tickets found"
	ErrNoTicketsAfterRerank = "No tickets selected after reranking"
)

// DetectDuplicatesInput defines the input parameters for duplicate detection.
// RetrieveK and RerankN fall back to configured defaults when zero.
type DetectDuplicatesInput struct {
	Query     string
	RetrieveK int
	RerankN   int
}

// DetectDuplicatesUsecase runs the retrieve → rerank → summarize pipeline.
type DetectDuplicatesUsecase interface {
	Execute(ctx context.Context, input DetectDuplicatesInput) domain.DetectionResult

	// ExplainTicket produces a per-ticket similarity explanation for one
	// candidate against the query.
	ExplainTicket(ctx context.Context, query string, ticket domain.CandidateTicket) string
}

type detectDuplicatesUsecase struct {
	retriever  *dedup.Retriever
	reranker   *dedup.Reranker
	summarizer *dedup.Summarizer
	defaultK   int
	defaultN   int
	logger     *slog.Logger
}

func NewDetectDuplicatesUsecase(
	retriever *dedup.Retriever,
	reranker *dedup.Reranker,
	summarizer *dedup.Summarizer,
	defaultK int,
	defaultN int,
	logger *slog.Logger,
) DetectDuplicatesUsecase {
	if defaultK <= 0 {
		defaultK = 10
	}
	if defaultN <= 0 {
		defaultN = 3
	}
	return &detectDuplicatesUsecase{
		retriever:  retriever,
		reranker:   reranker,
		summarizer: summarizer,
		defaultK:   defaultK,
		defaultN:   defaultN,
		logger:     logger,
	}
}

// Execute runs the stages strictly in sequence. Stages own their degradation
// policies and never return errors here; the orchestrator only inspects
// their outputs to decide whether to short-circuit.
func (u *detectDuplicatesUsecase) Execute(ctx context.Context, input DetectDuplicatesInput) domain.DetectionResult {
	detectionID := uuid.New().String()
	query := strings.TrimSpace(input.Query)

	k := input.RetrieveK
	if k <= 0 {
		k = u.defaultK
	}
	n := input.RerankN
	if n <= 0 {
		n = u.defaultN
	}

	start := time.Now()
	u.logger.Info("duplicate_detection_started",
		slog.String("detection_id", detectionID),
		slog.Int("retrieve_k", k),
		slog.Int("rerank_n", n),
		slog.Int("query_length", len(query)))

	candidates := u.retriever.Retrieve(ctx, detectionID, query, k)
	if len(candidates) == 0 {
		u.logger.Warn("no_initial_tickets",
			slog.String("detection_id", detectionID))
		return domain.DetectionResult{
			Tickets: []domain.RerankedTicket{},
			Err:     ErrNoInitialTickets,
		}
	}

	reranked := u.reranker.Rerank(ctx, detectionID, query, candidates, n)
	if len(reranked) == 0 {
		u.logger.Warn("no_tickets_after_rerank",
			slog.String("detection_id", detectionID),
			slog.Int("candidate_count", len(candidates)))
		return domain.DetectionResult{
			Tickets: []domain.RerankedTicket{},
			Err:     ErrNoTicketsAfterRerank,
		}
	}

	summary := u.summarizer.Summarize(ctx, detectionID, query, asCandidates(reranked))

	u.logger.Info("duplicate_detection_completed",
		slog.String("detection_id", detectionID),
		slog.Int("ticket_count", len(reranked)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return domain.DetectionResult{
		Tickets: reranked,
		Summary: summary,
	}
}

func (u *detectDuplicatesUsecase) ExplainTicket(ctx context.Context, query string, ticket domain.CandidateTicket) string {
	detectionID := uuid.New().String()
	return u.summarizer.SummarizeTicket(ctx, detectionID, strings.TrimSpace(query), ticket)
}

func asCandidates(reranked []domain.RerankedTicket) []domain.CandidateTicket {
	candidates := make([]domain.CandidateTicket, 0, len(reranked))
	for _, t := range reranked {
		candidates = append(candidates, t.CandidateTicket)
	}
	return candidates
}
