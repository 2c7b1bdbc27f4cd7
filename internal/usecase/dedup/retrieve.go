package dedup

import (
	"context"
	"log/slog"
	"time"

	"ticket-dedup/internal/domain"
)

// Retriever fetches candidate tickets for a free-text query (Stage 1).
//
// The primary index may be nil when the deployment is missing credentials or
// a database; the stage then serves from the in-memory fallback. Retrieval
// never fails the pipeline: every error path degrades and logs, and zero
// candidates is a valid result.
type Retriever struct {
	encoder   domain.VectorEncoder
	primary   domain.VectorIndex
	fallback  domain.VectorIndex
	namespace string
	logger    *slog.Logger
}

func NewRetriever(
	encoder domain.VectorEncoder,
	primary domain.VectorIndex,
	fallback domain.VectorIndex,
	namespace string,
	logger *slog.Logger,
) *Retriever {
	return &Retriever{
		encoder:   encoder,
		primary:   primary,
		fallback:  fallback,
		namespace: namespace,
		logger:    logger,
	}
}

// Retrieve embeds the query and returns up to k candidates ordered by
// descending index similarity.
func (r *Retriever) Retrieve(ctx context.Context, detectionID, query string, k int) []domain.CandidateTicket {
	if query == "" || k <= 0 {
		return []domain.CandidateTicket{}
	}

	start := time.Now()

	embeddings, err := r.encoder.Encode(ctx, []string{query})
	if err != nil || len(embeddings) != 1 {
		r.logger.Warn("query_embedding_failed",
			slog.String("detection_id", detectionID),
			slog.Any("error", err))
		return []domain.CandidateTicket{}
	}
	vector := embeddings[0]

	if r.primary != nil {
		matches, err := r.primary.Query(ctx, vector, k, r.namespace)
		if err == nil {
			r.primeFallback(ctx, matches)
			r.logger.Info("retrieval_completed",
				slog.String("detection_id", detectionID),
				slog.Int("match_count", len(matches)),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			return ticketsFromMatches(matches)
		}
		r.logger.Warn("retrieval_degraded_to_fallback",
			slog.String("detection_id", detectionID),
			slog.String("error", err.Error()))
	} else {
		r.logger.Warn("primary_index_unconfigured_using_fallback",
			slog.String("detection_id", detectionID))
	}

	matches, err := r.fallback.Query(ctx, vector, k, r.namespace)
	if err != nil {
		r.logger.Error("fallback_retrieval_failed",
			slog.String("detection_id", detectionID),
			slog.String("error", err.Error()))
		return []domain.CandidateTicket{}
	}

	r.logger.Info("fallback_retrieval_completed",
		slog.String("detection_id", detectionID),
		slog.Int("match_count", len(matches)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return ticketsFromMatches(matches)
}

// primeFallback mirrors primary hits into the fallback index so a later
// outage still has recent, relevant vectors to serve from. Best effort.
func (r *Retriever) primeFallback(ctx context.Context, matches []domain.IndexMatch) {
	items := make([]domain.IndexItem, 0, len(matches))
	for _, m := range matches {
		if len(m.Vector) == 0 {
			continue
		}
		items = append(items, domain.IndexItem{
			ID:       m.ID,
			Vector:   m.Vector,
			Metadata: m.Metadata,
		})
	}
	if len(items) == 0 {
		return
	}
	if err := r.fallback.Upsert(ctx, r.namespace, items); err != nil {
		r.logger.Warn("fallback_prime_failed", slog.String("error", err.Error()))
	}
}

func ticketsFromMatches(matches []domain.IndexMatch) []domain.CandidateTicket {
	tickets := make([]domain.CandidateTicket, 0, len(matches))
	for _, m := range matches {
		tickets = append(tickets, domain.TicketFromMatch(m))
	}
	return tickets
}
