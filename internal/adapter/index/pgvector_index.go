package index

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"ticket-dedup/internal/domain"
)

// PgvectorIndex is the primary vector index, backed by a ticket_vectors
// table with a pgvector embedding column. Similarity is cosine; scores are
// reported as 1 - distance so higher means more similar.
type PgvectorIndex struct {
	pool *pgxpool.Pool
}

func NewPgvectorIndex(pool *pgxpool.Pool) *PgvectorIndex {
	return &PgvectorIndex{pool: pool}
}

func (r *PgvectorIndex) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]domain.IndexMatch, error) {
	if topK <= 0 {
		return []domain.IndexMatch{}, nil
	}

	query := `
		SELECT ticket_id, metadata, embedding, 1 - (embedding <=> $1) AS score
		FROM ticket_vectors
		WHERE ($2 = '' OR namespace = $2)
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(vector), namespace, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket vectors: %w", err)
	}
	defer rows.Close()

	var matches []domain.IndexMatch
	for rows.Next() {
		var (
			id        string
			metadata  map[string]string
			embedding pgvector.Vector
			score     float32
		)
		if err := rows.Scan(&id, &metadata, &embedding, &score); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, domain.IndexMatch{
			ID:       id,
			Score:    score,
			Vector:   embedding.Slice(),
			Metadata: metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return matches, nil
}

func (r *PgvectorIndex) Upsert(ctx context.Context, namespace string, items []domain.IndexItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now()
	for _, item := range items {
		batch.Queue(`
			INSERT INTO ticket_vectors (ticket_id, namespace, metadata, embedding, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (namespace, ticket_id)
			DO UPDATE SET metadata = EXCLUDED.metadata,
			              embedding = EXCLUDED.embedding,
			              updated_at = EXCLUDED.updated_at
		`, item.ID, namespace, item.Metadata, pgvector.NewVector(item.Vector), now)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert ticket vector: %w", err)
		}
	}
	return nil
}

var _ domain.VectorIndex = (*PgvectorIndex)(nil)
