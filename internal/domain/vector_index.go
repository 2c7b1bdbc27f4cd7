package domain

import "context"

// IndexMatch is a single nearest-neighbour hit from a vector index.
type IndexMatch struct {
	// ID is the stored item's identifier (the ticket ID for this system).
	ID string
	// Score is the similarity score, higher is more similar.
	Score float32
	// Vector is the stored embedding, when the backend returns it. Used to
	// prime the fallback index; may be nil.
	Vector []float32
	// Metadata is the string-keyed payload written at ingestion time.
	Metadata map[string]string
}

// IndexItem is a vector plus metadata headed into an index.
type IndexItem struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// VectorIndex is the port to a vector database. Implementations must be safe
// for concurrent use; the same client is shared by all in-flight requests.
type VectorIndex interface {
	// Query returns the topK nearest stored vectors with their metadata,
	// ordered by descending similarity. namespace may be empty.
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]IndexMatch, error)

	// Upsert writes items into the index, replacing existing entries with
	// the same ID.
	Upsert(ctx context.Context, namespace string, items []IndexItem) error
}
