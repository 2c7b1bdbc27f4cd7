package domain

import "context"

// VectorEncoder converts text into fixed-length embedding vectors. Encode is
// batched; retrieval passes a single-element slice, ingestion passes whole
// batches. Dimensionality is fixed per deployment by the embedding model.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}
