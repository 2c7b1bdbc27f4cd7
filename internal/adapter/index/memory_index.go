package index

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ticket-dedup/internal/domain"
)

// MemoryIndex is the in-process fallback index used when the primary vector
// index is unreachable or unconfigured. Entries live in a bounded TTL cache
// rather than an unbounded map, so the fallback can be primed continuously
// from primary retrievals without growing forever. It exists to keep
// retrieval available under partial outage, not for correctness-critical
// recall.
type MemoryIndex struct {
	entries *expirable.LRU[string, memoryEntry]
}

type memoryEntry struct {
	namespace string
	item      domain.IndexItem
}

// NewMemoryIndex creates a fallback index holding at most size entries,
// each expiring ttl after its last write.
func NewMemoryIndex(size int, ttl time.Duration) *MemoryIndex {
	if size <= 0 {
		size = 512
	}
	return &MemoryIndex{
		entries: expirable.NewLRU[string, memoryEntry](size, nil, ttl),
	}
}

func (m *MemoryIndex) Upsert(_ context.Context, namespace string, items []domain.IndexItem) error {
	for _, item := range items {
		if item.ID == "" || len(item.Vector) == 0 {
			continue
		}
		m.entries.Add(namespace+"/"+item.ID, memoryEntry{namespace: namespace, item: item})
	}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, vector []float32, topK int, namespace string) ([]domain.IndexMatch, error) {
	if topK <= 0 {
		return []domain.IndexMatch{}, nil
	}

	var matches []domain.IndexMatch
	for _, entry := range m.entries.Values() {
		if namespace != "" && entry.namespace != namespace {
			continue
		}
		score, ok := cosineSimilarity(vector, entry.item.Vector)
		if !ok {
			continue
		}
		matches = append(matches, domain.IndexMatch{
			ID:       entry.item.ID,
			Score:    score,
			Vector:   entry.item.Vector,
			Metadata: entry.item.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports the number of live entries, for readiness/debug endpoints.
func (m *MemoryIndex) Len() int {
	return m.entries.Len()
}

func cosineSimilarity(a, b []float32) (float32, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), true
}

var _ domain.VectorIndex = (*MemoryIndex)(nil)
