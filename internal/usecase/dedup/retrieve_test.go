package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ticket-dedup/internal/domain"
)

type mockEncoder struct {
	mock.Mock
}

func (m *mockEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *mockEncoder) Version() string {
	return "mock-encoder"
}

type mockVectorIndex struct {
	mock.Mock
}

func (m *mockVectorIndex) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]domain.IndexMatch, error) {
	args := m.Called(ctx, vector, topK, namespace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IndexMatch), args.Error(1)
}

func (m *mockVectorIndex) Upsert(ctx context.Context, namespace string, items []domain.IndexItem) error {
	args := m.Called(ctx, namespace, items)
	return args.Error(0)
}

func matchWithVector(id string, score float32) domain.IndexMatch {
	return domain.IndexMatch{
		ID:     id,
		Score:  score,
		Vector: []float32{0.1, 0.2},
		Metadata: map[string]string{
			domain.MetaTicketID:    id,
			domain.MetaPageContent: "content for " + id,
		},
	}
}

func TestRetrieve_PrimarySuccessPrimesFallback(t *testing.T) {
	encoder := new(mockEncoder)
	encoder.On("Encode", mock.Anything, []string{"query"}).Return([][]float32{{1, 0}}, nil)

	primary := new(mockVectorIndex)
	primary.On("Query", mock.Anything, []float32{1, 0}, 5, "jira").
		Return([]domain.IndexMatch{matchWithVector("T-1", 0.9), matchWithVector("T-2", 0.8)}, nil)

	fallback := new(mockVectorIndex)
	fallback.On("Upsert", mock.Anything, "jira", mock.MatchedBy(func(items []domain.IndexItem) bool {
		return len(items) == 2 && items[0].ID == "T-1"
	})).Return(nil)

	r := NewRetriever(encoder, primary, fallback, "jira", discardLogger())

	candidates := r.Retrieve(context.Background(), "det-1", "query", 5)

	assert.Len(t, candidates, 2)
	assert.Equal(t, "T-1", candidates[0].TicketID)
	assert.Equal(t, "T-2", candidates[1].TicketID)
	assert.InDelta(t, 0.9, candidates[0].Score, 0.001)
	fallback.AssertExpectations(t)
	fallback.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrieve_PrimaryErrorDegradesToFallback(t *testing.T) {
	encoder := new(mockEncoder)
	encoder.On("Encode", mock.Anything, mock.Anything).Return([][]float32{{1, 0}}, nil)

	primary := new(mockVectorIndex)
	primary.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	fallback := new(mockVectorIndex)
	fallback.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.IndexMatch{matchWithVector("T-9", 0.7)}, nil)

	r := NewRetriever(encoder, primary, fallback, "", discardLogger())

	candidates := r.Retrieve(context.Background(), "det-1", "query", 5)

	assert.Len(t, candidates, 1)
	assert.Equal(t, "T-9", candidates[0].TicketID)
}

func TestRetrieve_NilPrimaryUsesFallback(t *testing.T) {
	encoder := new(mockEncoder)
	encoder.On("Encode", mock.Anything, mock.Anything).Return([][]float32{{1, 0}}, nil)

	fallback := new(mockVectorIndex)
	fallback.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.IndexMatch{matchWithVector("T-3", 0.6)}, nil)

	r := NewRetriever(encoder, nil, fallback, "", discardLogger())

	candidates := r.Retrieve(context.Background(), "det-1", "query", 5)

	assert.Len(t, candidates, 1)
	assert.Equal(t, "T-3", candidates[0].TicketID)
}

func TestRetrieve_EmbeddingFailureReturnsEmpty(t *testing.T) {
	encoder := new(mockEncoder)
	encoder.On("Encode", mock.Anything, mock.Anything).Return(nil, errors.New("embedder down"))

	primary := new(mockVectorIndex)
	fallback := new(mockVectorIndex)

	r := NewRetriever(encoder, primary, fallback, "", discardLogger())

	candidates := r.Retrieve(context.Background(), "det-1", "query", 5)

	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
	primary.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrieve_BothIndexesFailingReturnsEmpty(t *testing.T) {
	encoder := new(mockEncoder)
	encoder.On("Encode", mock.Anything, mock.Anything).Return([][]float32{{1, 0}}, nil)

	primary := new(mockVectorIndex)
	primary.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("primary down"))

	fallback := new(mockVectorIndex)
	fallback.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("fallback empty"))

	r := NewRetriever(encoder, primary, fallback, "", discardLogger())

	candidates := r.Retrieve(context.Background(), "det-1", "query", 5)

	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}

func TestRetrieve_EmptyQueryOrZeroK(t *testing.T) {
	encoder := new(mockEncoder)
	r := NewRetriever(encoder, nil, new(mockVectorIndex), "", discardLogger())

	assert.Empty(t, r.Retrieve(context.Background(), "det-1", "", 5))
	assert.Empty(t, r.Retrieve(context.Background(), "det-1", "query", 0))
	encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
}

func TestRetrieve_VectorlessMatchesSkipFallbackPriming(t *testing.T) {
	encoder := new(mockEncoder)
	encoder.On("Encode", mock.Anything, mock.Anything).Return([][]float32{{1, 0}}, nil)

	primary := new(mockVectorIndex)
	primary.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.IndexMatch{{
			ID:       "T-1",
			Score:    0.9,
			Metadata: map[string]string{domain.MetaTicketID: "T-1"},
		}}, nil)

	fallback := new(mockVectorIndex)

	r := NewRetriever(encoder, primary, fallback, "", discardLogger())

	candidates := r.Retrieve(context.Background(), "det-1", "query", 5)

	assert.Len(t, candidates, 1)
	fallback.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}
