package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ticket-dedup/internal/domain"
)

const ingestConcurrency = 4

// IngestTicketsInput defines the input for batch ticket ingestion.
type IngestTicketsInput struct {
	Records   []domain.TicketRecord
	Namespace string
}

// IngestTicketsOutput reports what the ingestion run did.
type IngestTicketsOutput struct {
	Indexed int
	Skipped int
}

// IngestTicketsUsecase embeds scraped ticket records and writes them to the
// vector index. This is the batch job that fulfills the index-population
// contract the retrieval stage reads from.
type IngestTicketsUsecase interface {
	Execute(ctx context.Context, input IngestTicketsInput) (*IngestTicketsOutput, error)
}

type ingestTicketsUsecase struct {
	encoder         domain.VectorEncoder
	index           domain.VectorIndex
	embedBatchSize  int
	upsertBatchSize int
	limiter         *rate.Limiter
	logger          *slog.Logger
}

// NewIngestTicketsUsecase constructs the ingestion job. ratePerSec throttles
// embedding calls to stay under the provider's quota.
func NewIngestTicketsUsecase(
	encoder domain.VectorEncoder,
	index domain.VectorIndex,
	embedBatchSize int,
	upsertBatchSize int,
	ratePerSec float64,
	logger *slog.Logger,
) IngestTicketsUsecase {
	if embedBatchSize <= 0 {
		embedBatchSize = 96
	}
	if upsertBatchSize <= 0 {
		upsertBatchSize = 100
	}
	if ratePerSec <= 0 {
		ratePerSec = 2.0
	}
	return &ingestTicketsUsecase{
		encoder:         encoder,
		index:           index,
		embedBatchSize:  embedBatchSize,
		upsertBatchSize: upsertBatchSize,
		limiter:         rate.NewLimiter(rate.Limit(ratePerSec), 1),
		logger:          logger,
	}
}

func (u *ingestTicketsUsecase) Execute(ctx context.Context, input IngestTicketsInput) (*IngestTicketsOutput, error) {
	start := time.Now()

	// Records without a ticket_id cannot be retrieved later; drop them now.
	valid := make([]domain.TicketRecord, 0, len(input.Records))
	skipped := 0
	for _, rec := range input.Records {
		if rec.TicketID() == "" || rec.EmbeddingText() == "" {
			skipped++
			continue
		}
		valid = append(valid, rec)
	}

	u.logger.Info("ingestion_started",
		slog.Int("record_count", len(input.Records)),
		slog.Int("skipped", skipped),
		slog.String("namespace", input.Namespace),
		slog.String("embedder", u.encoder.Version()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestConcurrency)

	for batchStart := 0; batchStart < len(valid); batchStart += u.embedBatchSize {
		batchEnd := batchStart + u.embedBatchSize
		if batchEnd > len(valid) {
			batchEnd = len(valid)
		}
		batch := valid[batchStart:batchEnd]

		g.Go(func() error {
			return u.processBatch(gctx, input.Namespace, batch)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}

	u.logger.Info("ingestion_completed",
		slog.Int("indexed", len(valid)),
		slog.Int("skipped", skipped),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &IngestTicketsOutput{Indexed: len(valid), Skipped: skipped}, nil
}

func (u *ingestTicketsUsecase) processBatch(ctx context.Context, namespace string, batch []domain.TicketRecord) error {
	if err := u.limiter.Wait(ctx); err != nil {
		return err
	}

	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.EmbeddingText()
	}

	embeddings, err := u.encoder.Encode(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed batch: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("expected %d embeddings, got %d", len(batch), len(embeddings))
	}

	items := make([]domain.IndexItem, len(batch))
	for i, rec := range batch {
		metadata := make(map[string]string, len(rec)+1)
		for k, v := range rec {
			metadata[k] = v
		}
		metadata[domain.MetaPageContent] = texts[i]

		items[i] = domain.IndexItem{
			ID:       rec.TicketID(),
			Vector:   embeddings[i],
			Metadata: metadata,
		}
	}

	for upsertStart := 0; upsertStart < len(items); upsertStart += u.upsertBatchSize {
		upsertEnd := upsertStart + u.upsertBatchSize
		if upsertEnd > len(items) {
			upsertEnd = len(items)
		}
		if err := u.index.Upsert(ctx, namespace, items[upsertStart:upsertEnd]); err != nil {
			return fmt.Errorf("failed to upsert batch: %w", err)
		}
	}
	return nil
}
