package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ticket-dedup/internal/di"
	"ticket-dedup/internal/domain"
	"ticket-dedup/internal/infra"
	"ticket-dedup/internal/infra/config"
	"ticket-dedup/internal/infra/logger"
	"ticket-dedup/internal/usecase"
)

var (
	csvPath    string
	namespace  string
	batchSize  int
	ratePerSec float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed scraped Jira tickets and upsert them into the vector index",
		RunE:  runIngest,
	}
	rootCmd.Flags().StringVar(&csvPath, "csv", "jira_tickets.csv", "path to the scraped ticket CSV")
	rootCmd.Flags().StringVar(&namespace, "namespace", "", "index namespace to write into (defaults to DEDUP_INDEX_NAMESPACE)")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 0, "embedding batch size (defaults to EMBEDDING_BATCH_SIZE)")
	rootCmd.Flags().Float64Var(&ratePerSec, "rate", 0, "embedding calls per second (defaults to INGEST_RATE_PER_SEC)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.New()
	slog.SetDefault(log)

	if namespace == "" {
		namespace = cfg.Dedup.Namespace
	}
	if batchSize > 0 {
		cfg.Embedder.BatchSize = batchSize
	}
	if ratePerSec > 0 {
		cfg.Ingest.RatePerSec = ratePerSec
	}

	records, err := loadTicketRecords(csvPath)
	if err != nil {
		return fmt.Errorf("failed to load tickets: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no tickets found in %s", csvPath)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	pool, err := infra.NewPostgresDB(ctx, dsn, infra.PoolConfig{MaxConns: cfg.DB.MaxConns})
	if err != nil {
		return fmt.Errorf("failed to connect to index db: %w", err)
	}
	defer pool.Close()

	components := di.NewApplicationComponents(cfg, pool, log)

	output, err := components.IngestUsecase.Execute(ctx, usecase.IngestTicketsInput{
		Records:   records,
		Namespace: namespace,
	})
	if err != nil {
		return err
	}

	log.Info("ingest_run_finished",
		slog.Int("indexed", output.Indexed),
		slog.Int("skipped", output.Skipped),
		slog.String("csv", csvPath))
	return nil
}

// loadTicketRecords reads the scraper's CSV export. The header row names the
// metadata keys; every column is carried into the index payload.
func loadTicketRecords(path string) ([]domain.TicketRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(rows) < 2 {
		return []domain.TicketRecord{}, nil
	}

	header := rows[0]
	records := make([]domain.TicketRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(domain.TicketRecord, len(header))
		for i, key := range header {
			if i < len(row) {
				rec[key] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
