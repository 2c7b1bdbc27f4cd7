package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"ticket-dedup/internal/adapter/dedup_http"
	"ticket-dedup/internal/di"
	"ticket-dedup/internal/infra"
	"ticket-dedup/internal/infra/config"
	"ticket-dedup/internal/infra/logger"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New()
	slog.SetDefault(log)

	// 3. Initialize DB. A missing or unreachable database is a degradation,
	// not a startup failure: retrieval falls back to the in-memory index.
	var dbPool *pgxpool.Pool
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	pool, err := infra.NewPostgresDB(context.Background(), dsn, infra.PoolConfig{MaxConns: cfg.DB.MaxConns})
	if err != nil {
		log.Warn("primary_index_db_unavailable",
			slog.String("error", err.Error()),
			slog.String("mode", "fallback_only"))
	} else {
		dbPool = pool
		defer dbPool.Close()
	}

	// 4. Wire components
	components := di.NewApplicationComponents(cfg, dbPool, log)

	// 5. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("http_request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()))
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// 6. Register Handlers
	handler := dedup_http.NewHandler(components.DetectUsecase)
	e.POST("/v1/duplicates", handler.DetectDuplicates)
	e.POST("/v1/duplicates/explain", handler.ExplainTicket)

	// 7. Health Checks
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		if dbPool == nil {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"status":           "degraded",
				"primary_index":    "unavailable",
				"fallback_entries": components.Fallback.Len(),
			})
		}
		if err := dbPool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"status":           "degraded",
				"primary_index":    "unreachable",
				"fallback_entries": components.Fallback.Len(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})

	// 8. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
