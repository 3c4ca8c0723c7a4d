// Command retractions flags stored articles that have since been retracted.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/litscan/litscan/internal/adapter/epmc"
	"github.com/litscan/litscan/internal/adapter/observability"
	"github.com/litscan/litscan/internal/adapter/repo/postgres"
	"github.com/litscan/litscan/internal/config"
	"github.com/litscan/litscan/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg, "retractions")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sweep := usecase.NewRetractionSweep(postgres.NewArticleRepo(pool), epmc.New(cfg.EuropePMC, cfg.SearchPageSize))
	if err := sweep.Run(ctx); err != nil {
		slog.Error("retraction sweep failed", slog.Any("error", err))
		os.Exit(1)
	}
}
