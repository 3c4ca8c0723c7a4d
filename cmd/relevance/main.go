// Command relevance scores every stored abstract with the pre-trained
// classifier and records the verdict on the article rows.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/litscan/litscan/internal/adapter/observability"
	"github.com/litscan/litscan/internal/adapter/relevance"
	"github.com/litscan/litscan/internal/adapter/repo/postgres"
	"github.com/litscan/litscan/internal/config"
	"github.com/litscan/litscan/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg, "relevance")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	pass := usecase.NewRelevancePass(postgres.NewArticleRepo(pool), relevance.New(cfg.RelevanceURL))
	if err := pass.Run(ctx); err != nil {
		slog.Error("relevance pass failed", slog.Any("error", err))
		os.Exit(1)
	}
}
