// Command producer starts the submission API and the dispatch scheduler.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/litscan/litscan/internal/adapter/dispatch"
	"github.com/litscan/litscan/internal/adapter/httpserver"
	"github.com/litscan/litscan/internal/adapter/observability"
	"github.com/litscan/litscan/internal/adapter/repo/postgres"
	"github.com/litscan/litscan/internal/app"
	"github.com/litscan/litscan/internal/config"
	"github.com/litscan/litscan/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg, "producer")
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			slog.Error("migration failed", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("schema recreated")
	}

	jobRepo := postgres.NewJobRepo(pool)
	consumerRepo := postgres.NewConsumerRepo(pool)
	resultRepo := postgres.NewResultRepo(pool)
	metadataRepo := postgres.NewMetadataRepo(pool)

	submitSvc := usecase.NewSubmitService(jobRepo, consumerRepo, metadataRepo)
	resultsSvc := usecase.NewResultsService(resultRepo, metadataRepo)
	dispatchSvc := usecase.NewDispatchService(jobRepo, consumerRepo, dispatch.New(cfg.DispatchTimeout))

	go dispatchSvc.RunScheduler(ctx, cfg.SchedulerInterval)

	srv := httpserver.NewServer(submitSvc, resultsSvc)
	handler := app.BuildProducerRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.String("addr", cfg.Addr()))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
