package usecase

import (
	"log/slog"
	"time"

	"github.com/litscan/litscan/internal/adapter/observability"
	"github.com/litscan/litscan/internal/domain"
)

// DispatchService is the producer's scheduler: every tick it pairs the oldest
// pending jobs with idle consumers. A consumer that accepted a job flips its
// own row to busy, so it drops out of the next tick's candidate list on its
// own; a failed dispatch leaves the job pending for a later tick.
type DispatchService struct {
	Jobs       domain.JobRepository
	Consumers  domain.ConsumerRepository
	Dispatcher domain.Dispatcher
}

func NewDispatchService(j domain.JobRepository, c domain.ConsumerRepository, d domain.Dispatcher) DispatchService {
	return DispatchService{Jobs: j, Consumers: c, Dispatcher: d}
}

// Tick dispatches up to min(pending, idle) jobs and returns how many
// consumers accepted.
func (s DispatchService) Tick(ctx domain.Context) int {
	jobs, err := s.Jobs.FindJobsToRun(ctx)
	if err != nil {
		slog.Error("failed to list pending jobs", slog.Any("error", err))
		return 0
	}
	if len(jobs) == 0 {
		return 0
	}

	consumers, err := s.Consumers.FindAvailable(ctx)
	if err != nil {
		slog.Error("failed to list available consumers", slog.Any("error", err))
		return 0
	}

	dispatched := 0
	for i, job := range jobs {
		if i >= len(consumers) {
			break
		}
		consumer := consumers[i]
		if err := s.Dispatcher.Dispatch(ctx, consumer, job.DisplayID); err != nil {
			observability.DispatchFailuresTotal.Inc()
			slog.Warn("dispatch failed",
				slog.String("job_id", job.ID),
				slog.String("consumer", consumer.IP),
				slog.Any("error", err))
			continue
		}
		observability.JobsDispatchedTotal.Inc()
		slog.Info("job dispatched", slog.String("job_id", job.ID), slog.String("consumer", consumer.IP))
		dispatched++
	}
	return dispatched
}

// RunScheduler ticks until the context is cancelled.
func (s DispatchService) RunScheduler(ctx domain.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("scheduler started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
