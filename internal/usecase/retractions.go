package usecase

import (
	"log/slog"
	"time"

	"github.com/litscan/litscan/internal/domain"
)

// retractionChunkSize is how many pmcids one status-update request carries.
const retractionChunkSize = 30

// RetractionSweep checks every stored article against the literature
// corpus's status updates and flags the retracted ones.
type RetractionSweep struct {
	Articles   domain.ArticleRepository
	Literature domain.LiteratureClient

	// Pause between chunks, keeping within the corpus rate limit.
	Pause time.Duration
}

func NewRetractionSweep(a domain.ArticleRepository, l domain.LiteratureClient) RetractionSweep {
	return RetractionSweep{Articles: a, Literature: l, Pause: 300 * time.Millisecond}
}

// Run sweeps all stored pmcids in chunks. A failed chunk is logged and
// skipped; the sweep continues.
func (s RetractionSweep) Run(ctx domain.Context) error {
	pmcids, err := s.Articles.AllPMCIDs(ctx)
	if err != nil {
		return err
	}

	flagged := 0
	for start := 0; start < len(pmcids); start += retractionChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + retractionChunkSize
		if end > len(pmcids) {
			end = len(pmcids)
		}
		retracted, err := s.Literature.RetractedArticles(ctx, pmcids[start:end])
		if err != nil {
			slog.Warn("status update chunk failed", slog.Int("offset", start), slog.Any("error", err))
			continue
		}
		for _, pmcid := range retracted {
			if err := s.Articles.SetRetracted(ctx, pmcid); err != nil {
				slog.Warn("failed to flag retraction", slog.String("pmcid", pmcid), slog.Any("error", err))
				continue
			}
			flagged++
		}
		time.Sleep(s.Pause)
	}
	slog.Info("retraction sweep finished", slog.Int("articles", len(pmcids)), slog.Int("retracted", flagged))
	return nil
}
