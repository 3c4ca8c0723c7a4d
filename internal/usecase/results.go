package usecase

import (
	"github.com/litscan/litscan/internal/domain"
)

// ResultsService provides read access to finished scans.
type ResultsService struct {
	Results  domain.ResultRepository
	Metadata domain.MetadataRepository
}

func NewResultsService(r domain.ResultRepository, m domain.MetadataRepository) ResultsService {
	return ResultsService{Results: r, Metadata: m}
}

// JobResults returns the joined result rows for a job, newest runs included.
func (s ResultsService) JobResults(ctx domain.Context, jobID string) ([]domain.JobResult, error) {
	return s.Results.JobResults(ctx, jobID)
}

// HitCounts aggregates publication counts per primary identifier.
func (s ResultsService) HitCounts(ctx domain.Context) ([]domain.IdentifierHitCount, error) {
	return s.Metadata.HitCounts(ctx)
}
