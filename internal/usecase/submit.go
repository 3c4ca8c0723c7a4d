// Package usecase contains the application services tying the ports together:
// job submission, the dispatch scheduler, the consumer scan body and the
// batch passes.
package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/litscan/litscan/internal/domain"
)

// DefaultQueryFilter narrows the literature search when a submission carries
// no query of its own.
const DefaultQueryFilter = `("rna" OR "mrna" OR "ncrna" OR "lncrna" OR "rrna" OR "sncrna")`

// SubmitService registers identifier searches. Submissions are idempotent:
// an identifier already known returns its existing job.
type SubmitService struct {
	Jobs      domain.JobRepository
	Consumers domain.ConsumerRepository
	Metadata  domain.MetadataRepository
}

func NewSubmitService(j domain.JobRepository, c domain.ConsumerRepository, m domain.MetadataRepository) SubmitService {
	return SubmitService{Jobs: j, Consumers: c, Metadata: m}
}

// SubmitRequest is one identifier submission.
type SubmitRequest struct {
	ID          string
	URSTaxID    string
	Query       *string
	SearchLimit *int
	Rescan      bool
}

// MultipleRequest registers a batch of identifiers under a dataset name,
// optionally grouped below a primary identifier.
type MultipleRequest struct {
	JobIDs      []string
	Database    string
	PrimaryID   string
	Query       *string
	SearchLimit *int
	Rescan      bool
}

// SubmitJob registers one identifier and returns its job id (the lower-cased
// identifier). With Rescan set, a finished job whose consumer has moved on is
// wiped and re-queued.
func (s SubmitService) SubmitJob(ctx domain.Context, req SubmitRequest) (string, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return "", fmt.Errorf("%w: empty id", domain.ErrInvalidArgument)
	}

	jobID, err := s.register(ctx, id, req.Query, req.SearchLimit, req.Rescan)
	if err != nil {
		return "", err
	}

	if req.URSTaxID != "" {
		urs := req.URSTaxID
		err = s.saveNewMetadata(ctx, []domain.Metadata{{Name: "rnacentral", JobID: jobID, PrimaryID: &urs}})
		if err != nil {
			return "", err
		}
	}
	return jobID, nil
}

// SubmitMultiple registers every identifier in the batch, links each to the
// dataset and optionally to the primary identifier, and returns the job ids
// in submission order.
func (s SubmitService) SubmitMultiple(ctx domain.Context, req MultipleRequest) ([]string, string, error) {
	if len(req.JobIDs) == 0 {
		return nil, "", fmt.Errorf("%w: empty job_id list", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(req.Database) == "" {
		return nil, "", fmt.Errorf("%w: empty database", domain.ErrInvalidArgument)
	}
	database := strings.ToLower(req.Database)

	jobIDs := make([]string, 0, len(req.JobIDs))
	for _, id := range req.JobIDs {
		jobID, err := s.register(ctx, id, req.Query, req.SearchLimit, req.Rescan)
		if err != nil {
			return nil, "", err
		}
		jobIDs = append(jobIDs, jobID)
	}

	var primaryID string
	if req.PrimaryID != "" {
		var err error
		primaryID, err = s.register(ctx, req.PrimaryID, req.Query, req.SearchLimit, req.Rescan)
		if err != nil {
			return nil, "", err
		}
	}

	batch := make([]domain.Metadata, 0, len(jobIDs)+1)
	for _, jobID := range jobIDs {
		m := domain.Metadata{Name: database, JobID: jobID}
		if primaryID != "" {
			p := primaryID
			m.PrimaryID = &p
		}
		batch = append(batch, m)
	}
	if primaryID != "" {
		batch = append(batch, domain.Metadata{Name: database, JobID: primaryID})
	}
	if err := s.saveNewMetadata(ctx, batch); err != nil {
		return nil, "", err
	}
	return jobIDs, primaryID, nil
}

// saveNewMetadata inserts only the links the store does not know yet. The
// unique index still guards against a concurrent duplicate slipping through.
func (s SubmitService) saveNewMetadata(ctx domain.Context, batch []domain.Metadata) error {
	fresh := make([]domain.Metadata, 0, len(batch))
	for _, m := range batch {
		_, err := s.Metadata.Search(ctx, m.JobID, m.Name, m.PrimaryID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			fresh = append(fresh, m)
		case err != nil:
			return err
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	return s.Metadata.Save(ctx, fresh)
}

func (s SubmitService) register(ctx domain.Context, id string, query *string, searchLimit *int, rescan bool) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty id", domain.ErrInvalidArgument)
	}
	jobID := strings.ToLower(id)

	existing, err := s.Jobs.SearchPerformed(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s.Jobs.Save(ctx, domain.Job{DisplayID: id, Query: query, SearchLimit: searchLimit})
	case err != nil:
		return "", err
	}

	if rescan && existing.Status.Terminal() && !s.jobHeld(ctx, jobID) {
		if err := s.Jobs.ResetJobData(ctx, jobID); err != nil {
			return "", err
		}
	}
	return existing.ID, nil
}

// jobHeld reports whether a consumer is still working on the job.
func (s SubmitService) jobHeld(ctx domain.Context, jobID string) bool {
	_, err := s.Consumers.FindByJob(ctx, jobID)
	return err == nil
}
