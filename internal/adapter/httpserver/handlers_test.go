package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litscan/litscan/internal/adapter/httpserver"
	"github.com/litscan/litscan/internal/domain"
	"github.com/litscan/litscan/internal/usecase"
)

// Minimal port fakes backing the services under test.

type jobsStub struct {
	search func(v string) (domain.Job, error)
	saved  []domain.Job
}

func (s *jobsStub) Save(_ domain.Context, j domain.Job) (string, error) {
	s.saved = append(s.saved, j)
	return strings.ToLower(j.DisplayID), nil
}

func (s *jobsStub) SearchPerformed(_ domain.Context, v string) (domain.Job, error) {
	if s.search != nil {
		return s.search(v)
	}
	return domain.Job{}, domain.ErrNotFound
}

func (s *jobsStub) SetStatus(domain.Context, string, domain.JobStatus) error { return nil }
func (s *jobsStub) SaveHitCount(domain.Context, string, int) error           { return nil }
func (s *jobsStub) FindJobsToRun(domain.Context) ([]domain.Job, error)       { return nil, nil }
func (s *jobsStub) SearchDate(domain.Context, string) (*time.Time, error)    { return nil, nil }
func (s *jobsStub) HitCount(domain.Context, string) (int, error)             { return 0, nil }
func (s *jobsStub) QueryAndLimit(domain.Context, string) (*string, *int, error) {
	return nil, nil, nil
}
func (s *jobsStub) ResetJobData(domain.Context, string) error { return nil }

type consumersStub struct{}

func (consumersStub) Register(domain.Context, string, string) error { return nil }
func (consumersStub) Set(domain.Context, string, domain.ConsumerStatus, string) error {
	return nil
}
func (consumersStub) FindAvailable(domain.Context) ([]domain.Consumer, error) { return nil, nil }
func (consumersStub) FindByJob(domain.Context, string) (domain.Consumer, error) {
	return domain.Consumer{}, domain.ErrNotFound
}

type metadataStub struct{ saved []domain.Metadata }

func (s *metadataStub) Save(_ domain.Context, batch []domain.Metadata) error {
	s.saved = append(s.saved, batch...)
	return nil
}
func (s *metadataStub) Search(domain.Context, string, string, *string) (int64, error) {
	return 0, domain.ErrNotFound
}
func (s *metadataStub) HitCounts(domain.Context) ([]domain.IdentifierHitCount, error) {
	return []domain.IdentifierHitCount{{URS: "URS1_9606", HitCount: 4}}, nil
}
func (s *metadataStub) MarkManuallyAnnotated(domain.Context, string, string, string) error {
	return nil
}
func (s *metadataStub) SaveManuallyAnnotated(domain.Context, string, string) error { return nil }

type resultsStub struct {
	results func(jobID string) ([]domain.JobResult, error)
}

func (s *resultsStub) Save(domain.Context, domain.Result) (int64, error) { return 1, nil }
func (s *resultsStub) PMCIDsInResult(domain.Context, string) ([]string, error) {
	return nil, nil
}
func (s *resultsStub) SaveAbstractSentences(domain.Context, []domain.AbstractSentence) error {
	return nil
}
func (s *resultsStub) SaveBodySentences(domain.Context, []domain.BodySentence) error { return nil }
func (s *resultsStub) JobResults(_ domain.Context, jobID string) ([]domain.JobResult, error) {
	if s.results != nil {
		return s.results(jobID)
	}
	return nil, nil
}

func newTestServer(jobs *jobsStub, metadata *metadataStub, results *resultsStub) *httpserver.Server {
	submit := usecase.NewSubmitService(jobs, consumersStub{}, metadata)
	resultsSvc := usecase.NewResultsService(results, metadata)
	return httpserver.NewServer(submit, resultsSvc)
}

func TestSubmitJobHandler(t *testing.T) {
	jobs := &jobsStub{}
	srv := newTestServer(jobs, &metadataStub{}, &resultsStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/submit-job", strings.NewReader(`{"id": "UCA1:4"}`))
	rec := httptest.NewRecorder()
	srv.SubmitJobHandler()(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "uca1:4", body["job_id"])
	require.Len(t, jobs.saved, 1)
	assert.Equal(t, "UCA1:4", jobs.saved[0].DisplayID)
}

func TestSubmitJobHandler_BadRequests(t *testing.T) {
	srv := newTestServer(&jobsStub{}, &metadataStub{}, &resultsStub{})

	cases := map[string]string{
		"missing id": `{"query": "x"}`,
		"bad json":   `{"id":`,
		"bad rescan": `{"id": "uca1", "rescan": "yes"}`,
		"empty":      ``,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/submit-job", strings.NewReader(payload))
			rec := httptest.NewRecorder()
			srv.SubmitJobHandler()(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["Error"])
		})
	}
}

func TestSubmitJobHandler_DuplicateReturnsSameJob(t *testing.T) {
	jobs := &jobsStub{search: func(v string) (domain.Job, error) {
		return domain.Job{ID: "foo", DisplayID: "FOO", Status: domain.JobSuccess}, nil
	}}
	srv := newTestServer(jobs, &metadataStub{}, &resultsStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/submit-job", strings.NewReader(`{"id": "FOO"}`))
	rec := httptest.NewRecorder()
	srv.SubmitJobHandler()(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "foo", body["job_id"])
	assert.Empty(t, jobs.saved)
}

func TestMultipleJobsHandler(t *testing.T) {
	jobs := &jobsStub{}
	metadata := &metadataStub{}
	srv := newTestServer(jobs, metadata, &resultsStub{})

	payload := `{"job_id": ["5S rRNA", "5S ribosomal RNA"], "database": "rfam", "primary_id": "RF00001"}`
	req := httptest.NewRequest(http.MethodPost, "/api/multiple-jobs", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.MultipleJobsHandler()(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		JobIDs    []string `json:"job_id"`
		Name      string   `json:"name"`
		PrimaryID string   `json:"primary_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"5s rrna", "5s ribosomal rna"}, body.JobIDs)
	assert.Equal(t, "rfam", body.Name)
	assert.Equal(t, "rf00001", body.PrimaryID)
	assert.Len(t, metadata.saved, 3)
}

func TestMultipleJobsHandler_Validation(t *testing.T) {
	srv := newTestServer(&jobsStub{}, &metadataStub{}, &resultsStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/multiple-jobs", strings.NewReader(`{"database": "rfam"}`))
	rec := httptest.NewRecorder()
	srv.MultipleJobsHandler()(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/multiple-jobs", strings.NewReader(`{"job_id": ["x"]}`))
	rec = httptest.NewRecorder()
	srv.MultipleJobsHandler()(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobResultsHandler(t *testing.T) {
	results := &resultsStub{results: func(jobID string) ([]domain.JobResult, error) {
		assert.Equal(t, "uca1", jobID)
		return []domain.JobResult{{JobID: "uca1", PMCID: "PMC1", Title: "A study"}}, nil
	}}
	srv := newTestServer(&jobsStub{}, &metadataStub{}, results)

	r := chi.NewRouter()
	r.Get("/api/results/{job_id}", srv.JobResultsHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/results/uca1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []domain.JobResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "PMC1", body[0].PMCID)
}

func TestHitCountHandler(t *testing.T) {
	srv := newTestServer(&jobsStub{}, &metadataStub{}, &resultsStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/hit_count", nil)
	rec := httptest.NewRecorder()
	srv.HitCountHandler()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []domain.IdentifierHitCount
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "URS1_9606", body[0].URS)
}
