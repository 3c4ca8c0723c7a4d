package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litscan/litscan/internal/adapter/httpserver"
	"github.com/litscan/litscan/internal/domain"
	"github.com/litscan/litscan/internal/usecase"
)

type claimingConsumers struct {
	mu     sync.Mutex
	setErr error
	sets   []string
}

func (c *claimingConsumers) Register(domain.Context, string, string) error { return nil }
func (c *claimingConsumers) Set(_ domain.Context, ip string, status domain.ConsumerStatus, jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.sets = append(c.sets, ip+"/"+string(status)+"/"+jobID)
	return nil
}
func (c *claimingConsumers) FindAvailable(domain.Context) ([]domain.Consumer, error) {
	return nil, nil
}
func (c *claimingConsumers) FindByJob(domain.Context, string) (domain.Consumer, error) {
	return domain.Consumer{}, domain.ErrNotFound
}

type articlesStub struct{}

func (articlesStub) Save(domain.Context, domain.Article) error { return nil }
func (articlesStub) GetPMCID(domain.Context, string) (string, error) {
	return "", domain.ErrNotFound
}
func (articlesStub) AllPMCIDs(domain.Context) ([]string, error)  { return nil, nil }
func (articlesStub) SetRetracted(domain.Context, string) error   { return nil }
func (articlesStub) FetchBatch(domain.Context, int, int) ([]domain.Article, error) {
	return nil, nil
}
func (articlesStub) SetRelevance(domain.Context, string, bool, float64) error { return nil }

type literatureStub struct{}

func (literatureStub) Search(domain.Context, string, string, *time.Time, string) ([]domain.SearchHit, string, error) {
	return nil, "", nil
}
func (literatureStub) FullText(domain.Context, string) ([]byte, error) { return nil, nil }
func (literatureStub) RetractedArticles(domain.Context, []string) ([]string, error) {
	return nil, nil
}

type claimingJobs struct {
	jobsStub
	mu       sync.Mutex
	statuses []domain.JobStatus
}

func (j *claimingJobs) SetStatus(_ domain.Context, id string, status domain.JobStatus) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.statuses = append(j.statuses, status)
	return nil
}

func newConsumerServer(consumers *claimingConsumers, jobs *claimingJobs) *httpserver.ConsumerServer {
	scan := usecase.NewScanService(jobs, consumers, articlesStub{}, &resultsStub{}, literatureStub{}, 0)
	return httpserver.NewConsumerServer(scan, "192.168.0.8")
}

func TestConsumerSubmitJobHandler(t *testing.T) {
	consumers := &claimingConsumers{}
	jobs := &claimingJobs{}
	srv := newConsumerServer(consumers, jobs)

	req := httptest.NewRequest(http.MethodPost, "/submit-job", strings.NewReader(`{"job_id": "UCA1"}`))
	rec := httptest.NewRecorder()
	srv.SubmitJobHandler()(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	consumers.mu.Lock()
	defer consumers.mu.Unlock()
	require.NotEmpty(t, consumers.sets)
	assert.Equal(t, "192.168.0.8/busy/uca1", consumers.sets[0])
}

func TestConsumerSubmitJobHandler_BadBody(t *testing.T) {
	srv := newConsumerServer(&claimingConsumers{}, &claimingJobs{})

	for _, payload := range []string{``, `{}`, `{"job_id": ""}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/submit-job", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		srv.SubmitJobHandler()(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "job_id not found", body["Error"])
	}
}

func TestConsumerSubmitJobHandler_ClaimFailure(t *testing.T) {
	consumers := &claimingConsumers{setErr: domain.ErrStoreConnection}
	srv := newConsumerServer(consumers, &claimingJobs{})

	req := httptest.NewRequest(http.MethodPost, "/submit-job", strings.NewReader(`{"job_id": "uca1"}`))
	rec := httptest.NewRecorder()
	srv.SubmitJobHandler()(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
