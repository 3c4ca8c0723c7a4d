package usecase_test

import (
	"time"

	"github.com/litscan/litscan/internal/domain"
)

// Hand-rolled port fakes. Each method delegates to an optional function
// field; unset fields return zero values.

type fakeJobs struct {
	save       func(j domain.Job) (string, error)
	search     func(v string) (domain.Job, error)
	setStatus  func(id string, s domain.JobStatus) error
	saveHits   func(id string, n int) error
	toRun      func() ([]domain.Job, error)
	searchDate func(id string) (*time.Time, error)
	hitCount   func(id string) (int, error)
	queryLimit func(id string) (*string, *int, error)
	reset      func(id string) error

	statuses  []domain.JobStatus
	hitCounts []int
	resets    []string
}

func (f *fakeJobs) Save(_ domain.Context, j domain.Job) (string, error) {
	if f.save != nil {
		return f.save(j)
	}
	return "", nil
}

func (f *fakeJobs) SearchPerformed(_ domain.Context, v string) (domain.Job, error) {
	if f.search != nil {
		return f.search(v)
	}
	return domain.Job{}, domain.ErrNotFound
}

func (f *fakeJobs) SetStatus(_ domain.Context, id string, s domain.JobStatus) error {
	f.statuses = append(f.statuses, s)
	if f.setStatus != nil {
		return f.setStatus(id, s)
	}
	return nil
}

func (f *fakeJobs) SaveHitCount(_ domain.Context, id string, n int) error {
	f.hitCounts = append(f.hitCounts, n)
	if f.saveHits != nil {
		return f.saveHits(id, n)
	}
	return nil
}

func (f *fakeJobs) FindJobsToRun(_ domain.Context) ([]domain.Job, error) {
	if f.toRun != nil {
		return f.toRun()
	}
	return nil, nil
}

func (f *fakeJobs) SearchDate(_ domain.Context, id string) (*time.Time, error) {
	if f.searchDate != nil {
		return f.searchDate(id)
	}
	return nil, nil
}

func (f *fakeJobs) HitCount(_ domain.Context, id string) (int, error) {
	if f.hitCount != nil {
		return f.hitCount(id)
	}
	return 0, nil
}

func (f *fakeJobs) QueryAndLimit(_ domain.Context, id string) (*string, *int, error) {
	if f.queryLimit != nil {
		return f.queryLimit(id)
	}
	return nil, nil, nil
}

func (f *fakeJobs) ResetJobData(_ domain.Context, id string) error {
	f.resets = append(f.resets, id)
	if f.reset != nil {
		return f.reset(id)
	}
	return nil
}

type consumerSet struct {
	ip     string
	status domain.ConsumerStatus
	jobID  string
}

type fakeConsumers struct {
	available []domain.Consumer
	byJob     func(jobID string) (domain.Consumer, error)

	sets []consumerSet
}

func (f *fakeConsumers) Register(_ domain.Context, _, _ string) error { return nil }

func (f *fakeConsumers) Set(_ domain.Context, ip string, status domain.ConsumerStatus, jobID string) error {
	f.sets = append(f.sets, consumerSet{ip: ip, status: status, jobID: jobID})
	return nil
}

func (f *fakeConsumers) FindAvailable(_ domain.Context) ([]domain.Consumer, error) {
	return f.available, nil
}

func (f *fakeConsumers) FindByJob(_ domain.Context, jobID string) (domain.Consumer, error) {
	if f.byJob != nil {
		return f.byJob(jobID)
	}
	return domain.Consumer{}, domain.ErrNotFound
}

type fakeArticles struct {
	get          func(pmcid string) (string, error)
	all          func() ([]string, error)
	batch        func(limit, offset int) ([]domain.Article, error)
	setRelevance func(pmcid string, related bool, probability float64) error

	saved     []domain.Article
	retracted []string
}

func (f *fakeArticles) Save(_ domain.Context, a domain.Article) error {
	f.saved = append(f.saved, a)
	return nil
}

func (f *fakeArticles) GetPMCID(_ domain.Context, pmcid string) (string, error) {
	if f.get != nil {
		return f.get(pmcid)
	}
	return "", domain.ErrNotFound
}

func (f *fakeArticles) AllPMCIDs(_ domain.Context) ([]string, error) {
	if f.all != nil {
		return f.all()
	}
	return nil, nil
}

func (f *fakeArticles) SetRetracted(_ domain.Context, pmcid string) error {
	f.retracted = append(f.retracted, pmcid)
	return nil
}

func (f *fakeArticles) FetchBatch(_ domain.Context, limit, offset int) ([]domain.Article, error) {
	if f.batch != nil {
		return f.batch(limit, offset)
	}
	return nil, nil
}

func (f *fakeArticles) SetRelevance(_ domain.Context, pmcid string, related bool, probability float64) error {
	if f.setRelevance != nil {
		return f.setRelevance(pmcid, related, probability)
	}
	return nil
}

type fakeResults struct {
	save         func(r domain.Result) (int64, error)
	inJob        func(jobID string) ([]string, error)
	results      func(jobID string) ([]domain.JobResult, error)
	saveAbstract func(batch []domain.AbstractSentence) error

	savedResults  []domain.Result
	abstractSaved []domain.AbstractSentence
	bodySaved     []domain.BodySentence
}

func (f *fakeResults) Save(_ domain.Context, r domain.Result) (int64, error) {
	if f.save != nil {
		id, err := f.save(r)
		if err == nil {
			f.savedResults = append(f.savedResults, r)
		}
		return id, err
	}
	f.savedResults = append(f.savedResults, r)
	return int64(len(f.savedResults)), nil
}

func (f *fakeResults) PMCIDsInResult(_ domain.Context, jobID string) ([]string, error) {
	if f.inJob != nil {
		return f.inJob(jobID)
	}
	return nil, nil
}

func (f *fakeResults) SaveAbstractSentences(_ domain.Context, batch []domain.AbstractSentence) error {
	if f.saveAbstract != nil {
		if err := f.saveAbstract(batch); err != nil {
			return err
		}
	}
	f.abstractSaved = append(f.abstractSaved, batch...)
	return nil
}

func (f *fakeResults) SaveBodySentences(_ domain.Context, batch []domain.BodySentence) error {
	f.bodySaved = append(f.bodySaved, batch...)
	return nil
}

func (f *fakeResults) JobResults(_ domain.Context, jobID string) ([]domain.JobResult, error) {
	if f.results != nil {
		return f.results(jobID)
	}
	return nil, nil
}

type fakeMetadata struct {
	search func(jobID, name string, primaryID *string) (int64, error)

	saved []domain.Metadata
}

func (f *fakeMetadata) Save(_ domain.Context, batch []domain.Metadata) error {
	f.saved = append(f.saved, batch...)
	return nil
}

func (f *fakeMetadata) Search(_ domain.Context, jobID, name string, primaryID *string) (int64, error) {
	if f.search != nil {
		return f.search(jobID, name, primaryID)
	}
	return 0, domain.ErrNotFound
}

func (f *fakeMetadata) HitCounts(_ domain.Context) ([]domain.IdentifierHitCount, error) {
	return nil, nil
}

func (f *fakeMetadata) MarkManuallyAnnotated(_ domain.Context, _, _, _ string) error { return nil }
func (f *fakeMetadata) SaveManuallyAnnotated(_ domain.Context, _, _ string) error    { return nil }

type searchCall struct {
	identifier  string
	queryFilter string
	since       *time.Time
	cursor      string
}

type fakeLiterature struct {
	search    func(call searchCall) ([]domain.SearchHit, string, error)
	fullText  func(pmcid string) ([]byte, error)
	retracted func(pmcids []string) ([]string, error)

	searchCalls []searchCall
	chunks      [][]string
}

func (f *fakeLiterature) Search(_ domain.Context, identifier, queryFilter string, since *time.Time, cursor string) ([]domain.SearchHit, string, error) {
	call := searchCall{identifier: identifier, queryFilter: queryFilter, since: since, cursor: cursor}
	f.searchCalls = append(f.searchCalls, call)
	if f.search != nil {
		return f.search(call)
	}
	return nil, "", nil
}

func (f *fakeLiterature) FullText(_ domain.Context, pmcid string) ([]byte, error) {
	if f.fullText != nil {
		return f.fullText(pmcid)
	}
	return nil, nil
}

func (f *fakeLiterature) RetractedArticles(_ domain.Context, pmcids []string) ([]string, error) {
	f.chunks = append(f.chunks, pmcids)
	if f.retracted != nil {
		return f.retracted(pmcids)
	}
	return nil, nil
}

type dispatchCall struct {
	consumer domain.Consumer
	jobID    string
}

type fakeDispatcher struct {
	err   func(call dispatchCall) error
	calls []dispatchCall
}

func (f *fakeDispatcher) Dispatch(_ domain.Context, c domain.Consumer, jobID string) error {
	call := dispatchCall{consumer: c, jobID: jobID}
	f.calls = append(f.calls, call)
	if f.err != nil {
		return f.err(call)
	}
	return nil
}

type fakeClassifier struct {
	classify func(text string) (bool, float64, error)
	texts    []string
}

func (f *fakeClassifier) Classify(_ domain.Context, text string) (bool, float64, error) {
	f.texts = append(f.texts, text)
	if f.classify != nil {
		return f.classify(text)
	}
	return false, 0, nil
}
