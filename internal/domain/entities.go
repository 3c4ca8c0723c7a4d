// Package domain holds the entities, ports and error taxonomy shared by the
// producer, the consumers and the batch passes.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	// ErrConflict marks a unique-key violation. Consumer registration,
	// metadata inserts and result inserts treat it as "already known".
	ErrConflict = errors.New("conflict")
	// ErrStoreConnection is a transport failure talking to Postgres.
	ErrStoreConnection = errors.New("store connection failed")
	// ErrQuery is a SQL or constraint failure other than an expected duplicate.
	ErrQuery = errors.New("query failed")
)

// JobStatus enumerates the job state machine: pending -> started -> {success, error}.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobStarted JobStatus = "started"
	JobSuccess JobStatus = "success"
	JobError   JobStatus = "error"
)

// Terminal reports whether a status ends the job state machine.
func (s JobStatus) Terminal() bool { return s == JobSuccess || s == JobError }

// ConsumerStatus enumerates worker states.
type ConsumerStatus string

const (
	ConsumerAvailable ConsumerStatus = "available"
	ConsumerBusy      ConsumerStatus = "busy"
	ConsumerError     ConsumerStatus = "error"
)

// Job is one submitted identifier search. ID is the lower-cased identifier;
// DisplayID preserves the original case.
type Job struct {
	ID          string
	DisplayID   string
	Query       *string
	SearchLimit *int
	Status      JobStatus
	Submitted   time.Time
	Finished    *time.Time
	HitCount    *int
}

// Consumer is the self-owned row of one worker process.
type Consumer struct {
	IP     string
	Port   string
	Status ConsumerStatus
	JobID  *string
}

// Article is one open-access article. Immutable after insert except for
// retracted and the relevance fields.
type Article struct {
	PMCID       string
	Title       string
	Abstract    string
	Author      string
	PMID        string
	DOI         string
	Year        int
	Journal     string
	Type        string
	Score       int
	CitedBy     int
	Retracted   bool
	RNARelated  *bool
	Probability *float64
}

// Result is one (article, job) hit. Unique on (PMCID, JobID).
type Result struct {
	ID           int64
	PMCID        string
	JobID        string
	IDInTitle    bool
	IDInAbstract bool
	IDInBody     bool
}

// AbstractSentence is a matching sentence from an article abstract.
type AbstractSentence struct {
	ResultID int64
	Sentence string
}

// BodySentence is a matching context window from an article body. Location is
// the section bucket (intro, results, discussion, conclusion, method, other)
// with a per-article counter appended.
type BodySentence struct {
	ResultID int64
	Location string
	Sentence string
}

// Metadata links a job to a dataset, optionally as a child of a primary
// identifier. Unique on (Name, JobID, PrimaryID).
type Metadata struct {
	ID                int64
	Name              string
	JobID             string
	PrimaryID         *string
	ManuallyAnnotated bool
}

// SearchHit is one entry of a literature search page.
type SearchHit struct {
	PMCID   string
	CitedBy int
}

// JobResult is the joined row served by GET /api/results/{job_id}.
type JobResult struct {
	JobID            string            `json:"job_id"`
	Title            string            `json:"title"`
	Author           string            `json:"author"`
	PMCID            string            `json:"pmcid"`
	PMID             string            `json:"pmid"`
	DOI              string            `json:"doi"`
	Year             int               `json:"year"`
	Journal          string            `json:"journal"`
	Score            int               `json:"score"`
	CitedBy          int               `json:"cited_by"`
	Retracted        bool              `json:"retracted"`
	IDInTitle        bool              `json:"id_in_title"`
	IDInAbstract     bool              `json:"id_in_abstract"`
	IDInBody         bool              `json:"id_in_body"`
	AbstractSentence []string          `json:"abstract_sentence"`
	BodySentence     []LocatedSentence `json:"body_sentence"`
}

// LocatedSentence is one body sentence with its section bucket.
type LocatedSentence struct {
	Location string `json:"location"`
	Sentence string `json:"sentence"`
}

// IdentifierHitCount aggregates hit counts per primary identifier.
type IdentifierHitCount struct {
	URS      string `json:"urs"`
	HitCount int    `json:"hit_count"`
}

// Repositories (ports)

type JobRepository interface {
	Save(ctx Context, j Job) (string, error)
	// SearchPerformed looks a job up by identifier, case-insensitively.
	// Returns ErrNotFound when the identifier was never submitted.
	SearchPerformed(ctx Context, value string) (Job, error)
	SetStatus(ctx Context, id string, status JobStatus) error
	SaveHitCount(ctx Context, id string, n int) error
	// FindJobsToRun returns the 8 oldest pending jobs.
	FindJobsToRun(ctx Context) ([]Job, error)
	// SearchDate returns the finished timestamp of the last run, if any.
	SearchDate(ctx Context, id string) (*time.Time, error)
	HitCount(ctx Context, id string) (int, error)
	QueryAndLimit(ctx Context, id string) (*string, *int, error)
	// ResetJobData wipes derived rows and re-queues the job as pending.
	ResetJobData(ctx Context, id string) error
}

type ConsumerRepository interface {
	// Register inserts the worker's row; a duplicate key is a no-op.
	Register(ctx Context, ip, port string) error
	Set(ctx Context, ip string, status ConsumerStatus, jobID string) error
	FindAvailable(ctx Context) ([]Consumer, error)
	// FindByJob returns the consumer currently holding a job, if any.
	FindByJob(ctx Context, jobID string) (Consumer, error)
}

type ArticleRepository interface {
	Save(ctx Context, a Article) error
	// GetPMCID returns the stored pmcid or ErrNotFound.
	GetPMCID(ctx Context, pmcid string) (string, error)
	AllPMCIDs(ctx Context) ([]string, error)
	SetRetracted(ctx Context, pmcid string) error
	// FetchBatch pages non-retracted articles ordered by pmcid.
	FetchBatch(ctx Context, limit, offset int) ([]Article, error)
	SetRelevance(ctx Context, pmcid string, related bool, probability float64) error
}

type ResultRepository interface {
	// Save inserts a result and returns its id. A (pmcid, job_id) duplicate
	// surfaces as ErrConflict.
	Save(ctx Context, r Result) (int64, error)
	PMCIDsInResult(ctx Context, jobID string) ([]string, error)
	SaveAbstractSentences(ctx Context, batch []AbstractSentence) error
	SaveBodySentences(ctx Context, batch []BodySentence) error
	JobResults(ctx Context, jobID string) ([]JobResult, error)
}

type MetadataRepository interface {
	Save(ctx Context, batch []Metadata) error
	// Search returns the metadata row id or ErrNotFound.
	Search(ctx Context, jobID, name string, primaryID *string) (int64, error)
	HitCounts(ctx Context) ([]IdentifierHitCount, error)
	MarkManuallyAnnotated(ctx Context, jobID, primaryID, name string) error
	SaveManuallyAnnotated(ctx Context, pmcid, urs string) error
}

// LiteratureClient (port) covers the external literature corpus.
type LiteratureClient interface {
	// Search returns one page of hits and the next cursor ("" when exhausted).
	Search(ctx Context, identifier, queryFilter string, since *time.Time, cursor string) ([]SearchHit, string, error)
	// FullText fetches an article's full-text XML. A nil slice with nil error
	// means the article is unavailable and should be skipped.
	FullText(ctx Context, pmcid string) ([]byte, error)
	// RetractedArticles reports which of the given pmcids have been retracted.
	RetractedArticles(ctx Context, pmcids []string) ([]string, error)
}

// Dispatcher (port) hands a pending job to an idle consumer.
type Dispatcher interface {
	Dispatch(ctx Context, c Consumer, jobID string) error
}

// RelevanceClassifier (port) scores an abstract with the pre-trained model.
type RelevanceClassifier interface {
	Classify(ctx Context, text string) (related bool, probability float64, err error)
}

// Context is an alias so the domain does not import std context in every
// signature; adapters pass context.Context through.
type Context = context.Context
