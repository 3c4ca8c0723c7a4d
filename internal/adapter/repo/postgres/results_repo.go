package postgres

import (
	"go.opentelemetry.io/otel"

	"github.com/litscan/litscan/internal/domain"
)

// ResultRepo persists (article, job) hits and their sentences.
type ResultRepo struct{ Pool PgxPool }

// NewResultRepo constructs a ResultRepo with the given pool.
func NewResultRepo(p PgxPool) *ResultRepo { return &ResultRepo{Pool: p} }

// Save inserts a result and returns its id. The unique constraint on
// (pmcid, job_id) surfaces as ErrConflict; callers skip and move on.
func (r *ResultRepo) Save(ctx domain.Context, res domain.Result) (int64, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Save")
	defer span.End()
	q := `INSERT INTO litscan_result (pmcid, job_id, id_in_title, id_in_abstract, id_in_body)
	      VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int64
	err := r.Pool.QueryRow(ctx, q, res.PMCID, res.JobID, res.IDInTitle, res.IDInAbstract, res.IDInBody).Scan(&id)
	if err != nil {
		return 0, storeErr("result.save", err)
	}
	return id, nil
}

// PMCIDsInResult lists the article ids already recorded for a job. Used to
// skip previously seen articles on incremental runs.
func (r *ResultRepo) PMCIDsInResult(ctx domain.Context, jobID string) ([]string, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.PMCIDsInResult")
	defer span.End()
	q := `SELECT pmcid FROM litscan_result WHERE job_id=LOWER($1)`
	rows, err := r.Pool.Query(ctx, q, jobID)
	if err != nil {
		return nil, storeErr("result.pmcids_in_result", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var pmcid string
		if err := rows.Scan(&pmcid); err != nil {
			return nil, storeErr("result.pmcids_in_result", err)
		}
		out = append(out, pmcid)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("result.pmcids_in_result", err)
	}
	return out, nil
}

// SaveAbstractSentences inserts a batch of abstract sentences in document order.
func (r *ResultRepo) SaveAbstractSentences(ctx domain.Context, batch []domain.AbstractSentence) error {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.SaveAbstractSentences")
	defer span.End()
	q := `INSERT INTO litscan_abstract_sentence (result_id, sentence) VALUES ($1, $2)`
	for _, s := range batch {
		if _, err := r.Pool.Exec(ctx, q, s.ResultID, s.Sentence); err != nil {
			return storeErr("result.save_abstract_sentences", err)
		}
	}
	return nil
}

// SaveBodySentences inserts a batch of body sentences in document order.
func (r *ResultRepo) SaveBodySentences(ctx domain.Context, batch []domain.BodySentence) error {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.SaveBodySentences")
	defer span.End()
	q := `INSERT INTO litscan_body_sentence (result_id, location, sentence) VALUES ($1, $2, $3)`
	for _, s := range batch {
		if _, err := r.Pool.Exec(ctx, q, s.ResultID, s.Location, s.Sentence); err != nil {
			return storeErr("result.save_body_sentences", err)
		}
	}
	return nil
}

// JobResults returns up to 100 joined result objects for a job, with body
// sentences ordered by location.
func (r *ResultRepo) JobResults(ctx domain.Context, jobID string) ([]domain.JobResult, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.JobResults")
	defer span.End()
	q := `SELECT r.id, r.pmcid, r.id_in_title, r.id_in_abstract, r.id_in_body,
	             a.title, a.author, a.pmid, a.doi, a.year, a.journal, a.score, a.cited_by, a.retracted
	      FROM litscan_result r
	      JOIN litscan_article a ON a.pmcid = r.pmcid
	      WHERE r.job_id=LOWER($1)
	      ORDER BY r.id
	      LIMIT 100`
	rows, err := r.Pool.Query(ctx, q, jobID)
	if err != nil {
		return nil, storeErr("result.job_results", err)
	}
	defer rows.Close()

	type row struct {
		id  int64
		res domain.JobResult
	}
	var collected []row
	for rows.Next() {
		var it row
		it.res.JobID = jobID
		if err := rows.Scan(&it.id, &it.res.PMCID, &it.res.IDInTitle, &it.res.IDInAbstract, &it.res.IDInBody,
			&it.res.Title, &it.res.Author, &it.res.PMID, &it.res.DOI, &it.res.Year, &it.res.Journal,
			&it.res.Score, &it.res.CitedBy, &it.res.Retracted); err != nil {
			return nil, storeErr("result.job_results", err)
		}
		collected = append(collected, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("result.job_results", err)
	}
	rows.Close()

	out := make([]domain.JobResult, 0, len(collected))
	for _, it := range collected {
		abstract, err := r.abstractSentences(ctx, it.id)
		if err != nil {
			return nil, err
		}
		body, err := r.bodySentences(ctx, it.id)
		if err != nil {
			return nil, err
		}
		it.res.AbstractSentence = abstract
		it.res.BodySentence = body
		out = append(out, it.res)
	}
	return out, nil
}

func (r *ResultRepo) abstractSentences(ctx domain.Context, resultID int64) ([]string, error) {
	q := `SELECT sentence FROM litscan_abstract_sentence WHERE result_id=$1 ORDER BY id`
	rows, err := r.Pool.Query(ctx, q, resultID)
	if err != nil {
		return nil, storeErr("result.abstract_sentences", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, storeErr("result.abstract_sentences", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ResultRepo) bodySentences(ctx domain.Context, resultID int64) ([]domain.LocatedSentence, error) {
	q := `SELECT location, sentence FROM litscan_body_sentence WHERE result_id=$1 ORDER BY location`
	rows, err := r.Pool.Query(ctx, q, resultID)
	if err != nil {
		return nil, storeErr("result.body_sentences", err)
	}
	defer rows.Close()
	out := []domain.LocatedSentence{}
	for rows.Next() {
		var s domain.LocatedSentence
		if err := rows.Scan(&s.Location, &s.Sentence); err != nil {
			return nil, storeErr("result.body_sentences", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
