package postgres

import (
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/litscan/litscan/internal/domain"
)

// JobRepo persists and loads jobs.
type JobRepo struct{ Pool PgxPool }

// NewJobRepo constructs a JobRepo with the given pool.
func NewJobRepo(p PgxPool) *JobRepo { return &JobRepo{Pool: p} }

// Save inserts a new job as pending and returns its id, which is always the
// lower-cased identifier.
func (r *JobRepo) Save(ctx domain.Context, j domain.Job) (string, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Save")
	defer span.End()
	id := strings.ToLower(j.DisplayID)
	q := `INSERT INTO litscan_job (job_id, display_id, query, search_limit, status, submitted)
	      VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.Pool.Exec(ctx, q, id, j.DisplayID, j.Query, j.SearchLimit, domain.JobPending, time.Now().UTC())
	if err != nil {
		return "", storeErr("job.save", err)
	}
	return id, nil
}

// SearchPerformed looks a job up by identifier, case-insensitively.
func (r *JobRepo) SearchPerformed(ctx domain.Context, value string) (domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.SearchPerformed")
	defer span.End()
	q := `SELECT job_id, display_id, query, search_limit, status, submitted, finished, hit_count
	      FROM litscan_job WHERE job_id = LOWER($1)`
	row := r.Pool.QueryRow(ctx, q, value)
	var j domain.Job
	if err := row.Scan(&j.ID, &j.DisplayID, &j.Query, &j.SearchLimit, &j.Status, &j.Submitted, &j.Finished, &j.HitCount); err != nil {
		if noRows(err) {
			return domain.Job{}, domain.ErrNotFound
		}
		return domain.Job{}, storeErr("job.search_performed", err)
	}
	return j, nil
}

// SetStatus updates a job's status, stamping finished on terminal states.
func (r *JobRepo) SetStatus(ctx domain.Context, id string, status domain.JobStatus) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.SetStatus")
	defer span.End()
	var err error
	if status.Terminal() {
		q := `UPDATE litscan_job SET status=$2, finished=$3 WHERE job_id=LOWER($1)`
		_, err = r.Pool.Exec(ctx, q, id, status, time.Now().UTC())
	} else {
		q := `UPDATE litscan_job SET status=$2 WHERE job_id=LOWER($1)`
		_, err = r.Pool.Exec(ctx, q, id, status)
	}
	if err != nil {
		return storeErr("job.set_status", err)
	}
	return nil
}

// SaveHitCount stores the number of results found by a run.
func (r *JobRepo) SaveHitCount(ctx domain.Context, id string, n int) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.SaveHitCount")
	defer span.End()
	q := `UPDATE litscan_job SET hit_count=$2 WHERE job_id=LOWER($1)`
	if _, err := r.Pool.Exec(ctx, q, id, n); err != nil {
		return storeErr("job.save_hit_count", err)
	}
	return nil
}

// FindJobsToRun returns the 8 oldest pending jobs in submission order.
func (r *JobRepo) FindJobsToRun(ctx domain.Context) ([]domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.FindJobsToRun")
	defer span.End()
	q := `SELECT job_id, display_id, query, search_limit, status, submitted, finished, hit_count
	      FROM litscan_job WHERE status=$1 ORDER BY submitted ASC LIMIT 8`
	rows, err := r.Pool.Query(ctx, q, domain.JobPending)
	if err != nil {
		return nil, storeErr("job.find_jobs_to_run", err)
	}
	defer rows.Close()
	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(&j.ID, &j.DisplayID, &j.Query, &j.SearchLimit, &j.Status, &j.Submitted, &j.Finished, &j.HitCount); err != nil {
			return nil, storeErr("job.find_jobs_to_run", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("job.find_jobs_to_run", err)
	}
	return jobs, nil
}

// SearchDate returns the finished timestamp of the last run, nil when the job
// never completed.
func (r *JobRepo) SearchDate(ctx domain.Context, id string) (*time.Time, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.SearchDate")
	defer span.End()
	q := `SELECT finished FROM litscan_job WHERE job_id=LOWER($1)`
	var finished *time.Time
	if err := r.Pool.QueryRow(ctx, q, id).Scan(&finished); err != nil {
		if noRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("job.search_date", err)
	}
	return finished, nil
}

// HitCount returns the stored hit count, zero when never set.
func (r *JobRepo) HitCount(ctx domain.Context, id string) (int, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.HitCount")
	defer span.End()
	q := `SELECT COALESCE(hit_count, 0) FROM litscan_job WHERE job_id=LOWER($1)`
	var n int
	if err := r.Pool.QueryRow(ctx, q, id).Scan(&n); err != nil {
		if noRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, storeErr("job.hit_count", err)
	}
	return n, nil
}

// QueryAndLimit returns the stored query filter and search limit.
func (r *JobRepo) QueryAndLimit(ctx domain.Context, id string) (*string, *int, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.QueryAndLimit")
	defer span.End()
	q := `SELECT query, search_limit FROM litscan_job WHERE job_id=LOWER($1)`
	var query *string
	var limit *int
	if err := r.Pool.QueryRow(ctx, q, id).Scan(&query, &limit); err != nil {
		if noRows(err) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, storeErr("job.query_and_limit", err)
	}
	return query, limit, nil
}

// ResetJobData wipes a job's derived rows and re-queues it as pending.
// Sentences go with their results via FK cascade. The Job row survives.
func (r *JobRepo) ResetJobData(ctx domain.Context, id string) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.ResetJobData")
	defer span.End()
	tx, err := r.Pool.BeginTx(ctx, txOptions())
	if err != nil {
		return storeErr("job.reset", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM litscan_result WHERE job_id=LOWER($1)`, id); err != nil {
		return storeErr("job.reset", err)
	}
	q := `UPDATE litscan_job SET status=$2, submitted=$3, finished=NULL, hit_count=NULL WHERE job_id=LOWER($1)`
	if _, err := tx.Exec(ctx, q, id, domain.JobPending, time.Now().UTC()); err != nil {
		return storeErr("job.reset", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr("job.reset", err)
	}
	return nil
}
