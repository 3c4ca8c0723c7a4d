package postgres

import (
	"errors"

	"go.opentelemetry.io/otel"

	"github.com/litscan/litscan/internal/domain"
)

// ConsumerRepo persists worker registrations. Each worker owns exactly one
// row, keyed by its IP, and is the only writer of that row.
type ConsumerRepo struct{ Pool PgxPool }

// NewConsumerRepo constructs a ConsumerRepo with the given pool.
func NewConsumerRepo(p PgxPool) *ConsumerRepo { return &ConsumerRepo{Pool: p} }

// Register inserts the worker's row as available. A duplicate key means the
// worker restarted; that is acceptable and swallowed.
func (r *ConsumerRepo) Register(ctx domain.Context, ip, port string) error {
	tracer := otel.Tracer("repo.consumers")
	ctx, span := tracer.Start(ctx, "consumers.Register")
	defer span.End()
	q := `INSERT INTO litscan_consumer (ip, status, port) VALUES ($1, $2, $3)`
	if _, err := r.Pool.Exec(ctx, q, ip, domain.ConsumerAvailable, port); err != nil {
		wrapped := storeErr("consumer.register", err)
		if errors.Is(wrapped, domain.ErrConflict) {
			return nil
		}
		return wrapped
	}
	return nil
}

// Set updates the worker's status and held job. An empty jobID stores NULL,
// preserving the invariant that job_id is set iff the consumer is busy.
func (r *ConsumerRepo) Set(ctx domain.Context, ip string, status domain.ConsumerStatus, jobID string) error {
	tracer := otel.Tracer("repo.consumers")
	ctx, span := tracer.Start(ctx, "consumers.Set")
	defer span.End()
	var job *string
	if jobID != "" {
		job = &jobID
	}
	q := `UPDATE litscan_consumer SET status=$2, job_id=$3 WHERE ip=$1`
	if _, err := r.Pool.Exec(ctx, q, ip, status, job); err != nil {
		return storeErr("consumer.set", err)
	}
	return nil
}

// FindAvailable returns all idle workers.
func (r *ConsumerRepo) FindAvailable(ctx domain.Context) ([]domain.Consumer, error) {
	tracer := otel.Tracer("repo.consumers")
	ctx, span := tracer.Start(ctx, "consumers.FindAvailable")
	defer span.End()
	q := `SELECT ip, status, port, job_id FROM litscan_consumer WHERE status=$1`
	rows, err := r.Pool.Query(ctx, q, domain.ConsumerAvailable)
	if err != nil {
		return nil, storeErr("consumer.find_available", err)
	}
	defer rows.Close()
	var out []domain.Consumer
	for rows.Next() {
		var c domain.Consumer
		if err := rows.Scan(&c.IP, &c.Status, &c.Port, &c.JobID); err != nil {
			return nil, storeErr("consumer.find_available", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("consumer.find_available", err)
	}
	return out, nil
}

// FindByJob returns the consumer currently holding jobID, or ErrNotFound.
func (r *ConsumerRepo) FindByJob(ctx domain.Context, jobID string) (domain.Consumer, error) {
	tracer := otel.Tracer("repo.consumers")
	ctx, span := tracer.Start(ctx, "consumers.FindByJob")
	defer span.End()
	q := `SELECT ip, status, port, job_id FROM litscan_consumer WHERE job_id=LOWER($1)`
	var c domain.Consumer
	if err := r.Pool.QueryRow(ctx, q, jobID).Scan(&c.IP, &c.Status, &c.Port, &c.JobID); err != nil {
		if noRows(err) {
			return domain.Consumer{}, domain.ErrNotFound
		}
		return domain.Consumer{}, storeErr("consumer.find_by_job", err)
	}
	return c, nil
}
