package postgres

import (
	"errors"

	"go.opentelemetry.io/otel"

	"github.com/litscan/litscan/internal/domain"
)

// MetadataRepo persists dataset links between jobs and expert databases.
type MetadataRepo struct{ Pool PgxPool }

// NewMetadataRepo constructs a MetadataRepo with the given pool.
func NewMetadataRepo(p PgxPool) *MetadataRepo { return &MetadataRepo{Pool: p} }

// Save inserts a batch of metadata rows. Duplicates on
// (name, job_id, primary_id) are already known and swallowed.
func (r *MetadataRepo) Save(ctx domain.Context, batch []domain.Metadata) error {
	tracer := otel.Tracer("repo.metadata")
	ctx, span := tracer.Start(ctx, "metadata.Save")
	defer span.End()
	q := `INSERT INTO litscan_database (name, job_id, primary_id) VALUES ($1, LOWER($2), $3)`
	for _, m := range batch {
		if _, err := r.Pool.Exec(ctx, q, m.Name, m.JobID, m.PrimaryID); err != nil {
			wrapped := storeErr("metadata.save", err)
			if errors.Is(wrapped, domain.ErrConflict) {
				continue
			}
			return wrapped
		}
	}
	return nil
}

// Search returns the id of the row matching (job_id, name, primary_id), or
// ErrNotFound.
func (r *MetadataRepo) Search(ctx domain.Context, jobID, name string, primaryID *string) (int64, error) {
	tracer := otel.Tracer("repo.metadata")
	ctx, span := tracer.Start(ctx, "metadata.Search")
	defer span.End()
	q := `SELECT id FROM litscan_database
	      WHERE job_id=LOWER($1) AND name=$2 AND primary_id IS NOT DISTINCT FROM $3`
	var id int64
	if err := r.Pool.QueryRow(ctx, q, jobID, name, primaryID).Scan(&id); err != nil {
		if noRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, storeErr("metadata.search", err)
	}
	return id, nil
}

// HitCounts aggregates hit counts per primary identifier for the rnacentral
// dataset.
func (r *MetadataRepo) HitCounts(ctx domain.Context) ([]domain.IdentifierHitCount, error) {
	tracer := otel.Tracer("repo.metadata")
	ctx, span := tracer.Start(ctx, "metadata.HitCounts")
	defer span.End()
	q := `SELECT UPPER(d.primary_id) AS urs, SUM(j.hit_count) AS total
	      FROM litscan_job j
	      JOIN litscan_database d ON d.job_id = j.job_id
	      WHERE j.hit_count > 0 AND d.name = 'rnacentral' AND d.primary_id IS NOT NULL
	      GROUP BY d.primary_id`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, storeErr("metadata.hit_counts", err)
	}
	defer rows.Close()
	var out []domain.IdentifierHitCount
	for rows.Next() {
		var c domain.IdentifierHitCount
		if err := rows.Scan(&c.URS, &c.HitCount); err != nil {
			return nil, storeErr("metadata.hit_counts", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("metadata.hit_counts", err)
	}
	return out, nil
}

// MarkManuallyAnnotated flags a metadata row as backed by manual curation.
func (r *MetadataRepo) MarkManuallyAnnotated(ctx domain.Context, jobID, primaryID, name string) error {
	tracer := otel.Tracer("repo.metadata")
	ctx, span := tracer.Start(ctx, "metadata.MarkManuallyAnnotated")
	defer span.End()
	q := `UPDATE litscan_database SET manually_annotated=TRUE
	      WHERE job_id=LOWER($1) AND primary_id=$2 AND name=$3`
	if _, err := r.Pool.Exec(ctx, q, jobID, primaryID, name); err != nil {
		return storeErr("metadata.mark_manually_annotated", err)
	}
	return nil
}

// SaveManuallyAnnotated links an article to a curated identifier.
func (r *MetadataRepo) SaveManuallyAnnotated(ctx domain.Context, pmcid, urs string) error {
	tracer := otel.Tracer("repo.metadata")
	ctx, span := tracer.Start(ctx, "metadata.SaveManuallyAnnotated")
	defer span.End()
	q := `INSERT INTO litscan_manually_annotated (pmcid, urs) VALUES ($1, LOWER($2))`
	if _, err := r.Pool.Exec(ctx, q, pmcid, urs); err != nil {
		wrapped := storeErr("metadata.save_manually_annotated", err)
		if errors.Is(wrapped, domain.ErrConflict) {
			return nil
		}
		return wrapped
	}
	return nil
}
