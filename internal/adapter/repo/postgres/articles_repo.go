package postgres

import (
	"go.opentelemetry.io/otel"

	"github.com/litscan/litscan/internal/domain"
)

// ArticleRepo persists articles. Rows are immutable after insert except for
// retracted and the relevance fields.
type ArticleRepo struct{ Pool PgxPool }

// NewArticleRepo constructs an ArticleRepo with the given pool.
func NewArticleRepo(p PgxPool) *ArticleRepo { return &ArticleRepo{Pool: p} }

// Save inserts an article.
func (r *ArticleRepo) Save(ctx domain.Context, a domain.Article) error {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.Save")
	defer span.End()
	q := `INSERT INTO litscan_article
	      (pmcid, title, abstract, author, pmid, doi, year, journal, type, score, cited_by, retracted)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.Pool.Exec(ctx, q, a.PMCID, a.Title, a.Abstract, a.Author, a.PMID, a.DOI,
		a.Year, a.Journal, a.Type, a.Score, a.CitedBy, a.Retracted)
	if err != nil {
		return storeErr("article.save", err)
	}
	return nil
}

// GetPMCID checks whether an article is already stored.
func (r *ArticleRepo) GetPMCID(ctx domain.Context, pmcid string) (string, error) {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.GetPMCID")
	defer span.End()
	q := `SELECT pmcid FROM litscan_article WHERE pmcid=$1`
	var got string
	if err := r.Pool.QueryRow(ctx, q, pmcid).Scan(&got); err != nil {
		if noRows(err) {
			return "", domain.ErrNotFound
		}
		return "", storeErr("article.get_pmcid", err)
	}
	return got, nil
}

// AllPMCIDs lists every stored article id, used by the retraction sweep.
func (r *ArticleRepo) AllPMCIDs(ctx domain.Context) ([]string, error) {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.AllPMCIDs")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT pmcid FROM litscan_article ORDER BY pmcid`)
	if err != nil {
		return nil, storeErr("article.all_pmcids", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var pmcid string
		if err := rows.Scan(&pmcid); err != nil {
			return nil, storeErr("article.all_pmcids", err)
		}
		out = append(out, pmcid)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("article.all_pmcids", err)
	}
	return out, nil
}

// SetRetracted flags an article found retracted upstream.
func (r *ArticleRepo) SetRetracted(ctx domain.Context, pmcid string) error {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.SetRetracted")
	defer span.End()
	q := `UPDATE litscan_article SET retracted=TRUE WHERE pmcid=$1`
	if _, err := r.Pool.Exec(ctx, q, pmcid); err != nil {
		return storeErr("article.set_retracted", err)
	}
	return nil
}

// FetchBatch pages non-retracted articles ordered by pmcid for the relevance
// pass.
func (r *ArticleRepo) FetchBatch(ctx domain.Context, limit, offset int) ([]domain.Article, error) {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.FetchBatch")
	defer span.End()
	q := `SELECT pmcid, COALESCE(abstract, '') FROM litscan_article
	      WHERE NOT retracted ORDER BY pmcid LIMIT $1 OFFSET $2`
	rows, err := r.Pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, storeErr("article.fetch_batch", err)
	}
	defer rows.Close()
	var out []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.PMCID, &a.Abstract); err != nil {
			return nil, storeErr("article.fetch_batch", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("article.fetch_batch", err)
	}
	return out, nil
}

// SetRelevance stores the classifier verdict for an article.
func (r *ArticleRepo) SetRelevance(ctx domain.Context, pmcid string, related bool, probability float64) error {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.SetRelevance")
	defer span.End()
	q := `UPDATE litscan_article SET rna_related=$2, probability=$3 WHERE pmcid=$1`
	if _, err := r.Pool.Exec(ctx, q, pmcid, related, probability); err != nil {
		return storeErr("article.set_relevance", err)
	}
	return nil
}
