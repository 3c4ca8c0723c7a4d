package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/litscan/litscan/internal/adapter/observability"
	"github.com/litscan/litscan/internal/domain"
	"github.com/litscan/litscan/internal/extractor"
)

// defaultSearchLimit caps how many articles one scan will fetch when the
// submission did not set its own limit.
const defaultSearchLimit = 1_000_000

// ScanService is the consumer's job body: search the literature corpus for
// the identifier, pull each article's full text, extract matching sentences
// and persist the results.
type ScanService struct {
	Jobs       domain.JobRepository
	Consumers  domain.ConsumerRepository
	Articles   domain.ArticleRepository
	Results    domain.ResultRepository
	Literature domain.LiteratureClient

	// FetchInterval is the pause between full-text fetches.
	FetchInterval time.Duration
}

func NewScanService(j domain.JobRepository, c domain.ConsumerRepository, a domain.ArticleRepository, r domain.ResultRepository, l domain.LiteratureClient, fetchInterval time.Duration) ScanService {
	return ScanService{Jobs: j, Consumers: c, Articles: a, Results: r, Literature: l, FetchInterval: fetchInterval}
}

// Accept claims the job for this consumer: the consumer row goes busy and the
// job goes started. Called synchronously before the scan is spawned.
func (s ScanService) Accept(ctx domain.Context, jobID, consumerIP string) error {
	id := strings.ToLower(jobID)
	if err := s.Consumers.Set(ctx, consumerIP, domain.ConsumerBusy, id); err != nil {
		return err
	}
	if err := s.Jobs.SetStatus(ctx, id, domain.JobStarted); err != nil {
		// No scan will be spawned; free the consumer row again.
		if rbErr := s.Consumers.Set(ctx, consumerIP, domain.ConsumerAvailable, ""); rbErr != nil {
			slog.Error("failed to release consumer", slog.String("consumer", consumerIP), slog.Any("error", rbErr))
		}
		return err
	}
	return nil
}

// Run executes the scan for one job and releases the consumer when done.
// displayID keeps the submitted casing for the literature query and the
// extracted sentences; all store access uses the lower-cased job id.
func (s ScanService) Run(ctx domain.Context, displayID, consumerIP string) {
	jobID := strings.ToLower(displayID)
	start := time.Now()

	if err := s.scan(ctx, displayID, jobID); err != nil {
		slog.Error("scan failed", slog.String("job_id", jobID), slog.Any("error", err))
		observability.JobsFinishedTotal.WithLabelValues(string(domain.JobError)).Inc()
		if err := s.Jobs.SetStatus(ctx, jobID, domain.JobError); err != nil {
			slog.Error("failed to mark job errored", slog.String("job_id", jobID), slog.Any("error", err))
		}
	} else {
		observability.JobsFinishedTotal.WithLabelValues(string(domain.JobSuccess)).Inc()
		slog.Info("scan finished",
			slog.String("job_id", jobID),
			slog.Duration("elapsed", time.Since(start)))
	}

	if err := s.Consumers.Set(ctx, consumerIP, domain.ConsumerAvailable, ""); err != nil {
		slog.Error("failed to release consumer", slog.String("consumer", consumerIP), slog.Any("error", err))
	}
}

func (s ScanService) scan(ctx domain.Context, displayID, jobID string) error {
	query, searchLimit, err := s.Jobs.QueryAndLimit(ctx, jobID)
	if err != nil {
		return err
	}
	queryFilter := DefaultQueryFilter
	if query != nil && *query != "" {
		queryFilter = stripIdentifier(*query, displayID)
	}
	limit := defaultSearchLimit
	if searchLimit != nil && *searchLimit > 0 {
		limit = *searchLimit
	}

	// An earlier finished run makes this an incremental scan.
	since, err := s.Jobs.SearchDate(ctx, jobID)
	if err != nil {
		return err
	}

	hits, err := s.collectHits(ctx, displayID, queryFilter, since, limit)
	if err != nil {
		return err
	}

	if since != nil && len(hits) > 0 {
		seen, err := s.Results.PMCIDsInResult(ctx, jobID)
		if err != nil {
			return err
		}
		hits = filterSeen(hits, seen)
	}

	newResults := 0
	for _, hit := range hits {
		time.Sleep(s.FetchInterval)
		if err := ctx.Err(); err != nil {
			return err
		}
		saved, err := s.processArticle(ctx, displayID, jobID, hit)
		if err != nil {
			observability.ArticlesProcessedTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("pmcid %s: %w", hit.PMCID, err)
		}
		if saved {
			newResults++
		}
	}

	hitCount := newResults
	if since != nil {
		prior, err := s.Jobs.HitCount(ctx, jobID)
		if err != nil {
			return err
		}
		hitCount += prior
	}
	if err := s.Jobs.SaveHitCount(ctx, jobID, hitCount); err != nil {
		return err
	}
	return s.Jobs.SetStatus(ctx, jobID, domain.JobSuccess)
}

// collectHits pages the literature search, deduplicating pmcids, until the
// cursor is exhausted or the limit is reached.
func (s ScanService) collectHits(ctx domain.Context, displayID, queryFilter string, since *time.Time, limit int) ([]domain.SearchHit, error) {
	var hits []domain.SearchHit
	seen := make(map[string]bool)
	cursor := ""
	for {
		page, next, err := s.Literature.Search(ctx, displayID, queryFilter, since, cursor)
		if err != nil {
			return nil, err
		}
		for _, hit := range page {
			if seen[hit.PMCID] {
				continue
			}
			seen[hit.PMCID] = true
			hits = append(hits, hit)
			if len(hits) >= limit {
				return hits, nil
			}
		}
		if next == "" || next == cursor {
			return hits, nil
		}
		cursor = next
	}
}

// processArticle fetches and extracts one article. It reports whether a new
// result row was inserted.
func (s ScanService) processArticle(ctx domain.Context, displayID, jobID string, hit domain.SearchHit) (bool, error) {
	raw, err := s.Literature.FullText(ctx, hit.PMCID)
	if err != nil {
		return false, err
	}
	if raw == nil {
		observability.ArticlesProcessedTotal.WithLabelValues("unavailable").Inc()
		return false, nil
	}

	ex := extractor.Extract(raw, displayID)
	if ex == nil {
		observability.ArticlesProcessedTotal.WithLabelValues("skipped").Inc()
		return false, nil
	}

	// The article row is immutable after first insert, whichever job got
	// there first.
	if _, err := s.Articles.GetPMCID(ctx, hit.PMCID); errors.Is(err, domain.ErrNotFound) {
		article := ex.Article
		article.PMCID = hit.PMCID
		article.CitedBy = hit.CitedBy
		if err := s.Articles.Save(ctx, article); err != nil && !errors.Is(err, domain.ErrConflict) {
			return false, err
		}
	} else if err != nil {
		return false, err
	}

	resultID, err := s.Results.Save(ctx, domain.Result{
		PMCID:        hit.PMCID,
		JobID:        jobID,
		IDInTitle:    ex.IDInTitle,
		IDInAbstract: ex.IDInAbstract,
		IDInBody:     ex.IDInBody,
	})
	if errors.Is(err, domain.ErrConflict) {
		// Another run of this job already recorded the article.
		observability.ArticlesProcessedTotal.WithLabelValues("duplicate").Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}

	abstract := make([]domain.AbstractSentence, 0, len(ex.AbstractSentences))
	for _, sentence := range ex.AbstractSentences {
		abstract = append(abstract, domain.AbstractSentence{ResultID: resultID, Sentence: sentence})
	}
	if err := s.Results.SaveAbstractSentences(ctx, abstract); err != nil {
		return false, err
	}

	var body []domain.BodySentence
	for _, sec := range ex.BodySections {
		for _, sentence := range sec.Sentences {
			body = append(body, domain.BodySentence{ResultID: resultID, Location: sec.Location, Sentence: sentence})
		}
	}
	if err := s.Results.SaveBodySentences(ctx, body); err != nil {
		return false, err
	}

	observability.ArticlesProcessedTotal.WithLabelValues("saved").Inc()
	return true, nil
}

// stripIdentifier removes the quoted identifier, and the boolean connector
// next to it, from a stored query filter. The literature query already opens
// with the identifier, so `"uca1" AND ("rna" OR "chicken")` becomes
// `("rna" OR "chicken")`.
func stripIdentifier(filter, identifier string) string {
	quoted := regexp.QuoteMeta(`"` + identifier + `"`)
	re := regexp.MustCompile(`(?i)\s*(AND|OR)\s+` + quoted + `|` + quoted + `\s+(AND|OR)\s*|` + quoted)
	return strings.TrimSpace(re.ReplaceAllString(filter, ""))
}

func filterSeen(hits []domain.SearchHit, seen []string) []domain.SearchHit {
	known := make(map[string]bool, len(seen))
	for _, pmcid := range seen {
		known[pmcid] = true
	}
	out := hits[:0]
	for _, hit := range hits {
		if !known[hit.PMCID] {
			out = append(out, hit)
		}
	}
	return out
}
