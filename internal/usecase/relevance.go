package usecase

import (
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/litscan/litscan/internal/domain"
)

// relevanceBatchSize is how many articles one fetch pulls from the store.
const relevanceBatchSize = 1000

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	bracketedPattern = regexp.MustCompile(`\[[^]]*]|\([^)]*\)`)
	urlPattern       = regexp.MustCompile(`https?://\S+|www\.\S+`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// RelevancePass walks every stored abstract through the pre-trained
// classifier and records the verdict on the article row.
type RelevancePass struct {
	Articles   domain.ArticleRepository
	Classifier domain.RelevanceClassifier
}

func NewRelevancePass(a domain.ArticleRepository, c domain.RelevanceClassifier) RelevancePass {
	return RelevancePass{Articles: a, Classifier: c}
}

// Run pages through the stored articles in batches. Classification failures
// are logged per article and do not stop the pass; fetch failures are retried
// three times before giving up.
func (p RelevancePass) Run(ctx domain.Context) error {
	offset := 0
	classified := 0
	for {
		batch, err := p.fetchBatch(ctx, offset)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			slog.Info("relevance pass finished", slog.Int("classified", classified))
			return nil
		}

		for _, article := range batch {
			text := CleanAbstract(article.Abstract)
			if text == "" {
				continue
			}
			related, probability, err := p.Classifier.Classify(ctx, text)
			if err != nil {
				slog.Warn("classification failed", slog.String("pmcid", article.PMCID), slog.Any("error", err))
				continue
			}
			probability = math.Round(probability*100) / 100
			if err := p.Articles.SetRelevance(ctx, article.PMCID, related, probability); err != nil {
				slog.Warn("failed to store relevance", slog.String("pmcid", article.PMCID), slog.Any("error", err))
				continue
			}
			classified++
		}
		offset += relevanceBatchSize
	}
}

func (p RelevancePass) fetchBatch(ctx domain.Context, offset int) ([]domain.Article, error) {
	var batch []domain.Article
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), 2), ctx)
	err := backoff.Retry(func() error {
		var err error
		batch, err = p.Articles.FetchBatch(ctx, relevanceBatchSize, offset)
		return err
	}, policy)
	return batch, err
}

// CleanAbstract normalizes an abstract the way the classifier's training data
// was prepared: lower case, no markup, no bracketed notes, no URLs.
func CleanAbstract(text string) string {
	text = strings.ToLower(text)
	text = tagPattern.ReplaceAllString(text, " ")
	text = bracketedPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}
