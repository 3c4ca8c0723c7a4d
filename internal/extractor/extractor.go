package extractor

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/litscan/litscan/internal/domain"
)

// Section is one body bucket with its matching context windows, in document
// order.
type Section struct {
	Location  string
	Sentences []string
}

// Extraction is the structured outcome for one article that mentions the
// identifier. A nil Extraction means the article is skipped.
type Extraction struct {
	Article           domain.Article
	IDInTitle         bool
	IDInAbstract      bool
	IDInBody          bool
	AbstractSentences []string
	BodySections      []Section
}

// Attribute values that mark an abstract variant we do not want to scan.
var skippedAbstractTypes = map[string]bool{
	"teaser": true, "web-summary": true, "summary": true,
	"precis": true, "graphical": true, "author-highlights": true,
}

var titleCaser = cases.Title(language.English)

// Extract parses one article's full-text XML and pulls out every sentence
// mentioning jobID. It returns nil when the article should be skipped:
// identifier absent, not in English, no title, or XML beyond repair.
func Extract(raw []byte, jobID string) *Extraction {
	pattern := identifierPattern(jobID)

	// Cheap pre-screen on the flat text before any tree work.
	flat := strings.ToLower(stripTags(string(raw)))
	if !pattern.MatchString(flat) {
		return nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(dropNoise(string(raw))); err != nil {
		slog.Debug("article XML parse failed", slog.Any("error", err))
		return nil
	}
	article := doc.Root()
	if article == nil {
		return nil
	}

	// trans-title-group means the article was not written in English.
	if article.FindElement("./front/article-meta/title-group/trans-title-group") != nil {
		return nil
	}

	titleEl := article.FindElement("./front/article-meta/title-group/article-title")
	if titleEl == nil {
		slog.Debug("article title not found", slog.String("job_id", jobID))
		return nil
	}
	title := strings.TrimSpace(elementText(titleEl))

	ex := &Extraction{}
	ex.IDInTitle = strings.Contains(strings.ToLower(title), strings.ToLower(jobID))

	abstract := abstractText(article)
	for _, sentence := range splitSentences(abstract) {
		if pattern.MatchString(strings.ToLower(sentence)) {
			ex.AbstractSentences = append(ex.AbstractSentences, sentence)
		}
	}
	ex.IDInAbstract = len(ex.AbstractSentences) > 0

	ex.BodySections = bodySections(article, pattern)

	anyBody := false
	bodyCount := 0
	for _, sec := range ex.BodySections {
		if len(sec.Sentences) > 0 {
			anyBody = true
			bodyCount += len(sec.Sentences)
		}
	}
	switch {
	case anyBody:
		ex.IDInBody = true
	case !ex.IDInAbstract:
		// The pre-screen saw the identifier but sanitization removed it: it
		// lives in a figure, table or supplementary block.
		ex.IDInBody = true
		ex.BodySections = append(ex.BodySections, Section{
			Location:  BucketOther,
			Sentences: []string{jobID + " found in an image, table or supplementary material"},
		})
		bodyCount++
	}

	ex.Article = articleMeta(article)
	ex.Article.Title = title
	ex.Article.Abstract = abstract
	ex.Article.Score = len(ex.AbstractSentences) + bodyCount
	return ex
}

// abstractText concatenates every abstract that is not a teaser or summary
// variant.
func abstractText(article *etree.Element) string {
	var parts []string
	for _, el := range article.FindElements("//abstract") {
		skip := false
		for _, attr := range el.Attr {
			if skippedAbstractTypes[attr.Value] {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		parts = append(parts, strings.Join(strings.Fields(elementText(el)), " "))
	}
	text := strings.Join(parts, " ")
	text = strings.ReplaceAll(text, " .", ".")
	return strings.ReplaceAll(text, "  ", " ")
}

// bodySections walks body/sec children, buckets each by its title and keeps
// the matching sentences flanked by their neighbors.
func bodySections(article *etree.Element, pattern interface{ MatchString(string) bool }) []Section {
	var out []Section
	counter := 0
	for _, sec := range article.FindElements("./body/sec") {
		counter++
		bucket := BucketOther
		if titleEl := sec.FindElement("./title"); titleEl != nil {
			bucket = bucketFor(strings.ToLower(strings.TrimSpace(elementText(titleEl))))
		}
		location := fmt.Sprintf("%s_%d", bucket, counter)

		text := strings.Join(sectionParagraphs(sec), " ")
		sentencesInSec := splitSentences(text)

		var windows []string
		for i, sentence := range sentencesInSec {
			if !pattern.MatchString(strings.ToLower(sentence)) || tokenCount(sentence) <= 3 {
				continue
			}
			window := sentence
			if i > 0 {
				window = sentencesInSec[i-1] + " " + window
			}
			if i < len(sentencesInSec)-1 {
				window = window + " " + sentencesInSec[i+1]
			}
			windows = append(windows, window)
		}
		if len(windows) > 0 {
			out = append(out, Section{Location: location, Sentences: windows})
		}
	}
	return out
}

// articleMeta pulls the bibliographic fields out of the front matter.
func articleMeta(article *etree.Element) domain.Article {
	var a domain.Article

	if t := article.SelectAttrValue("article-type", ""); t != "" {
		a.Type = titleCaser.String(strings.ReplaceAll(t, "-", " "))
	}

	if contrib := article.FindElement("./front/article-meta/contrib-group"); contrib != nil {
		var authors []string
		for _, name := range contrib.FindElements(".//name") {
			surname, given := "", ""
			if el := name.FindElement("./surname"); el != nil {
				surname = strings.TrimSpace(elementText(el))
			}
			if el := name.FindElement("./given-names"); el != nil {
				given = strings.TrimSpace(elementText(el))
			}
			switch {
			case surname != "" && given != "":
				authors = append(authors, surname+", "+given)
			case surname != "" || given != "":
				authors = append(authors, surname+given)
			}
		}
		a.Author = strings.Join(authors, "; ")
	}

	for _, el := range article.FindElements("./front/article-meta/article-id") {
		switch el.SelectAttrValue("pub-id-type", "") {
		case "doi":
			a.DOI = strings.TrimSpace(elementText(el))
		case "pmid":
			a.PMID = strings.TrimSpace(elementText(el))
		}
	}

	pubTypes := map[string]bool{"epub": true, "ppub": true, "pub": true}
	for _, el := range article.FindElements("./front/article-meta/pub-date") {
		matched := false
		for _, attr := range el.Attr {
			if pubTypes[attr.Value] {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if yearEl := el.FindElement("./year"); yearEl != nil {
			if y, err := strconv.Atoi(strings.TrimSpace(elementText(yearEl))); err == nil {
				a.Year = y
			}
		}
	}

	if el := article.FindElement("./front/journal-meta/journal-title-group/journal-title"); el != nil {
		a.Journal = strings.TrimSpace(elementText(el))
	} else if el := article.FindElement("./front/journal-meta/journal-title"); el != nil {
		a.Journal = strings.TrimSpace(elementText(el))
	}

	return a
}
