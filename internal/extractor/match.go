// Package extractor turns full-text JATS XML into structured matches for one
// identifier: article metadata, per-section sentences and the section flags
// that feed a result row. It is a pure function over the input bytes.
package extractor

import (
	"regexp"
	"strings"
)

// Delimiters accepted around an identifier. An identifier counts as mentioned
// only when flanked by start/end of string, whitespace or common punctuation,
// so "uca1" does not match inside "uca12".
const (
	leftDelims  = `[\s("'“;]`
	rightDelims = `[\s.,:;?'"”/)]`
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// identifierPattern compiles the match regex for a job identifier. The
// identifier is lower-cased and escaped; matching is case-insensitive.
func identifierPattern(id string) *regexp.Regexp {
	escaped := regexp.QuoteMeta(strings.ToLower(id))
	return regexp.MustCompile(`(?i)(^|` + leftDelims + `)` + escaped + `($|` + rightDelims + `)`)
}

// stripTags flattens markup to plain text for the pre-screen.
func stripTags(raw string) string {
	return tagPattern.ReplaceAllString(raw, " ")
}

// Elements whose whole bodies are dropped before parsing. Captions and
// supplementary blocks produce noisy sentence fragments.
var noiseElements = []string{"counts", "table-wrap", "table", "fig-group", "fig", "supplementary-material"}

var noisePatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(noiseElements))
	for _, name := range noiseElements {
		// (>|\s[^>]*>) keeps <table> from also consuming <table-wrap>.
		out = append(out, regexp.MustCompile(`(?is)<`+name+`(>|\s[^>]*>).*?</`+name+`>`))
	}
	return out
}()

// dropNoise removes tables, figures and supplementary material from the raw
// XML before tree parsing.
func dropNoise(raw string) string {
	for _, p := range noisePatterns {
		raw = p.ReplaceAllString(raw, "")
	}
	return raw
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// collapseWhitespace folds runs of whitespace into single spaces and trims.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
