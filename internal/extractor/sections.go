package extractor

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// Section buckets. A body section lands in the first bucket whose rule
// matches its title; untitled or unmatched sections go to other.
const (
	BucketIntro      = "intro"
	BucketResults    = "results"
	BucketDiscussion = "discussion"
	BucketConclusion = "conclusion"
	BucketMethod     = "method"
	BucketOther      = "other"
	BucketAbstract   = "abstract"
)

var sectionRules = []struct {
	pattern *regexp.Regexp
	bucket  string
}{
	{regexp.MustCompile(`.*intro.+`), BucketIntro},
	{regexp.MustCompile(`.*results`), BucketResults},
	{regexp.MustCompile(`.*discussion`), BucketDiscussion},
	{regexp.MustCompile(`.*conclusion.*`), BucketConclusion},
	{regexp.MustCompile(`.*method.+`), BucketMethod},
}

// bucketFor assigns a section title (already lower-cased) to a bucket.
func bucketFor(title string) string {
	for _, rule := range sectionRules {
		if rule.pattern.MatchString(title) {
			return rule.bucket
		}
	}
	return BucketOther
}

// Elements skipped while collecting paragraph text. Cross references, links,
// formulas and the whole MathML set contribute tokens that break sentences.
var avoidTags = map[string]bool{
	"xref": true, "ext-link": true, "media": true, "caption": true,
	"monospace": true, "label": true, "disp-formula": true,
	"inline-formula": true, "inline-graphic": true, "def": true,
	"def-list": true, "def-item": true, "term": true,
	"funding-source": true, "award-id": true, "graphic": true,
	"alternatives": true, "tex-math": true, "sec-meta": true,
	"kwd-group": true, "kwd": true, "object-id": true,
	// MathML, matched with or without a namespace prefix.
	"math": true, "mrow": true, "mi": true, "mo": true, "msub": true,
	"mn": true, "msup": true, "mtext": true, "msubsup": true,
	"mover": true, "mstyle": true, "munderover": true, "mspace": true,
	"mfenced": true, "mpadded": true, "mfrac": true, "msqrt": true,
}

func avoided(e *etree.Element) bool {
	if avoidTags[e.Tag] {
		return true
	}
	// A prefixed tag whose local name is not in the set is still dropped when
	// the prefix marks the MathML namespace.
	return e.Space == "mml"
}

// collectText gathers the concatenated character data of an element and its
// descendants, the way ElementTree's itertext does.
func collectText(e *etree.Element, sb *strings.Builder) {
	for _, child := range e.Child {
		switch t := child.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			collectText(t, sb)
		}
	}
}

func elementText(e *etree.Element) string {
	var sb strings.Builder
	collectText(e, &sb)
	return sb.String()
}

// paragraphText gathers text from an element skipping the avoid-set.
func paragraphText(e *etree.Element, sb *strings.Builder) {
	for _, child := range e.Child {
		switch t := child.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			if avoided(t) {
				continue
			}
			paragraphText(t, sb)
		}
	}
}

// sectionParagraphs collects the cleaned text of all <p> descendants of a
// section. Paragraphs of one token or less carry no usable sentence.
func sectionParagraphs(sec *etree.Element) []string {
	var out []string
	for _, p := range sec.FindElements(".//p") {
		var sb strings.Builder
		paragraphText(p, &sb)
		text := collapseWhitespace(sb.String())
		if tokenCount(text) <= 1 {
			continue
		}
		out = append(out, text)
	}
	return out
}
