package extractor

import (
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var (
	tokenizerOnce sync.Once
	tokenizer     *sentences.DefaultSentenceTokenizer
)

// sentenceTokenizer returns the shared Punkt tokenizer trained on English.
// Scientific prose is full of abbreviations and decimals, so a plain "."
// split would cut sentences in the wrong places.
func sentenceTokenizer() *sentences.DefaultSentenceTokenizer {
	tokenizerOnce.Do(func() {
		t, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			panic(err)
		}
		tokenizer = t
	})
	return tokenizer
}

// splitSentences tokenizes text into trimmed sentences.
func splitSentences(text string) []string {
	raw := sentenceTokenizer().Tokenize(text)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// tokenCount counts whitespace-delimited tokens.
func tokenCount(s string) int { return len(strings.Fields(s)) }
