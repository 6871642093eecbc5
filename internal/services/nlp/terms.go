package nlp

import (
	"sort"
	"strings"

	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// Extractor pulls scored noun-phrase terms out of cleaned text. Chains of
// consecutive nouns form multi-word terms; single nouns count when they
// recur.
type Extractor struct {
	tokenizer *Tokenizer
	tagger    *Tagger

	// singleStrength is the minimum frequency for a single-word term.
	singleStrength int
}

// NewExtractor returns a term extractor with the default single-word
// threshold.
func NewExtractor() *Extractor {
	return &Extractor{
		tokenizer:      NewTokenizer(),
		tagger:         NewTagger(),
		singleStrength: 2,
	}
}

// Terms returns noun-phrase terms sorted by descending score. Score is
// frequency times word count, so multi-word names rank above repeated
// single nouns at equal frequency.
func (e *Extractor) Terms(text string) []interfaces.ScoredTerm {
	freq := make(map[string]int)
	wordCount := make(map[string]int)

	for _, sentence := range e.tokenizer.Sentences(text) {
		tokens := e.tagger.Tag(sentence)
		var chain []string

		flush := func() {
			if len(chain) == 0 {
				return
			}
			term := strings.Join(chain, " ")
			freq[term]++
			wordCount[term] = len(chain)
			chain = nil
		}

		for _, token := range tokens {
			if token.Tag == "NNP" || token.Tag == "NN" {
				chain = append(chain, token.Word)
				continue
			}
			flush()
		}
		flush()
	}

	terms := make([]interfaces.ScoredTerm, 0, len(freq))
	for term, n := range freq {
		if wordCount[term] == 1 && n < e.singleStrength {
			continue
		}
		terms = append(terms, interfaces.ScoredTerm{
			Term:  term,
			Freq:  n,
			Score: float64(n * wordCount[term]),
		})
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Score != terms[j].Score {
			return terms[i].Score > terms[j].Score
		}
		return terms[i].Term < terms[j].Term
	})
	return terms
}
