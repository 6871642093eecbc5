package nlp

import (
	"strings"
	"unicode"

	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// function words that start sentences capitalized without being names.
var functionWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"in": {}, "on": {}, "at": {}, "by": {}, "for": {}, "of": {}, "to": {},
	"with": {}, "from": {}, "as": {}, "it": {}, "its": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "he": {}, "she": {}, "they": {},
	"we": {}, "i": {}, "you": {}, "his": {}, "her": {}, "their": {},
	"our": {}, "my": {}, "your": {}, "there": {}, "here": {}, "when": {},
	"while": {}, "after": {}, "before": {}, "however": {}, "although": {},
	"because": {}, "since": {}, "so": {}, "not": {}, "no": {}, "yes": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"has": {}, "have": {}, "had": {}, "will": {}, "would": {}, "can": {},
	"could": {}, "should": {}, "may": {}, "might": {}, "must": {}, "do": {},
	"does": {}, "did": {}, "what": {}, "who": {}, "where": {}, "why": {},
	"how": {}, "which": {}, "all": {}, "some": {}, "many": {}, "more": {},
	"most": {}, "other": {}, "new": {}, "one": {}, "two": {}, "also": {},
	"now": {}, "then": {}, "than": {}, "into": {}, "over": {}, "under": {},
	"about": {}, "up": {}, "down": {}, "out": {}, "last": {}, "first": {},
}

// Tagger assigns coarse part-of-speech tags. Proper nouns are what the
// enrichment pipeline consumes; everything else only needs to be
// distinguishable from them.
type Tagger struct{}

// NewTagger returns a heuristic part-of-speech tagger.
func NewTagger() *Tagger {
	return &Tagger{}
}

// Tag tokenizes a sentence and tags each token. Capitalized words away
// from the sentence start tag NNP; capitalized sentence-initial words tag
// NNP only when they are not common function words.
func (t *Tagger) Tag(sentence string) []interfaces.TaggedToken {
	words := tokenizeWords(sentence)
	tokens := make([]interfaces.TaggedToken, 0, len(words))

	for i, word := range words {
		tokens = append(tokens, interfaces.TaggedToken{
			Word: word,
			Tag:  tagWord(word, i == 0),
		})
	}
	return tokens
}

func tagWord(word string, sentenceInitial bool) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return "SYM"
	}

	if isNumeric(word) {
		return "CD"
	}
	if !unicode.IsLetter(runes[0]) {
		return "SYM"
	}

	if unicode.IsUpper(runes[0]) {
		lower := strings.ToLower(word)
		if _, ok := functionWords[lower]; ok {
			if sentenceInitial {
				return "DT"
			}
			// Capitalized function word mid-sentence is likely part of a
			// name ("The Hague" won't reach here, but "Who" the band will).
			return "NNP"
		}
		return "NNP"
	}

	if _, ok := functionWords[strings.ToLower(word)]; ok {
		return "DT"
	}
	if strings.HasSuffix(word, "ly") {
		return "RB"
	}
	if strings.HasSuffix(word, "ing") || strings.HasSuffix(word, "ed") {
		return "VB"
	}
	return "NN"
}

func isNumeric(word string) bool {
	seen := false
	for _, r := range word {
		if unicode.IsDigit(r) {
			seen = true
			continue
		}
		if r != '.' && r != ',' && r != '-' {
			return false
		}
	}
	return seen
}

// tokenizeWords splits a sentence into word and punctuation tokens.
func tokenizeWords(sentence string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(sentence)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		case r == '\'' || r == '-' || r == '.':
			// Keep interior apostrophes, hyphens and decimal points.
			if current.Len() > 0 && i+1 < len(runes) &&
				(unicode.IsLetter(runes[i+1]) || unicode.IsDigit(runes[i+1])) {
				current.WriteRune(r)
			} else {
				flush()
			}
		default:
			flush()
		}
	}
	flush()
	return words
}
