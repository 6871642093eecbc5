package nlp

import (
	"strings"
	"unicode"
)

// abbreviations that end with a period but do not end a sentence.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {},
	"st": {}, "vs": {}, "etc": {}, "inc": {}, "ltd": {}, "co": {}, "corp": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "jun": {}, "jul": {},
	"aug": {}, "sep": {}, "sept": {}, "oct": {}, "nov": {}, "dec": {},
	"no": {}, "gen": {}, "sen": {}, "gov": {}, "rep": {}, "capt": {},
}

// Tokenizer splits plain text into sentences on terminal punctuation,
// holding back common abbreviations and decimal numbers.
type Tokenizer struct{}

// NewTokenizer returns a sentence tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Sentences splits text into trimmed, non-empty sentences.
func (t *Tokenizer) Sentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		if r == '.' {
			if isAbbreviation(runes, start, i) || isDecimalPoint(runes, i) {
				continue
			}
		}

		// Consume trailing punctuation like ?!" or ...
		end := i + 1
		for end < len(runes) && (runes[end] == '.' || runes[end] == '!' ||
			runes[end] == '?' || runes[end] == '"' || runes[end] == '\'') {
			end++
		}

		// A sentence boundary needs following whitespace or end of text.
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			i = end - 1
			continue
		}

		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, s)
		}
		start = end
		i = end - 1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isAbbreviation(runes []rune, start, dot int) bool {
	wordStart := dot
	for wordStart > start && (unicode.IsLetter(runes[wordStart-1])) {
		wordStart--
	}
	if wordStart == dot {
		return false
	}
	word := strings.ToLower(string(runes[wordStart:dot]))
	if _, ok := abbreviations[word]; ok {
		return true
	}
	// Single-letter initials like "J."
	return dot-wordStart == 1
}

func isDecimalPoint(runes []rune, dot int) bool {
	return dot > 0 && dot+1 < len(runes) &&
		unicode.IsDigit(runes[dot-1]) && unicode.IsDigit(runes[dot+1])
}
