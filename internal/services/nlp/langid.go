package nlp

import (
	"strings"
	"unicode"
)

// high-frequency English words used as a language fingerprint.
var englishMarkers = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "a": {}, "is": {},
	"that": {}, "it": {}, "was": {}, "for": {}, "on": {}, "are": {},
	"with": {}, "as": {}, "his": {}, "they": {}, "at": {}, "be": {},
	"this": {}, "have": {}, "from": {}, "or": {}, "had": {}, "by": {},
	"not": {}, "but": {}, "what": {}, "were": {}, "we": {}, "when": {},
	"your": {}, "said": {}, "there": {}, "an": {}, "which": {}, "she": {},
	"do": {}, "how": {}, "their": {}, "if": {}, "will": {}, "about": {},
	"out": {}, "many": {}, "then": {}, "them": {}, "these": {}, "so": {},
	"some": {}, "her": {}, "would": {}, "into": {}, "has": {}, "more": {},
}

// Identifier detects whether a page body is English by measuring the
// share of high-frequency English function words among its tokens.
type Identifier struct {
	// threshold is the marker share above which text counts as English.
	threshold float64
}

// NewIdentifier returns a language identifier tuned for news-length text.
func NewIdentifier() *Identifier {
	return &Identifier{threshold: 0.12}
}

// Identify returns an ISO 639-1 code and a certainty in [0,1]. Short or
// marker-poor text returns "und" with low certainty.
func (d *Identifier) Identify(text string) (string, float64) {
	total := 0
	markers := 0

	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		total++
		if _, ok := englishMarkers[strings.ToLower(field)]; ok {
			markers++
		}
	}

	if total < 20 {
		return "und", 0.0
	}

	share := float64(markers) / float64(total)
	certainty := share / d.threshold
	if certainty > 1.0 {
		certainty = 1.0
	}

	if share >= d.threshold {
		return "en", certainty
	}
	return "und", certainty
}
