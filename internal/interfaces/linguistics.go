package interfaces

import (
	"time"

	"github.com/PuerkitoBio/goquery"
)

// TaggedToken is a word with its part-of-speech tag. Proper nouns carry
// the tag "NNP".
type TaggedToken struct {
	Word string
	Tag  string
}

// ScoredTerm is a noun-phrase term with its frequency and strength.
type ScoredTerm struct {
	Term  string
	Freq  int
	Score float64
}

// SentenceTokenizer splits text into sentences.
type SentenceTokenizer interface {
	Sentences(text string) []string
}

// Tagger tokenizes a sentence into words and tags each with its part of
// speech.
type Tagger interface {
	Tag(sentence string) []TaggedToken
}

// TermExtractor yields scored noun-phrase terms from cleaned text.
type TermExtractor interface {
	Terms(text string) []ScoredTerm
}

// LanguageIdentifier detects the language of a page body.
type LanguageIdentifier interface {
	// Identify returns an ISO 639-1 code and a certainty in [0,1].
	Identify(text string) (string, float64)
}

// DateCandidate is one interpretation of a mined date context.
type DateCandidate struct {
	Date      time.Time
	DayFirst  bool
	YearFirst bool
}

// DateContext is one date-bearing region of an HTML document. A context
// with a single candidate becomes a CertainDate; multiple candidates
// become one AmbiguousDate row each.
type DateContext struct {
	Dates    []DateCandidate
	Text     string
	Prep     string
	Position int
}

// DateMiner extracts date contexts from an HTML tree.
type DateMiner interface {
	Mine(doc *goquery.Document) map[string]DateContext

	// Version identifies the miner for software provenance.
	Version() string
}
