package interfaces

import "github.com/Sentimentron/sentropy/internal/models"

// PhraseTrace is the classifier's verdict on one phrase.
type PhraseTrace struct {
	Text  string
	Label models.Label
	Score float64
	Prob  float64
}

// SentenceTrace is the classifier's verdict on one sentence, with its
// phrase-level breakdown.
type SentenceTrace struct {
	Text    string
	Label   models.Label
	Score   float64
	Prob    float64
	Phrases []PhraseTrace
}

// Classification is the classifier's document-level result.
type Classification struct {
	Label        models.Label
	Length       int
	Classified   int
	PosSentences int
	NegSentences int
	PosPhrases   int
	NegPhrases   int
	Trace        []SentenceTrace
}

// Classifier assigns sentiment to a document and traces its sentences and
// phrases. External collaborator; Sentropy does not train models.
type Classifier interface {
	Classify(text string) (*Classification, error)

	// Version identifies the classifier for software provenance.
	Version() string
}
