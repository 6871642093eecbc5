package classifier

import (
	"math"
	"strings"
	"unicode"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
	"github.com/Sentimentron/sentropy/internal/models"
	"github.com/Sentimentron/sentropy/internal/services/nlp"
)

var positiveWords = map[string]float64{
	"good": 0.5, "great": 0.8, "excellent": 0.9, "best": 0.8, "better": 0.4,
	"success": 0.6, "successful": 0.6, "win": 0.6, "won": 0.6, "wins": 0.6,
	"happy": 0.7, "love": 0.8, "loved": 0.8, "strong": 0.4, "growth": 0.5,
	"improve": 0.5, "improved": 0.5, "improvement": 0.5, "gain": 0.5,
	"gains": 0.5, "boost": 0.5, "benefit": 0.5, "positive": 0.6,
	"praise": 0.6, "praised": 0.6, "support": 0.3, "hope": 0.4,
	"hopeful": 0.5, "promising": 0.6, "remarkable": 0.6, "outstanding": 0.8,
	"popular": 0.4, "celebrate": 0.6, "celebrated": 0.6, "triumph": 0.8,
	"record": 0.2, "safe": 0.4, "progress": 0.5, "agreement": 0.3,
	"peace": 0.5, "recovery": 0.5, "advance": 0.4, "thriving": 0.7,
}

var negativeWords = map[string]float64{
	"bad": 0.5, "worst": 0.8, "worse": 0.5, "terrible": 0.8, "awful": 0.8,
	"fail": 0.6, "failed": 0.6, "failure": 0.7, "lose": 0.5, "lost": 0.5,
	"loss": 0.5, "losses": 0.5, "crisis": 0.7, "disaster": 0.8,
	"death": 0.7, "dead": 0.7, "died": 0.7, "kill": 0.8, "killed": 0.8,
	"war": 0.6, "attack": 0.6, "attacked": 0.6, "threat": 0.5,
	"fear": 0.5, "afraid": 0.5, "angry": 0.6, "anger": 0.6, "hate": 0.8,
	"decline": 0.5, "drop": 0.4, "fell": 0.4, "fall": 0.4, "cut": 0.3,
	"weak": 0.4, "poor": 0.5, "negative": 0.6, "problem": 0.4,
	"problems": 0.4, "wrong": 0.5, "fraud": 0.7, "scandal": 0.7,
	"corruption": 0.7, "collapse": 0.7, "damage": 0.5, "injured": 0.6,
	"victim": 0.5, "victims": 0.5, "warning": 0.4, "risk": 0.4,
	"accident": 0.5, "emergency": 0.5, "recession": 0.7, "debt": 0.4,
}

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nobody": {},
	"nothing": {}, "neither": {}, "nor": {}, "cannot": {}, "without": {},
}

// Lexicon scores sentiment from fixed word lists. Sentences break into
// comma-delimited phrases; phrase scores aggregate upward with simple
// negation flipping.
type Lexicon struct {
	tokenizer *nlp.Tokenizer
}

// New returns the lexicon classifier.
func New() *Lexicon {
	return &Lexicon{tokenizer: nlp.NewTokenizer()}
}

// Version identifies the classifier for software provenance.
func (l *Lexicon) Version() string {
	return "sentropy-sen/" + common.GetVersion()
}

// Classify scores a document. Length counts sentences; Classified counts
// sentences that carried any scored word.
func (l *Lexicon) Classify(text string) (*interfaces.Classification, error) {
	result := &interfaces.Classification{}
	var docScore float64

	for _, sentence := range l.tokenizer.Sentences(text) {
		trace := l.classifySentence(sentence)
		result.Length++
		result.Trace = append(result.Trace, trace)

		if trace.Label == models.LabelUnknown && trace.Score == 0 {
			continue
		}
		result.Classified++
		docScore += trace.Score

		switch trace.Label {
		case models.LabelPositive:
			result.PosSentences++
		case models.LabelNegative:
			result.NegSentences++
		}
		for _, p := range trace.Phrases {
			switch p.Label {
			case models.LabelPositive:
				result.PosPhrases++
			case models.LabelNegative:
				result.NegPhrases++
			}
		}
	}

	result.Label = labelFor(docScore)
	return result, nil
}

func (l *Lexicon) classifySentence(sentence string) interfaces.SentenceTrace {
	trace := interfaces.SentenceTrace{Text: sentence}
	var total float64
	scored := 0

	for _, phrase := range splitPhrases(sentence) {
		p := scorePhrase(phrase)
		trace.Phrases = append(trace.Phrases, p)
		if p.Score != 0 {
			total += p.Score
			scored++
		}
	}

	if scored > 0 {
		trace.Score = clamp(total / float64(scored))
		trace.Prob = confidence(trace.Score, scored)
	}
	trace.Label = labelFor(trace.Score)
	return trace
}

func scorePhrase(phrase string) interfaces.PhraseTrace {
	trace := interfaces.PhraseTrace{Text: phrase}
	var total float64
	hits := 0
	negated := false

	for _, word := range strings.FieldsFunc(phrase, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	}) {
		lower := strings.ToLower(word)
		if _, ok := negators[lower]; ok {
			negated = true
			continue
		}

		var score float64
		if s, ok := positiveWords[lower]; ok {
			score = s
		} else if s, ok := negativeWords[lower]; ok {
			score = -s
		} else {
			continue
		}

		if negated {
			score = -score
			negated = false
		}
		total += score
		hits++
	}

	if hits > 0 {
		trace.Score = clamp(total / float64(hits))
		trace.Prob = confidence(trace.Score, hits)
	}
	trace.Label = labelFor(trace.Score)
	return trace
}

// splitPhrases cuts a sentence on clause punctuation.
func splitPhrases(sentence string) []string {
	parts := strings.FieldsFunc(sentence, func(r rune) bool {
		return r == ',' || r == ';' || r == ':' || r == '(' || r == ')'
	})
	var phrases []string
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			phrases = append(phrases, p)
		}
	}
	if len(phrases) == 0 {
		phrases = []string{strings.TrimSpace(sentence)}
	}
	return phrases
}

func labelFor(score float64) models.Label {
	switch {
	case score > 0.05:
		return models.LabelPositive
	case score < -0.05:
		return models.LabelNegative
	default:
		return models.LabelUnknown
	}
}

func clamp(score float64) float64 {
	return math.Max(-1, math.Min(1, score))
}

// confidence grows with score magnitude and evidence count, capped below
// certainty.
func confidence(score float64, hits int) float64 {
	c := math.Abs(score) * (1 - 1/float64(hits+1)) * 1.5
	return math.Min(0.95, c)
}
