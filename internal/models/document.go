package models

import "fmt"

// Document is the enriched output for a successfully processed article.
type Document struct {
	ID           int64  `json:"id"`
	ArticleID    int64  `json:"article_id"`
	Label        Label  `json:"label"`
	Length       int    `json:"length"`
	Headline     string `json:"headline"`
	PosSentences int    `json:"pos_sentences"`
	NegSentences int    `json:"neg_sentences"`
	PosPhrases   int    `json:"pos_phrases"`
	NegPhrases   int    `json:"neg_phrases"`
}

// Sentence is one classified sentence within a document.
type Sentence struct {
	ID         int64         `json:"id"`
	DocumentID int64         `json:"document_id"`
	Label      Label         `json:"label"`
	Score      float64       `json:"score"`
	Prob       float64       `json:"prob"`
	Level      SentenceLevel `json:"level"`
}

// NewSentence validates score and probability ranges on construction.
func NewSentence(label Label, score, prob float64, level SentenceLevel) (*Sentence, error) {
	if err := checkScoreProb(score, prob); err != nil {
		return nil, fmt.Errorf("sentence: %w", err)
	}
	return &Sentence{Label: label, Score: score, Prob: prob, Level: level}, nil
}

// Phrase is one classified phrase within a sentence.
type Phrase struct {
	ID         int64   `json:"id"`
	SentenceID int64   `json:"sentence_id"`
	Label      Label   `json:"label"`
	Score      float64 `json:"score"`
	Prob       float64 `json:"prob"`
}

// NewPhrase validates score and probability ranges on construction.
func NewPhrase(label Label, score, prob float64) (*Phrase, error) {
	if err := checkScoreProb(score, prob); err != nil {
		return nil, fmt.Errorf("phrase: %w", err)
	}
	return &Phrase{Label: label, Score: score, Prob: prob}, nil
}

func checkScoreProb(score, prob float64) error {
	if score < -1 || score > 1 {
		return fmt.Errorf("score %f outside [-1,1]", score)
	}
	if prob < 0 || prob > 1 {
		return fmt.Errorf("prob %f outside [0,1]", prob)
	}
	return nil
}
