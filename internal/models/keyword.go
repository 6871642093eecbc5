package models

import (
	"fmt"
	"strings"
)

// MaxKeywordLength bounds the length of an interned keyword word.
const MaxKeywordLength = 32

// Keyword is a globally interned word or short term.
type Keyword struct {
	ID   int64  `json:"id"`
	Word string `json:"word"`
}

// ValidateKeywordWord enforces the keyword constraints: 1..32 characters,
// each in [A-Za-z0-9 .], with no consecutive dots. Violating words are
// dropped by callers rather than failing the enclosing document.
func ValidateKeywordWord(word string) error {
	if len(word) == 0 {
		return fmt.Errorf("keyword is empty")
	}
	if len(word) > MaxKeywordLength {
		return fmt.Errorf("keyword %q exceeds %d characters", word, MaxKeywordLength)
	}
	for _, r := range word {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == ' ' || r == '.':
		default:
			return fmt.Errorf("keyword %q contains invalid character %q", word, r)
		}
	}
	if strings.Contains(word, "..") {
		return fmt.Errorf("keyword %q contains consecutive dots", word)
	}
	return nil
}

// NewKeyword constructs a keyword after trimming and validating the word.
func NewKeyword(word string) (*Keyword, error) {
	word = strings.TrimSpace(word)
	if err := ValidateKeywordWord(word); err != nil {
		return nil, err
	}
	return &Keyword{Word: word}, nil
}

// KeywordIncidence links a keyword to a phrase whose text contains it.
type KeywordIncidence struct {
	KeywordID int64 `json:"keyword_id"`
	PhraseID  int64 `json:"phrase_id"`
}

// KeywordAdjacency is an ordered pair of consecutive proper-noun keywords
// within one document. Key2 is zero when the run had a single token.
type KeywordAdjacency struct {
	ID         int64 `json:"id"`
	DocumentID int64 `json:"document_id"`
	Key1ID     int64 `json:"key1_id"`
	Key2ID     int64 `json:"key2_id"`
}
