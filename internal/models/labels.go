// Package models defines the entities of the Sentropy data model.
package models

import "fmt"

// Label is a sentiment classification outcome.
type Label string

const (
	LabelPositive Label = "Positive"
	LabelUnknown  Label = "Unknown"
	LabelNegative Label = "Negative"
)

// ParseLabel validates a label string.
func ParseLabel(s string) (Label, error) {
	switch Label(s) {
	case LabelPositive, LabelUnknown, LabelNegative:
		return Label(s), nil
	}
	return "", fmt.Errorf("invalid label %q", s)
}

// Polarity presents a label as {-1, 0, +1} for external output.
func (l Label) Polarity() int {
	switch l {
	case LabelPositive:
		return 1
	case LabelNegative:
		return -1
	}
	return 0
}

// SentenceLevel records the HTML element a sentence was found under.
type SentenceLevel string

const (
	LevelH1      SentenceLevel = "H1"
	LevelH2      SentenceLevel = "H2"
	LevelH3      SentenceLevel = "H3"
	LevelH4      SentenceLevel = "H4"
	LevelH5      SentenceLevel = "H5"
	LevelH6      SentenceLevel = "H6"
	LevelP       SentenceLevel = "P"
	LevelOther   SentenceLevel = "Other"
	LevelUnknown SentenceLevel = "Unknown"
)

// NormalizeSentenceLevel maps an HTML element name onto a sentence level.
// Anything outside the known set becomes Other.
func NormalizeSentenceLevel(element string) SentenceLevel {
	switch SentenceLevel(element) {
	case LevelH1, LevelH2, LevelH3, LevelH4, LevelH5, LevelH6, LevelP, LevelUnknown:
		return SentenceLevel(element)
	}
	return LevelOther
}
