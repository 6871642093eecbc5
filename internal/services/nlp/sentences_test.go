package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentences_SimpleSplit(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Sentences("The cat sat. The dog barked! Did it rain?")
	assert.Equal(t, []string{
		"The cat sat.",
		"The dog barked!",
		"Did it rain?",
	}, got)
}

func TestSentences_HoldsBackAbbreviations(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Sentences("Dr. Smith arrived. Mr. Jones left.")
	assert.Equal(t, []string{
		"Dr. Smith arrived.",
		"Mr. Jones left.",
	}, got)
}

func TestSentences_HoldsBackInitials(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Sentences("J. K. Rowling wrote it. It sold well.")
	assert.Equal(t, []string{
		"J. K. Rowling wrote it.",
		"It sold well.",
	}, got)
}

func TestSentences_HoldsBackDecimals(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Sentences("Shares rose 3.5 percent today. Analysts cheered.")
	assert.Equal(t, []string{
		"Shares rose 3.5 percent today.",
		"Analysts cheered.",
	}, got)
}

func TestSentences_ConsumesTrailingPunctuation(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Sentences(`"Really?!" she asked. He nodded...`)
	assert.Equal(t, []string{
		`"Really?!"`,
		"she asked.",
		"He nodded...",
	}, got)
}

func TestSentences_NoTerminalPunctuation(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Sentences("a headline without a full stop")
	assert.Equal(t, []string{"a headline without a full stop"}, got)
}

func TestSentences_Empty(t *testing.T) {
	tok := NewTokenizer()
	assert.Empty(t, tok.Sentences(""))
	assert.Empty(t, tok.Sentences("   "))
}
