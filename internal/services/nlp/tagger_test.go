package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag_ProperNouns(t *testing.T) {
	tagger := NewTagger()
	tokens := tagger.Tag("Barack Obama visited London")

	require.Len(t, tokens, 4)
	assert.Equal(t, "NNP", tokens[0].Tag)
	assert.Equal(t, "NNP", tokens[1].Tag)
	assert.Equal(t, "VB", tokens[2].Tag) // "visited" ends in "ed"
	assert.Equal(t, "NNP", tokens[3].Tag)
}

func TestTag_SentenceInitialFunctionWord(t *testing.T) {
	tagger := NewTagger()
	tokens := tagger.Tag("The cat sat")

	require.Len(t, tokens, 3)
	assert.Equal(t, "DT", tokens[0].Tag)
	assert.Equal(t, "NN", tokens[1].Tag)
	assert.Equal(t, "NN", tokens[2].Tag)
}

func TestTag_MidSentenceCapitalizedFunctionWordIsName(t *testing.T) {
	tagger := NewTagger()
	tokens := tagger.Tag("guitarist of The Who")

	require.Len(t, tokens, 4)
	assert.Equal(t, "NNP", tokens[2].Tag)
	assert.Equal(t, "NNP", tokens[3].Tag)
}

func TestTag_Numbers(t *testing.T) {
	tagger := NewTagger()
	tokens := tagger.Tag("profits fell 3.5 percent in 2008")

	var tags []string
	for _, tok := range tokens {
		tags = append(tags, tok.Tag)
	}
	assert.Contains(t, tags, "CD")
	assert.Equal(t, "CD", tokens[2].Tag)
	assert.Equal(t, "CD", tokens[5].Tag)
}

func TestTag_Suffixes(t *testing.T) {
	tagger := NewTagger()
	tokens := tagger.Tag("markets moved quickly during trading")

	require.Len(t, tokens, 5)
	assert.Equal(t, "NN", tokens[0].Tag)
	assert.Equal(t, "VB", tokens[1].Tag)
	assert.Equal(t, "RB", tokens[2].Tag)
	assert.Equal(t, "VB", tokens[4].Tag)
}

func TestTokenizeWords_KeepsInteriorMarks(t *testing.T) {
	words := tokenizeWords("O'Brien's co-worker said 3.5, then left.")
	assert.Contains(t, words, "O'Brien's")
	assert.Contains(t, words, "co-worker")
	assert.Contains(t, words, "3.5")
	// Trailing punctuation is not glued to the word.
	assert.Contains(t, words, "left")
	assert.NotContains(t, words, "left.")
}
