package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sentimentron/sentropy/internal/models"
)

func TestClassify_PositiveDocument(t *testing.T) {
	lex := New()
	result, err := lex.Classify("The team won a great victory. Fans celebrated the excellent result.")
	require.NoError(t, err)

	assert.Equal(t, models.LabelPositive, result.Label)
	assert.Equal(t, 2, result.Length)
	assert.Equal(t, 2, result.Classified)
	assert.Equal(t, 2, result.PosSentences)
	assert.Equal(t, 0, result.NegSentences)
	assert.Len(t, result.Trace, 2)
}

func TestClassify_NegativeDocument(t *testing.T) {
	lex := New()
	result, err := lex.Classify("The crisis caused terrible losses. Many victims died in the disaster.")
	require.NoError(t, err)

	assert.Equal(t, models.LabelNegative, result.Label)
	assert.Equal(t, 2, result.NegSentences)
	assert.GreaterOrEqual(t, result.NegPhrases, 2)
}

func TestClassify_NeutralSentencesAreCountedButNotClassified(t *testing.T) {
	lex := New()
	result, err := lex.Classify("The meeting is on Tuesday. Attendees will receive an agenda.")
	require.NoError(t, err)

	assert.Equal(t, models.LabelUnknown, result.Label)
	assert.Equal(t, 2, result.Length)
	assert.Equal(t, 0, result.Classified)
}

func TestClassify_NegationFlipsScore(t *testing.T) {
	lex := New()
	positive, err := lex.Classify("The results were good.")
	require.NoError(t, err)
	negated, err := lex.Classify("The results were not good.")
	require.NoError(t, err)

	assert.Equal(t, models.LabelPositive, positive.Label)
	assert.Equal(t, models.LabelNegative, negated.Label)
}

func TestClassify_PhraseBreakdown(t *testing.T) {
	lex := New()
	result, err := lex.Classify("Profits showed strong growth, but the debt crisis remains a threat.")
	require.NoError(t, err)

	require.Len(t, result.Trace, 1)
	trace := result.Trace[0]
	require.Len(t, trace.Phrases, 2)
	assert.Equal(t, models.LabelPositive, trace.Phrases[0].Label)
	assert.Equal(t, models.LabelNegative, trace.Phrases[1].Label)
}

func TestClassify_ScoresWithinBounds(t *testing.T) {
	lex := New()
	result, err := lex.Classify("Terrible awful disaster. Excellent outstanding triumph.")
	require.NoError(t, err)

	for _, sentence := range result.Trace {
		assert.GreaterOrEqual(t, sentence.Score, -1.0)
		assert.LessOrEqual(t, sentence.Score, 1.0)
		assert.GreaterOrEqual(t, sentence.Prob, 0.0)
		assert.LessOrEqual(t, sentence.Prob, 1.0)
		for _, phrase := range sentence.Phrases {
			assert.GreaterOrEqual(t, phrase.Score, -1.0)
			assert.LessOrEqual(t, phrase.Score, 1.0)
			assert.LessOrEqual(t, phrase.Prob, 0.95)
		}
	}
}

func TestVersion(t *testing.T) {
	assert.Contains(t, New().Version(), "sentropy-sen/")
}
