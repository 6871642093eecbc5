package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	for _, valid := range []string{"Positive", "Unknown", "Negative"} {
		label, err := ParseLabel(valid)
		require.NoError(t, err)
		assert.Equal(t, Label(valid), label)
	}

	_, err := ParseLabel("positive")
	assert.Error(t, err)
	_, err = ParseLabel("")
	assert.Error(t, err)
}

func TestLabel_Polarity(t *testing.T) {
	assert.Equal(t, 1, LabelPositive.Polarity())
	assert.Equal(t, -1, LabelNegative.Polarity())
	assert.Equal(t, 0, LabelUnknown.Polarity())
}

func TestNormalizeSentenceLevel(t *testing.T) {
	assert.Equal(t, LevelH1, NormalizeSentenceLevel("H1"))
	assert.Equal(t, LevelP, NormalizeSentenceLevel("P"))
	assert.Equal(t, LevelUnknown, NormalizeSentenceLevel("Unknown"))
	assert.Equal(t, LevelOther, NormalizeSentenceLevel("DIV"))
	assert.Equal(t, LevelOther, NormalizeSentenceLevel("SPAN"))
	assert.Equal(t, LevelOther, NormalizeSentenceLevel(""))
}

func TestDateMethod_Code(t *testing.T) {
	assert.Equal(t, 0, DateMethodCertain.Code())
	assert.Equal(t, 1, DateMethodUncertain.Code())
	assert.Equal(t, 2, DateMethodCrawled.Code())
	assert.Equal(t, -1, DateMethod("bogus").Code())
}
