package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKeywordWord(t *testing.T) {
	assert.NoError(t, ValidateKeywordWord("science"))
	assert.NoError(t, ValidateKeywordWord("Barack Obama"))
	assert.NoError(t, ValidateKeywordWord("web2.0"))
	assert.NoError(t, ValidateKeywordWord(strings.Repeat("a", 32)))

	assert.Error(t, ValidateKeywordWord(""))
	assert.Error(t, ValidateKeywordWord(strings.Repeat("a", 33)))
	assert.Error(t, ValidateKeywordWord("bad..dots"))
	assert.Error(t, ValidateKeywordWord("comma,"))
	assert.Error(t, ValidateKeywordWord("café"))
}

func TestNewKeyword_TrimsBeforeValidating(t *testing.T) {
	k, err := NewKeyword("  science  ")
	require.NoError(t, err)
	assert.Equal(t, "science", k.Word)

	_, err = NewKeyword("   ")
	assert.Error(t, err)
}
