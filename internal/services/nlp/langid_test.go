package nlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentify_English(t *testing.T) {
	ident := NewIdentifier()
	text := "The quick brown fox jumped over the lazy dog and then it ran " +
		"into the woods because it was chased by the farmer and his dogs."

	lang, certainty := ident.Identify(text)
	assert.Equal(t, "en", lang)
	assert.Greater(t, certainty, 0.5)
	assert.LessOrEqual(t, certainty, 1.0)
}

func TestIdentify_NonEnglish(t *testing.T) {
	ident := NewIdentifier()
	text := "El rapido zorro marron salto sobre el perro perezoso mientras " +
		"corria hacia el bosque porque lo perseguian el granjero y sus perros."

	lang, _ := ident.Identify(text)
	assert.Equal(t, "und", lang)
}

func TestIdentify_TooShort(t *testing.T) {
	ident := NewIdentifier()
	lang, certainty := ident.Identify("the cat sat on the mat")
	assert.Equal(t, "und", lang)
	assert.Equal(t, 0.0, certainty)
}

func TestIdentify_MarkupHeavyText(t *testing.T) {
	ident := NewIdentifier()
	// Letters only; digits and punctuation never count as tokens.
	text := strings.Repeat("the value is 42 and the result was good ", 5)
	lang, _ := ident.Identify(text)
	assert.Equal(t, "en", lang)
}
