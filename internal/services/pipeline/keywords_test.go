package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sentimentron/sentropy/internal/common"
)

func TestKeywordSet_AddAndLimit(t *testing.T) {
	kset := NewKeywordSet(common.StopList{}, 2)

	added, err := kset.Add("science")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = kset.Add("politics")
	require.NoError(t, err)
	assert.True(t, added)

	_, err = kset.Add("economics")
	assert.Error(t, err)
	assert.Equal(t, 2, kset.Len())
	assert.Equal(t, []string{"science", "politics"}, kset.Words())
}

func TestKeywordSet_StopListedTermsDoNotConsumeCapacity(t *testing.T) {
	stop := common.StopList{"the": {}, "and": {}}
	kset := NewKeywordSet(stop, 1)

	added, err := kset.Add("the")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 0, kset.Len())

	added, err = kset.Add("science")
	require.NoError(t, err)
	assert.True(t, added)
}

func TestKeywordSet_DuplicatesAndBlanks(t *testing.T) {
	kset := NewKeywordSet(common.StopList{}, 10)

	added, err := kset.Add("  science  ")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = kset.Add("science")
	require.NoError(t, err)
	assert.False(t, added)

	added, err = kset.Add("   ")
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, []string{"science"}, kset.Words())
}
