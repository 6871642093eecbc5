package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
)

func newTestCache(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(t.TempDir(), arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestKeywordRoundTrip(t *testing.T) {
	svc := newTestCache(t)
	ctx := context.Background()

	_, ok, err := svc.GetKeywordID(ctx, "science")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.PutKeywordID(ctx, "science", 17))

	id, ok, err := svc.GetKeywordID(ctx, "science")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(17), id)
}

func TestDomainRoundTrip(t *testing.T) {
	svc := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.PutDomainID(ctx, "example.com", 3))

	id, ok, err := svc.GetDomainID(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}

func TestKeywordAndDomainNamespacesAreDisjoint(t *testing.T) {
	svc := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.PutKeywordID(ctx, "example.com", 9))

	_, ok, err := svc.GetDomainID(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	svc := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.PutKeywordID(ctx, "science", 1))
	require.NoError(t, svc.PutKeywordID(ctx, "science", 2))

	id, ok, err := svc.GetKeywordID(ctx, "science")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)
}

// fakeKeywordStore implements just enough of the keyword storage surface
// for warming.
type fakeKeywordStore struct {
	keywords []*models.Keyword
}

func (f *fakeKeywordStore) UpsertWords(ctx context.Context, words []string) error { return nil }
func (f *fakeKeywordStore) ResolveWord(ctx context.Context, word string) (int64, error) {
	return 0, nil
}
func (f *fakeKeywordStore) GetKeyword(ctx context.Context, id int64) (*models.Keyword, error) {
	return nil, nil
}
func (f *fakeKeywordStore) FindWordsLike(ctx context.Context, pattern string) ([]*models.Keyword, error) {
	return nil, nil
}
func (f *fakeKeywordStore) EachKeyword(ctx context.Context, fn func(*models.Keyword) error) error {
	for _, k := range f.keywords {
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

func TestWarmKeywords(t *testing.T) {
	svc := newTestCache(t)
	ctx := context.Background()

	store := &fakeKeywordStore{keywords: []*models.Keyword{
		{ID: 1, Word: "science"},
		{ID: 2, Word: "politics"},
	}}

	count, err := svc.WarmKeywords(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	id, ok, err := svc.GetKeywordID(ctx, "politics")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)
}
