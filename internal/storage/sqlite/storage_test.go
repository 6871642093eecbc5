package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	config := &common.StorageConfig{
		SQLitePath:    filepath.Join(dir, "test.db"),
		QueuePath:     filepath.Join(dir, "queues.db"),
		CachePath:     filepath.Join(dir, "cache"),
		ObjectRoot:    filepath.Join(dir, "objects"),
		BusyTimeoutMS: 1000,
	}
	m, err := NewManager(arbor.NewLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

// newTestCrawl interns a source and registers one archive under it.
func newTestCrawl(t *testing.T, m *Manager) (sourceID, crawlID int64) {
	t.Helper()
	ctx := context.Background()
	src, err := m.Crawls().GetOrCreateSource(ctx, "cs.example.org")
	require.NoError(t, err)
	id, err := m.Crawls().InsertCrawlFile(ctx, src.ID, "archive-001.db.xz", models.CrawlKindSQL)
	require.NoError(t, err)
	return src.ID, id
}

func TestCrawlStorage_GetOrCreateSourceIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.Crawls().GetOrCreateSource(ctx, "cs.example.org")
	require.NoError(t, err)
	second, err := m.Crawls().GetOrCreateSource(ctx, "cs.example.org")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	loaded, err := m.Crawls().GetSource(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "cs.example.org", loaded.Key)
}

func TestCrawlStorage_GetSourceMissing(t *testing.T) {
	m := newTestManager(t)
	src, err := m.Crawls().GetSource(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestCrawlStorage_FileLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, crawlID := newTestCrawl(t, m)

	cf, err := m.Crawls().GetCrawlFile(ctx, crawlID)
	require.NoError(t, err)
	require.NotNil(t, cf)
	assert.Equal(t, models.CrawlIncomplete, cf.Status)
	assert.Equal(t, models.CrawlKindSQL, cf.Kind)

	require.NoError(t, m.Crawls().SetCrawlFileStatus(ctx, crawlID, models.CrawlComplete))
	cf, err = m.Crawls().GetCrawlFile(ctx, crawlID)
	require.NoError(t, err)
	assert.Equal(t, models.CrawlComplete, cf.Status)
}

func TestCrawlStorage_Deduplicate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	src, err := m.Crawls().GetOrCreateSource(ctx, "cs.example.org")
	require.NoError(t, err)

	first, err := m.Crawls().InsertCrawlFile(ctx, src.ID, "dup.db.xz", models.CrawlKindSQL)
	require.NoError(t, err)
	_, err = m.Crawls().InsertCrawlFile(ctx, src.ID, "dup.db.xz", models.CrawlKindSQL)
	require.NoError(t, err)

	removed, err := m.Crawls().DeduplicateCrawlFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// The lowest id survives.
	cf, err := m.Crawls().GetCrawlFile(ctx, first)
	require.NoError(t, err)
	assert.NotNil(t, cf)
}

func TestCrawlStorage_ListIncomplete(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, first := newTestCrawl(t, m)
	src, _ := m.Crawls().GetOrCreateSource(ctx, "cs.example.org")
	second, err := m.Crawls().InsertCrawlFile(ctx, src.ID, "archive-002.db.xz", models.CrawlKindSQL)
	require.NoError(t, err)
	require.NoError(t, m.Crawls().SetCrawlFileStatus(ctx, first, models.CrawlComplete))

	ids, err := m.Crawls().ListIncompleteCrawlFileIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{second}, ids)
}

func TestRawArticleStorage_InsertAndFind(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, crawlID := newTestCrawl(t, m)

	crawled := time.Date(2008, time.March, 10, 12, 0, 0, 0, time.UTC)
	raw := &models.RawArticle{
		CrawlID:     crawlID,
		URL:         "http://example.com/story",
		ContentType: "text/html",
		DateCrawled: crawled,
		Headers:     "Content-Type: text/html",
		Body:        []byte("<html><body>hello</body></html>"),
	}
	id, err := m.RawArticles().InsertRawArticle(ctx, raw)
	require.NoError(t, err)
	require.NotZero(t, id)

	found, err := m.RawArticles().FindRawArticle(ctx, crawlID, "http://example.com/story", crawled)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)
	assert.Equal(t, crawled, found.DateCrawled)
	assert.Equal(t, raw.Body, found.Body)

	missing, err := m.RawArticles().FindRawArticle(ctx, crawlID, "http://example.com/other", crawled)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRawArticleStorage_ResultUpsert(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, crawlID := newTestCrawl(t, m)

	raw := &models.RawArticle{CrawlID: crawlID, URL: "http://example.com/a", ContentType: "text/html", DateCrawled: time.Now()}
	id, err := m.RawArticles().InsertRawArticle(ctx, raw)
	require.NoError(t, err)

	result, err := m.RawArticles().GetResult(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, result)

	require.NoError(t, m.RawArticles().SaveResult(ctx, id, models.RawError))
	result, err = m.RawArticles().GetResult(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.RawError, result.Status)

	// Upsert replaces, never duplicates.
	require.NoError(t, m.RawArticles().SaveResult(ctx, id, models.RawProcessed))
	result, err = m.RawArticles().GetResult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RawProcessed, result.Status)
}

func TestRawArticleStorage_ListUnprocessed(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, crawlID := newTestCrawl(t, m)

	var ids []int64
	for _, url := range []string{"http://example.com/1", "http://example.com/2", "http://example.com/3"} {
		id, err := m.RawArticles().InsertRawArticle(ctx,
			&models.RawArticle{CrawlID: crawlID, URL: url, ContentType: "text/html", DateCrawled: time.Now()})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, m.RawArticles().SaveResult(ctx, ids[0], models.RawProcessed))
	require.NoError(t, m.RawArticles().SaveResult(ctx, ids[1], models.RawUnprocessed))

	unprocessed, err := m.RawArticles().ListUnprocessedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1], ids[2]}, unprocessed)
}

func TestDomainStorage_InsertIgnoreAndLookup(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	seen := time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Domains().InsertDomainIgnore(ctx, "example.com", seen))
	require.NoError(t, m.Domains().InsertDomainIgnore(ctx, "example.com", seen.Add(time.Hour)))

	d, err := m.Domains().GetDomainByKey(ctx, "example.com")
	require.NoError(t, err)
	require.NotNil(t, d)
	// First insert wins.
	assert.Equal(t, seen, d.FirstSeen)

	byID, err := m.Domains().GetDomain(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "example.com", byID.Key)

	missing, err := m.Domains().GetDomainByKey(ctx, "absent.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDomainStorage_FindDomainsLike(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	now := time.Now()
	for _, key := range []string{"bbc.co.uk", "news.bbc.co.uk", "example.com"} {
		require.NoError(t, m.Domains().InsertDomainIgnore(ctx, key, now))
	}

	matched, err := m.Domains().FindDomainsLike(ctx, "%.bbc.co.uk")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "news.bbc.co.uk", matched[0].Key)
}

func TestKeywordStorage_UpsertAndResolve(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Keywords().UpsertWords(ctx, []string{"science", "space", "science"}))

	id, err := m.Keywords().ResolveWord(ctx, "science")
	require.NoError(t, err)
	require.NotZero(t, id)

	kw, err := m.Keywords().GetKeyword(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, kw)
	assert.Equal(t, "science", kw.Word)

	absent, err := m.Keywords().ResolveWord(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Zero(t, absent)
}

func TestKeywordStorage_FindWordsLike(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Keywords().UpsertWords(ctx, []string{"science", "climate science", "politics"}))

	matched, err := m.Keywords().FindWordsLike(ctx, "% science")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "climate science", matched[0].Word)
}

func TestKeywordStorage_EachKeyword(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Keywords().UpsertWords(ctx, []string{"one", "two", "three"}))

	var words []string
	err := m.Keywords().EachKeyword(ctx, func(k *models.Keyword) error {
		words = append(words, k.Word)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, words, 3)
}

func TestProvenanceStorage_GetOrCreateVersion(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.Provenance().GetOrCreateVersion(ctx, "sentropy-pipeline/0.9.0")
	require.NoError(t, err)
	second, err := m.Provenance().GetOrCreateVersion(ctx, "sentropy-pipeline/0.9.0")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := m.Provenance().GetOrCreateVersion(ctx, "sentropy-dates/0.9.0")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestUserQueryStorage_Lifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	uq, err := m.Queries().GetOrCreateQuery(ctx, "science bbc.co.uk", "user@example.com")
	require.NoError(t, err)
	require.NotZero(t, uq.ID)
	assert.Nil(t, uq.FulfilledAt)
	assert.False(t, uq.Cancelled)

	// Resubmitting the same text returns the existing row.
	again, err := m.Queries().GetOrCreateQuery(ctx, "science bbc.co.uk", "")
	require.NoError(t, err)
	assert.Equal(t, uq.ID, again.ID)
	assert.Equal(t, "user@example.com", again.Email)

	fulfilled := time.Date(2009, time.June, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, m.Queries().MarkFulfilled(ctx, uq.ID, fulfilled))

	loaded, err := m.Queries().GetQuery(ctx, uq.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.FulfilledAt)
	assert.Equal(t, fulfilled, loaded.FulfilledAt.UTC())
}

func TestUserQueryStorage_SetMessage(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	uq, err := m.Queries().GetOrCreateQuery(ctx, "broken query", "")
	require.NoError(t, err)

	require.NoError(t, m.Queries().SetMessage(ctx, uq.ID, "no documents matched", true))
	loaded, err := m.Queries().GetQuery(ctx, uq.ID)
	require.NoError(t, err)
	assert.Equal(t, "no documents matched", loaded.Message)
	assert.True(t, loaded.Cancelled)
}

func TestUserQueryStorage_GetQueryMissing(t *testing.T) {
	m := newTestManager(t)
	uq, err := m.Queries().GetQuery(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, uq)
}
