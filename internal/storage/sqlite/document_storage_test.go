package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sentimentron/sentropy/internal/models"
)

type graphFixture struct {
	crawlID   int64
	domainID  int64
	rawID     int64
	obamaID   int64
	londonID  int64
	versionID int64
}

func newGraphFixture(t *testing.T, m *Manager) *graphFixture {
	t.Helper()
	ctx := context.Background()
	_, crawlID := newTestCrawl(t, m)

	require.NoError(t, m.Domains().InsertDomainIgnore(ctx, "example.com", time.Now()))
	domain, err := m.Domains().GetDomainByKey(ctx, "example.com")
	require.NoError(t, err)

	rawID, err := m.RawArticles().InsertRawArticle(ctx, &models.RawArticle{
		CrawlID: crawlID, URL: "http://example.com/story",
		ContentType: "text/html", DateCrawled: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, m.Keywords().UpsertWords(ctx, []string{"Obama", "London"}))
	obamaID, err := m.Keywords().ResolveWord(ctx, "Obama")
	require.NoError(t, err)
	londonID, err := m.Keywords().ResolveWord(ctx, "London")
	require.NoError(t, err)

	ver, err := m.Provenance().GetOrCreateVersion(ctx, "sentropy-sen/0.9.0")
	require.NoError(t, err)

	return &graphFixture{
		crawlID: crawlID, domainID: domain.ID, rawID: rawID,
		obamaID: obamaID, londonID: londonID, versionID: ver.ID,
	}
}

func (f *graphFixture) fullGraph(crawled time.Time) *models.DocumentGraph {
	return &models.DocumentGraph{
		RawArticleID: f.rawID,
		Article: models.Article{
			DomainID: f.domainID, Path: "/story", DateCrawled: crawled,
			CrawlID: f.crawlID, Status: models.StatusProcessed,
		},
		Document: &models.Document{
			Label: models.LabelPositive, Length: 1, Headline: "Obama visits London",
			PosSentences: 1, PosPhrases: 1, NegPhrases: 1,
		},
		Sentences: []models.SentenceGraph{{
			Sentence: models.Sentence{Label: models.LabelPositive, Score: 0.5, Prob: 0.8, Level: models.LevelOther},
			Phrases: []models.PhraseGraph{
				{
					Phrase:     models.Phrase{Label: models.LabelPositive, Score: 0.6, Prob: 0.9},
					Text:       "Obama praised London",
					KeywordIDs: []int64{f.obamaID, f.londonID},
				},
				{
					Phrase:     models.Phrase{Label: models.LabelNegative, Score: -0.3, Prob: 0.7},
					Text:       "but criticised the weather",
					KeywordIDs: nil,
				},
			},
		}},
		Adjacencies: []models.AdjacencyPair{
			{Key1ID: f.obamaID, Key2ID: f.londonID},
			{Key1ID: f.obamaID}, // single proper noun, no partner
		},
		CertainDates: []models.CertainDate{
			{Date: time.Date(2008, time.May, 12, 0, 0, 0, 0, time.UTC), Position: 100},
		},
		AmbiguousDates: []models.AmbiguousDate{
			{Date: time.Date(2008, time.January, 2, 0, 0, 0, 0, time.UTC), DayFirst: true, MatchedText: "02/01/2008", Position: 200},
		},
		RelativeLinks: []models.RelativeLink{{Path: "/about"}},
		AbsoluteLinks: []models.AbsoluteLink{{DomainID: f.domainID, Path: "/other"}},
		Provenance:    []models.ProvenanceEntry{{SoftwareID: f.versionID, Action: models.ActionClassified}},
	}
}

func TestCommitGraph_FullGraph(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	crawled := time.Date(2008, time.June, 1, 8, 30, 0, 0, time.UTC)
	graph := f.fullGraph(crawled)

	articleID, err := m.Documents().CommitGraph(ctx, graph)
	require.NoError(t, err)
	require.NotZero(t, articleID)
	assert.Equal(t, articleID, graph.Article.ID)
	require.NotNil(t, graph.Document)
	require.NotZero(t, graph.Document.ID)

	article, err := m.Articles().GetArticle(ctx, articleID)
	require.NoError(t, err)
	require.NotNil(t, article)
	assert.Equal(t, "/story", article.Path)
	assert.Equal(t, models.StatusProcessed, article.Status)
	assert.Equal(t, crawled, article.DateCrawled)

	doc, err := m.Documents().GetDocument(ctx, graph.Document.ID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Obama visits London", doc.Headline)
	assert.Equal(t, models.LabelPositive, doc.Label)
	assert.Equal(t, articleID, doc.ArticleID)

	phrases, err := m.Documents().PhrasesForDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, phrases, 2)

	var incident []int64
	for _, p := range phrases {
		ids, err := m.Documents().KeywordIDsForPhrase(ctx, p.ID)
		require.NoError(t, err)
		incident = append(incident, ids...)
	}
	assert.ElementsMatch(t, []int64{f.obamaID, f.londonID}, incident)

	rel, err := m.Documents().RelativeLinksForDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, rel, 1)
	assert.Equal(t, "/about", rel[0].Path)

	abs, err := m.Documents().AbsoluteLinksForDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, abs, 1)
	assert.Equal(t, f.domainID, abs[0].DomainID)

	result, err := m.RawArticles().GetResult(ctx, f.rawID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.RawProcessed, result.Status)
}

func TestCommitGraph_TerminalStatusSkipsDocumentRows(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	graph := &models.DocumentGraph{
		RawArticleID: f.rawID,
		Article: models.Article{
			DomainID: f.domainID, Path: "/undated", DateCrawled: time.Now(),
			CrawlID: f.crawlID, Status: models.StatusNoDates,
		},
	}

	articleID, err := m.Documents().CommitGraph(ctx, graph)
	require.NoError(t, err)

	article, err := m.Articles().GetArticle(ctx, articleID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoDates, article.Status)

	docs, err := m.Documents().DocumentIDsByDomain(ctx, f.domainID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	// The raw article is still marked done so it is never re-queued.
	result, err := m.RawArticles().GetResult(ctx, f.rawID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.RawProcessed, result.Status)
}

func TestAdjacencyWordsForDocument(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	graph := f.fullGraph(time.Now())
	_, err := m.Documents().CommitGraph(ctx, graph)
	require.NoError(t, err)

	pairs, err := m.Documents().AdjacencyWordsForDocument(ctx, graph.Document.ID)
	require.NoError(t, err)
	// Words come back lowercased; a partnerless adjacency repeats its word.
	assert.ElementsMatch(t, [][2]string{
		{"obama", "london"},
		{"obama", "obama"},
	}, pairs)
}

func TestAdjacencyChecks(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	graph := f.fullGraph(time.Now())
	_, err := m.Documents().CommitGraph(ctx, graph)
	require.NoError(t, err)
	docID := graph.Document.ID

	strict, err := m.Documents().HasStrictAdjacency(ctx, f.obamaID, f.londonID, docID)
	require.NoError(t, err)
	assert.True(t, strict)

	// Order must not matter.
	strict, err = m.Documents().HasStrictAdjacency(ctx, f.londonID, f.obamaID, docID)
	require.NoError(t, err)
	assert.True(t, strict)

	loose, err := m.Documents().HasLooseAdjacency(ctx, f.londonID, docID)
	require.NoError(t, err)
	assert.True(t, loose)

	require.NoError(t, m.Keywords().UpsertWords(ctx, []string{"Paris"}))
	parisID, err := m.Keywords().ResolveWord(ctx, "Paris")
	require.NoError(t, err)

	strict, err = m.Documents().HasStrictAdjacency(ctx, f.obamaID, parisID, docID)
	require.NoError(t, err)
	assert.False(t, strict)

	loose, err = m.Documents().HasLooseAdjacency(ctx, parisID, docID)
	require.NoError(t, err)
	assert.False(t, loose)
}

func TestDocumentIDLookups(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	graph := f.fullGraph(time.Now())
	_, err := m.Documents().CommitGraph(ctx, graph)
	require.NoError(t, err)

	byDomain, err := m.Documents().DocumentIDsByDomain(ctx, f.domainID)
	require.NoError(t, err)
	assert.Equal(t, []int64{graph.Document.ID}, byDomain)

	byKeyword, err := m.Documents().DocumentIDsByKeyword(ctx, f.londonID)
	require.NoError(t, err)
	assert.Equal(t, []int64{graph.Document.ID}, byKeyword)
}

func TestClosestCertainDate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	graph := f.fullGraph(time.Now())
	graph.CertainDates = []models.CertainDate{
		{Date: time.Date(2008, time.May, 12, 0, 0, 0, 0, time.UTC), Position: 100},
		{Date: time.Date(2008, time.July, 3, 0, 0, 0, 0, time.UTC), Position: 400},
	}
	_, err := m.Documents().CommitGraph(ctx, graph)
	require.NoError(t, err)
	docID := graph.Document.ID

	// 400 is 54 bytes from the anchor, 100 is 246.
	cd, err := m.Documents().ClosestCertainDate(ctx, docID, 346)
	require.NoError(t, err)
	require.NotNil(t, cd)
	assert.Equal(t, time.Date(2008, time.July, 3, 0, 0, 0, 0, time.UTC), cd.Date)
	assert.Equal(t, 400, cd.Position)

	cd, err = m.Documents().ClosestCertainDate(ctx, docID, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, cd.Position)
}

func TestClosestAmbiguousDate_YearWindow(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	graph := f.fullGraph(time.Now())
	graph.AmbiguousDates = []models.AmbiguousDate{
		{Date: time.Date(1997, time.March, 1, 0, 0, 0, 0, time.UTC), MatchedText: "03/97", Position: 300},
		{Date: time.Date(2005, time.March, 1, 0, 0, 0, 0, time.UTC), DayFirst: true, MatchedText: "01/03/2005", Position: 600},
	}
	_, err := m.Documents().CommitGraph(ctx, graph)
	require.NoError(t, err)
	docID := graph.Document.ID

	// The 1997 reading is closer to the anchor but outside the window.
	ad, err := m.Documents().ClosestAmbiguousDate(ctx, docID, 307, 2001, 2009)
	require.NoError(t, err)
	require.NotNil(t, ad)
	assert.Equal(t, 2005, ad.Date.Year())
	assert.True(t, ad.DayFirst)

	ad, err = m.Documents().ClosestAmbiguousDate(ctx, docID, 307, 2010, 2020)
	require.NoError(t, err)
	assert.Nil(t, ad)
}

func TestCrawledDate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	crawled := time.Date(2008, time.June, 1, 8, 30, 0, 0, time.UTC)
	graph := f.fullGraph(crawled)
	_, err := m.Documents().CommitGraph(ctx, graph)
	require.NoError(t, err)

	got, err := m.Documents().CrawledDate(ctx, graph.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, crawled, got)
}

func TestTopDomainsByKeywordAdjacency(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	require.NoError(t, m.Domains().InsertDomainIgnore(ctx, "minor.example.org", time.Now()))
	minor, err := m.Domains().GetDomainByKey(ctx, "minor.example.org")
	require.NoError(t, err)

	commit := func(domainID int64, path string) {
		rawID, err := m.RawArticles().InsertRawArticle(ctx, &models.RawArticle{
			CrawlID: f.crawlID, URL: "http://x" + path,
			ContentType: "text/html", DateCrawled: time.Now(),
		})
		require.NoError(t, err)
		graph := f.fullGraph(time.Now())
		graph.RawArticleID = rawID
		graph.Article.DomainID = domainID
		graph.Article.Path = path
		_, err = m.Documents().CommitGraph(ctx, graph)
		require.NoError(t, err)
	}
	commit(f.domainID, "/a")
	commit(f.domainID, "/b")
	commit(minor.ID, "/c")

	top, err := m.Documents().TopDomainsByKeywordAdjacency(ctx, []int64{f.obamaID}, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, f.domainID, top[0])
	assert.Equal(t, minor.ID, top[1])

	top, err = m.Documents().TopDomainsByKeywordAdjacency(ctx, []int64{f.obamaID}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{f.domainID}, top)

	top, err = m.Documents().TopDomainsByKeywordAdjacency(ctx, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestArticleStorage_Lookups(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	f := newGraphFixture(t, m)

	graph := f.fullGraph(time.Now())
	articleID, err := m.Documents().CommitGraph(ctx, graph)
	require.NoError(t, err)

	found, err := m.Articles().FindArticle(ctx, f.domainID, "/story", f.crawlID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, articleID, found.ID)

	missing, err := m.Articles().FindArticle(ctx, f.domainID, "/absent", f.crawlID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	ids, err := m.Articles().FindArticleIDsByPath(ctx, f.domainID, "/story")
	require.NoError(t, err)
	assert.Equal(t, []int64{articleID}, ids)

	paths, err := m.Articles().ArticlePathsForDomain(ctx, f.domainID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/story"}, paths)
}
