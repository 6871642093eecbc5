// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"
	"time"

	"github.com/Sentimentron/sentropy/internal/models"
)

// CrawlStorage manages crawl sources and crawl archive records.
type CrawlStorage interface {
	// GetOrCreateSource interns a crawl source by key.
	GetOrCreateSource(ctx context.Context, key string) (*models.CrawlSource, error)

	// GetSource loads a crawl source by id.
	GetSource(ctx context.Context, id int64) (*models.CrawlSource, error)

	// InsertCrawlFile records a new archive with status Incomplete.
	InsertCrawlFile(ctx context.Context, sourceID int64, key string, kind models.CrawlFileKind) (int64, error)

	// GetCrawlFile loads an archive record by id.
	GetCrawlFile(ctx context.Context, id int64) (*models.CrawlFile, error)

	// SetCrawlFileStatus transitions an archive's status.
	SetCrawlFileStatus(ctx context.Context, id int64, status models.CrawlFileStatus) error

	// DeduplicateCrawlFiles removes duplicate (source, key) archive rows,
	// keeping the lowest id.
	DeduplicateCrawlFiles(ctx context.Context) (int64, error)

	// ListIncompleteCrawlFileIDs returns ids of archives still to transfer.
	ListIncompleteCrawlFileIDs(ctx context.Context, limit int) ([]int64, error)
}

// RawArticleStorage manages short-term raw article records and their
// exactly-once processing results.
type RawArticleStorage interface {
	// FindRawArticle locates a raw article by its dedup key.
	FindRawArticle(ctx context.Context, crawlID int64, url string, dateCrawled time.Time) (*models.RawArticle, error)

	// InsertRawArticle stores a new raw article and returns its id.
	InsertRawArticle(ctx context.Context, raw *models.RawArticle) (int64, error)

	// GetRawArticle loads a raw article by id.
	GetRawArticle(ctx context.Context, id int64) (*models.RawArticle, error)

	// GetResult returns the processing result for a raw article, or nil if
	// the article has not been processed.
	GetResult(ctx context.Context, rawArticleID int64) (*models.RawArticleResult, error)

	// SaveResult upserts the processing result for a raw article.
	SaveResult(ctx context.Context, rawArticleID int64, status models.RawArticleStatus) error

	// ListUnprocessedIDs returns ids of raw articles without a Processed or
	// Error result, for reprocessing.
	ListUnprocessedIDs(ctx context.Context) ([]int64, error)
}

// DomainStorage manages unique domains.
type DomainStorage interface {
	// GetDomainByKey returns the domain with the given key, or nil.
	GetDomainByKey(ctx context.Context, key string) (*models.Domain, error)

	// GetDomain loads a domain by id.
	GetDomain(ctx context.Context, id int64) (*models.Domain, error)

	// InsertDomainIgnore inserts a domain row if absent. The caller re-reads
	// to learn the winning row's id.
	InsertDomainIgnore(ctx context.Context, key string, firstSeen time.Time) error

	// FindDomainsLike returns domains whose key matches a SQL LIKE pattern.
	FindDomainsLike(ctx context.Context, pattern string) ([]*models.Domain, error)
}

// ArticleStorage manages processed article identities.
type ArticleStorage interface {
	// FindArticle locates an article by its unique (domain, path, crawl) key.
	FindArticle(ctx context.Context, domainID int64, path string, crawlID int64) (*models.Article, error)

	// GetArticle loads an article by id.
	GetArticle(ctx context.Context, id int64) (*models.Article, error)

	// FindArticleIDsByPath returns article ids for a (domain, path) pair
	// across crawls.
	FindArticleIDsByPath(ctx context.Context, domainID int64, path string) ([]int64, error)

	// ArticlePathsForDomain returns the set of known article paths under a
	// domain.
	ArticlePathsForDomain(ctx context.Context, domainID int64) ([]string, error)
}

// KeywordStorage manages interned keywords.
type KeywordStorage interface {
	// UpsertWords batch-inserts keyword words, ignoring duplicates.
	UpsertWords(ctx context.Context, words []string) error

	// ResolveWord returns the id for a word, or 0 when absent.
	ResolveWord(ctx context.Context, word string) (int64, error)

	// GetKeyword loads a keyword by id.
	GetKeyword(ctx context.Context, id int64) (*models.Keyword, error)

	// FindWordsLike returns keywords whose word matches a SQL LIKE pattern.
	FindWordsLike(ctx context.Context, pattern string) ([]*models.Keyword, error)

	// EachKeyword streams all keywords, for cache warming.
	EachKeyword(ctx context.Context, fn func(*models.Keyword) error) error
}

// DocumentReader serves the query engine's reads over enriched documents.
type DocumentReader interface {
	// GetDocument loads a document by id.
	GetDocument(ctx context.Context, id int64) (*models.Document, error)

	// DocumentIDsByDomain returns document ids whose article belongs to the
	// domain.
	DocumentIDsByDomain(ctx context.Context, domainID int64) ([]int64, error)

	// DocumentIDsByKeyword returns document ids having any adjacency that
	// involves the keyword.
	DocumentIDsByKeyword(ctx context.Context, keywordID int64) ([]int64, error)

	// HasStrictAdjacency reports whether the document has an adjacency with
	// both keywords.
	HasStrictAdjacency(ctx context.Context, key1ID, key2ID, documentID int64) (bool, error)

	// HasLooseAdjacency reports whether the document has an adjacency
	// involving the keyword.
	HasLooseAdjacency(ctx context.Context, keywordID, documentID int64) (bool, error)

	// PhrasesForDocument returns all phrases belonging to the document.
	PhrasesForDocument(ctx context.Context, documentID int64) ([]*models.Phrase, error)

	// KeywordIDsForPhrase returns the keyword ids incident on a phrase.
	KeywordIDsForPhrase(ctx context.Context, phraseID int64) ([]int64, error)

	// ClosestCertainDate returns the certain date nearest the given byte
	// position, or nil.
	ClosestCertainDate(ctx context.Context, documentID int64, position int) (*models.CertainDate, error)

	// ClosestAmbiguousDate returns the ambiguous date nearest the given byte
	// position with a year inside [yearMin, yearMax], or nil.
	ClosestAmbiguousDate(ctx context.Context, documentID int64, position, yearMin, yearMax int) (*models.AmbiguousDate, error)

	// CrawledDate returns the crawl date of the document's article.
	CrawledDate(ctx context.Context, documentID int64) (time.Time, error)

	// RelativeLinksForDocument returns the document's relative links.
	RelativeLinksForDocument(ctx context.Context, documentID int64) ([]*models.RelativeLink, error)

	// AbsoluteLinksForDocument returns the document's absolute links.
	AbsoluteLinksForDocument(ctx context.Context, documentID int64) ([]*models.AbsoluteLink, error)

	// AdjacencyWordsForDocument returns the lowercased (word1, word2) pairs
	// of the document's keyword adjacencies.
	AdjacencyWordsForDocument(ctx context.Context, documentID int64) ([][2]string, error)

	// TopDomainsByKeywordAdjacency returns the domain ids that most often
	// host documents whose adjacencies involve any of the keyword ids.
	TopDomainsByKeywordAdjacency(ctx context.Context, keywordIDs []int64, limit int) ([]int64, error)
}

// DocumentStorage persists enriched documents.
type DocumentStorage interface {
	DocumentReader

	// CommitGraph writes a document graph in one transaction: the article
	// row, the document and all child rows, the raw article result, and the
	// raw-to-article link. Rollback on error leaves no partial state.
	CommitGraph(ctx context.Context, graph *models.DocumentGraph) (int64, error)
}

// ProvenanceStorage interns software version strings.
type ProvenanceStorage interface {
	// GetOrCreateVersion interns a component version string.
	GetOrCreateVersion(ctx context.Context, version string) (*models.SoftwareVersion, error)
}

// UserQueryStorage manages submitted queries.
type UserQueryStorage interface {
	// GetOrCreateQuery interns a user query by text.
	GetOrCreateQuery(ctx context.Context, text, email string) (*models.UserQuery, error)

	// GetQuery loads a query by id.
	GetQuery(ctx context.Context, id int64) (*models.UserQuery, error)

	// MarkFulfilled stamps the query's fulfillment time.
	MarkFulfilled(ctx context.Context, id int64, at time.Time) error

	// SetMessage stores a status or failure message on the query.
	SetMessage(ctx context.Context, id int64, message string, cancelled bool) error
}

// StorageManager aggregates the storage layer.
type StorageManager interface {
	Crawls() CrawlStorage
	RawArticles() RawArticleStorage
	Domains() DomainStorage
	Articles() ArticleStorage
	Keywords() KeywordStorage
	Documents() DocumentStorage
	Provenance() ProvenanceStorage
	Queries() UserQueryStorage
	Close() error
}
