package models

import (
	"fmt"
	"time"
)

// CrawlFileKind identifies the format of a crawl archive.
type CrawlFileKind string

const (
	CrawlKindSQL  CrawlFileKind = "SQL"
	CrawlKindText CrawlFileKind = "Text"
	CrawlKindARFF CrawlFileKind = "ARFF"
)

// ParseCrawlFileKind validates a crawl file kind string.
func ParseCrawlFileKind(s string) (CrawlFileKind, error) {
	switch CrawlFileKind(s) {
	case CrawlKindSQL, CrawlKindText, CrawlKindARFF:
		return CrawlFileKind(s), nil
	}
	return "", fmt.Errorf("invalid crawl file kind %q", s)
}

// CrawlFileStatus is the lifecycle state of a crawl archive.
type CrawlFileStatus string

const (
	CrawlIncomplete CrawlFileStatus = "Incomplete"
	CrawlComplete   CrawlFileStatus = "Complete"
	CrawlError      CrawlFileStatus = "Error"
)

// CrawlSource is an origin of crawl archives; its key doubles as the
// object-store bucket the archives live in.
type CrawlSource struct {
	ID  int64  `json:"id"`
	Key string `json:"key"`
}

// CrawlFile is one archive of crawled pages, the unit of transfer work.
type CrawlFile struct {
	ID       int64           `json:"id"`
	SourceID int64           `json:"source_id"`
	Key      string          `json:"key"`
	Kind     CrawlFileKind   `json:"kind"`
	Status   CrawlFileStatus `json:"status"`
}

// RawArticleStatus is the processing state of a raw article.
type RawArticleStatus string

const (
	RawUnprocessed RawArticleStatus = "Unprocessed"
	RawProcessed   RawArticleStatus = "Processed"
	RawError       RawArticleStatus = "Error"
)

// RawArticle is one record read out of a crawl archive, held only until
// the pipeline has consumed it.
type RawArticle struct {
	ID          int64     `json:"id"`
	CrawlID     int64     `json:"crawl_id"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	DateCrawled time.Time `json:"date_crawled"`
	Headers     string    `json:"headers"`
	Body        []byte    `json:"-"`
}

// RawArticleResult records the single outcome of processing a raw article.
// Its primary key on RawArticleID is the pipeline's idempotence guarantee.
type RawArticleResult struct {
	RawArticleID int64            `json:"raw_article_id"`
	Status       RawArticleStatus `json:"status"`
}

// RawArticleResultLink joins a raw article to the Article it produced.
type RawArticleResultLink struct {
	RawArticleID int64 `json:"raw_article_id"`
	ArticleID    int64 `json:"article_id"`
}
