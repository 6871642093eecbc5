package models

import "time"

// ArticleStatus is the terminal outcome of processing one article.
type ArticleStatus string

const (
	StatusProcessed           ArticleStatus = "Processed"
	StatusNoDates             ArticleStatus = "NoDates"
	StatusNoContent           ArticleStatus = "NoContent"
	StatusUnsupportedType     ArticleStatus = "UnsupportedType"
	StatusClassificationError ArticleStatus = "ClassificationError"
	StatusLanguageError       ArticleStatus = "LanguageError"
	StatusOtherError          ArticleStatus = "OtherError"
)

// Domain is a unique lowercased host.
type Domain struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	FirstSeen time.Time `json:"first_seen"`
}

// Article is the processed identity of one crawled page. Exactly one
// exists per (domain, path, crawl).
type Article struct {
	ID          int64         `json:"id"`
	DomainID    int64         `json:"domain_id"`
	Path        string        `json:"path"`
	DateCrawled time.Time     `json:"date_crawled"`
	CrawlID     int64         `json:"crawl_id"`
	Status      ArticleStatus `json:"status"`
}
