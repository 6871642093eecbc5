package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
)

// RawArticleStorage manages short-term raw article records and their
// exactly-once processing results.
type RawArticleStorage struct {
	db     *DB
	logger arbor.ILogger
}

// FindRawArticle locates a raw article by its dedup key.
func (s *RawArticleStorage) FindRawArticle(ctx context.Context, crawlID int64, url string, dateCrawled time.Time) (*models.RawArticle, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, crawl_id, url, content_type, date_crawled, headers, body
		FROM raw_articles
		WHERE crawl_id = ? AND url = ? AND date_crawled = ?`,
		crawlID, url, dateCrawled.Unix())
	return scanRawArticle(row)
}

// InsertRawArticle stores a new raw article and returns its id.
func (s *RawArticleStorage) InsertRawArticle(ctx context.Context, raw *models.RawArticle) (int64, error) {
	res, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO raw_articles (crawl_id, url, content_type, date_crawled, headers, body)
		VALUES (?, ?, ?, ?, ?, ?)`,
		raw.CrawlID, raw.URL, raw.ContentType, raw.DateCrawled.Unix(), raw.Headers, raw.Body)
	if err != nil {
		return 0, fmt.Errorf("insert raw article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	raw.ID = id
	return id, nil
}

// GetRawArticle loads a raw article by id.
func (s *RawArticleStorage) GetRawArticle(ctx context.Context, id int64) (*models.RawArticle, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, crawl_id, url, content_type, date_crawled, headers, body
		FROM raw_articles WHERE id = ?`, id)
	return scanRawArticle(row)
}

func scanRawArticle(row *sql.Row) (*models.RawArticle, error) {
	raw := &models.RawArticle{}
	var crawled int64
	var headers sql.NullString
	err := row.Scan(&raw.ID, &raw.CrawlID, &raw.URL, &raw.ContentType, &crawled, &headers, &raw.Body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan raw article: %w", err)
	}
	raw.DateCrawled = time.Unix(crawled, 0).UTC()
	raw.Headers = headers.String
	return raw, nil
}

// GetResult returns the processing result for a raw article, or nil.
func (s *RawArticleStorage) GetResult(ctx context.Context, rawArticleID int64) (*models.RawArticleResult, error) {
	result := &models.RawArticleResult{RawArticleID: rawArticleID}
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT status FROM raw_article_results WHERE raw_article_id = ?`, rawArticleID).
		Scan(&result.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get raw article result %d: %w", rawArticleID, err)
	}
	return result, nil
}

// SaveResult upserts the processing result for a raw article.
func (s *RawArticleStorage) SaveResult(ctx context.Context, rawArticleID int64, status models.RawArticleStatus) error {
	_, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO raw_article_results (raw_article_id, status) VALUES (?, ?)
		ON CONFLICT(raw_article_id) DO UPDATE SET status = excluded.status`,
		rawArticleID, string(status))
	if err != nil {
		return fmt.Errorf("save raw article result %d: %w", rawArticleID, err)
	}
	return nil
}

// ListUnprocessedIDs returns ids of raw articles without a Processed or
// Error result, for reprocessing.
func (s *RawArticleStorage) ListUnprocessedIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT ra.id FROM raw_articles ra
		LEFT JOIN raw_article_results r ON r.raw_article_id = ra.id
		WHERE r.raw_article_id IS NULL OR r.status = 'Unprocessed'
		ORDER BY ra.id`)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed raw articles: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}
