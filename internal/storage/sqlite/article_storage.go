package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
)

// ArticleStorage manages processed article identities.
type ArticleStorage struct {
	db     *DB
	logger arbor.ILogger
}

// FindArticle locates an article by its unique (domain, path, crawl) key.
func (s *ArticleStorage) FindArticle(ctx context.Context, domainID int64, path string, crawlID int64) (*models.Article, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, domain_id, path, date_crawled, crawl_id, status
		FROM articles WHERE domain_id = ? AND path = ? AND crawl_id = ?`,
		domainID, path, crawlID)
	return scanArticle(row)
}

// GetArticle loads an article by id.
func (s *ArticleStorage) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, domain_id, path, date_crawled, crawl_id, status
		FROM articles WHERE id = ?`, id)
	return scanArticle(row)
}

func scanArticle(row *sql.Row) (*models.Article, error) {
	a := &models.Article{}
	var crawled int64
	err := row.Scan(&a.ID, &a.DomainID, &a.Path, &crawled, &a.CrawlID, &a.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	a.DateCrawled = time.Unix(crawled, 0).UTC()
	return a, nil
}

// FindArticleIDsByPath returns article ids for a (domain, path) pair
// across crawls.
func (s *ArticleStorage) FindArticleIDsByPath(ctx context.Context, domainID int64, path string) ([]int64, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT id FROM articles WHERE domain_id = ? AND path = ?`, domainID, path)
	if err != nil {
		return nil, fmt.Errorf("find articles by path: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ArticlePathsForDomain returns the set of known article paths under a
// domain.
func (s *ArticleStorage) ArticlePathsForDomain(ctx context.Context, domainID int64) ([]string, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT DISTINCT path FROM articles WHERE domain_id = ?`, domainID)
	if err != nil {
		return nil, fmt.Errorf("article paths for domain %d: %w", domainID, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}
