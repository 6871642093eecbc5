package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
)

// CrawlStorage manages crawl sources and crawl archive records.
type CrawlStorage struct {
	db     *DB
	logger arbor.ILogger
}

// GetOrCreateSource interns a crawl source by key.
func (s *CrawlStorage) GetOrCreateSource(ctx context.Context, key string) (*models.CrawlSource, error) {
	if _, err := s.db.DB().ExecContext(ctx,
		`INSERT OR IGNORE INTO crawl_sources (key) VALUES (?)`, key); err != nil {
		return nil, fmt.Errorf("insert crawl source: %w", err)
	}

	src := &models.CrawlSource{Key: key}
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT id FROM crawl_sources WHERE key = ?`, key).Scan(&src.ID)
	if err != nil {
		return nil, fmt.Errorf("read crawl source: %w", err)
	}
	return src, nil
}

// GetSource loads a crawl source by id.
func (s *CrawlStorage) GetSource(ctx context.Context, id int64) (*models.CrawlSource, error) {
	src := &models.CrawlSource{}
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT id, key FROM crawl_sources WHERE id = ?`, id).Scan(&src.ID, &src.Key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get crawl source %d: %w", id, err)
	}
	return src, nil
}

// InsertCrawlFile records a new archive with status Incomplete.
func (s *CrawlStorage) InsertCrawlFile(ctx context.Context, sourceID int64, key string, kind models.CrawlFileKind) (int64, error) {
	res, err := s.db.DB().ExecContext(ctx,
		`INSERT INTO crawl_files (source_id, key, kind, status) VALUES (?, ?, ?, ?)`,
		sourceID, key, string(kind), string(models.CrawlIncomplete))
	if err != nil {
		return 0, fmt.Errorf("insert crawl file: %w", err)
	}
	return res.LastInsertId()
}

// GetCrawlFile loads an archive record by id.
func (s *CrawlStorage) GetCrawlFile(ctx context.Context, id int64) (*models.CrawlFile, error) {
	cf := &models.CrawlFile{}
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT id, source_id, key, kind, status FROM crawl_files WHERE id = ?`, id).
		Scan(&cf.ID, &cf.SourceID, &cf.Key, &cf.Kind, &cf.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get crawl file %d: %w", id, err)
	}
	return cf, nil
}

// SetCrawlFileStatus transitions an archive's status.
func (s *CrawlStorage) SetCrawlFileStatus(ctx context.Context, id int64, status models.CrawlFileStatus) error {
	_, err := s.db.DB().ExecContext(ctx,
		`UPDATE crawl_files SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set crawl file %d status: %w", id, err)
	}
	return nil
}

// DeduplicateCrawlFiles removes duplicate (source, key) archive rows,
// keeping the lowest id. Returns the number of rows removed.
func (s *CrawlStorage) DeduplicateCrawlFiles(ctx context.Context) (int64, error) {
	res, err := s.db.DB().ExecContext(ctx, `
		DELETE FROM crawl_files WHERE id NOT IN (
			SELECT MIN(id) FROM crawl_files GROUP BY source_id, key
		)`)
	if err != nil {
		return 0, fmt.Errorf("deduplicate crawl files: %w", err)
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Msg("Removed duplicate crawl files")
	}
	return removed, nil
}

// ListIncompleteCrawlFileIDs returns ids of archives still to transfer.
func (s *CrawlStorage) ListIncompleteCrawlFileIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT id FROM crawl_files WHERE status = ? ORDER BY id LIMIT ?`,
		string(models.CrawlIncomplete), limit)
	if err != nil {
		return nil, fmt.Errorf("list incomplete crawl files: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
