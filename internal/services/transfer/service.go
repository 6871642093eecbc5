package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ulikunitz/xz"

	"github.com/Sentimentron/sentropy/internal/interfaces"
	"github.com/Sentimentron/sentropy/internal/models"
)

// Service moves crawl archives into the raw article store. Each archive
// is an xz-compressed SQLite file of crawled pages; every new page is
// deduplicated, inserted, and enqueued for enrichment.
type Service struct {
	store        interfaces.StorageManager
	objects      interfaces.ObjectStore
	processQueue interfaces.QueueManager
	logger       arbor.ILogger
}

// NewService creates a transfer service.
func NewService(store interfaces.StorageManager, objects interfaces.ObjectStore, processQueue interfaces.QueueManager, logger arbor.ILogger) *Service {
	return &Service{
		store:        store,
		objects:      objects,
		processQueue: processQueue,
		logger:       logger,
	}
}

// HandleCrawlFile transfers one archive identified by its crawl file id.
// Completed archives are skipped, so redelivered ids are harmless;
// partially transferred archives resume past already-present pages via
// raw article dedup.
func (s *Service) HandleCrawlFile(ctx context.Context, crawlFileID int64) error {
	cf, err := s.store.Crawls().GetCrawlFile(ctx, crawlFileID)
	if err != nil {
		return err
	}
	if cf == nil {
		return fmt.Errorf("crawl file %d not found", crawlFileID)
	}
	if cf.Status == models.CrawlComplete {
		s.logger.Debug().Int64("crawl_file_id", crawlFileID).Msg("Crawl file already complete")
		return nil
	}

	if cf.Kind != models.CrawlKindSQL {
		s.logger.Warn().
			Int64("crawl_file_id", crawlFileID).
			Str("kind", string(cf.Kind)).
			Msg("Unsupported crawl archive kind")
		return s.store.Crawls().SetCrawlFileStatus(ctx, crawlFileID, models.CrawlError)
	}

	source, err := s.store.Crawls().GetSource(ctx, cf.SourceID)
	if err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("crawl source %d not found", cf.SourceID)
	}

	exists, err := s.objects.Exists(ctx, source.Key, cf.Key)
	if err != nil {
		return err
	}
	if !exists {
		s.logger.Warn().
			Str("bucket", source.Key).
			Str("key", cf.Key).
			Msg("Archive missing from object store, marking as error")
		return s.store.Crawls().SetCrawlFileStatus(ctx, crawlFileID, models.CrawlError)
	}

	dbPath, err := s.fetchArchive(ctx, source.Key, cf.Key)
	if err != nil {
		return err
	}
	defer os.Remove(dbPath)

	inserted, seen, err := s.transferArticles(ctx, dbPath, crawlFileID)
	if err != nil {
		return err
	}

	if err := s.store.Crawls().SetCrawlFileStatus(ctx, crawlFileID, models.CrawlComplete); err != nil {
		return err
	}

	s.logger.Info().
		Int64("crawl_file_id", crawlFileID).
		Str("key", cf.Key).
		Int("articles", seen).
		Int("inserted", inserted).
		Msg("Crawl archive transferred")
	return nil
}

// fetchArchive downloads and decompresses one archive to a temp file,
// returning its path.
func (s *Service) fetchArchive(ctx context.Context, bucket, key string) (string, error) {
	s.logger.Info().Str("bucket", bucket).Str("key", key).Msg("Downloading crawl archive")

	reader, err := s.objects.Get(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	decompressed, err := xz.NewReader(reader)
	if err != nil {
		return "", fmt.Errorf("decompress archive %s/%s: %w", bucket, key, err)
	}

	tmp, err := os.CreateTemp("", "crawl-*.db")
	if err != nil {
		return "", fmt.Errorf("stage archive: %w", err)
	}
	if _, err := io.Copy(tmp, decompressed); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write archive %s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// transferArticles reads every page out of the archive and inserts the
// new ones. Returns (inserted, seen).
func (s *Service) transferArticles(ctx context.Context, dbPath string, crawlFileID int64) (int, int, error) {
	archive, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, 0, fmt.Errorf("open archive db: %w", err)
	}
	defer archive.Close()

	rows, err := archive.QueryContext(ctx,
		`SELECT headers, content, site, date_crawled, content_type FROM articles`)
	if err != nil {
		return 0, 0, fmt.Errorf("read archive articles: %w", err)
	}
	defer rows.Close()

	inserted, seen := 0, 0
	for rows.Next() {
		var headers, site, contentType sql.NullString
		var content []byte
		var crawledRaw sql.NullString
		if err := rows.Scan(&headers, &content, &site, &crawledRaw, &contentType); err != nil {
			return inserted, seen, fmt.Errorf("scan archive row: %w", err)
		}
		seen++

		if site.String == "" {
			s.logger.Debug().Msg("Skipping archive row without a url")
			continue
		}

		dateCrawled, err := parseCrawlDate(crawledRaw.String)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", site.String).Msg("Skipping row with unreadable crawl date")
			continue
		}

		existing, err := s.store.RawArticles().FindRawArticle(ctx, crawlFileID, site.String, dateCrawled)
		if err != nil {
			return inserted, seen, err
		}
		if existing != nil {
			s.logger.Debug().Str("url", site.String).Msg("Raw article already present")
			continue
		}

		raw := &models.RawArticle{
			CrawlID:     crawlFileID,
			URL:         site.String,
			ContentType: contentType.String,
			DateCrawled: dateCrawled,
			Headers:     headers.String,
			Body:        content,
		}
		id, err := s.store.RawArticles().InsertRawArticle(ctx, raw)
		if err != nil {
			return inserted, seen, err
		}
		if err := s.processQueue.Enqueue(ctx, id); err != nil {
			return inserted, seen, err
		}
		inserted++
	}
	return inserted, seen, rows.Err()
}

// parseCrawlDate accepts the timestamp formats seen in crawl archives:
// unix seconds or a handful of textual layouts.
func parseCrawlDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty crawl date")
	}
	if unix, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unreadable crawl date %q", value)
}

// Seed registers an archive under a source and enqueues it for transfer.
// Used by the CLI to introduce new crawl data.
func (s *Service) Seed(ctx context.Context, crawlQueue interfaces.QueueManager, sourceKey, fileKey string, kind models.CrawlFileKind) (int64, error) {
	source, err := s.store.Crawls().GetOrCreateSource(ctx, sourceKey)
	if err != nil {
		return 0, err
	}

	id, err := s.store.Crawls().InsertCrawlFile(ctx, source.ID, fileKey, kind)
	if err != nil {
		return 0, err
	}

	if _, err := s.store.Crawls().DeduplicateCrawlFiles(ctx); err != nil {
		return 0, err
	}

	// Dedup may have removed the row just inserted in favor of an earlier
	// duplicate; re-read to find the surviving id.
	cf, err := s.store.Crawls().GetCrawlFile(ctx, id)
	if err != nil {
		return 0, err
	}
	if cf == nil {
		s.logger.Info().
			Str("source", sourceKey).
			Str("key", fileKey).
			Msg("Archive already registered, not re-enqueueing")
		return 0, nil
	}

	if err := crawlQueue.Enqueue(ctx, id); err != nil {
		return 0, err
	}

	s.logger.Info().
		Int64("crawl_file_id", id).
		Str("source", sourceKey).
		Str("key", fileKey).
		Msg("Crawl archive enqueued for transfer")
	return id, nil
}

// EnqueueIncomplete re-enqueues archives that never completed transfer.
func (s *Service) EnqueueIncomplete(ctx context.Context, crawlQueue interfaces.QueueManager, limit int) (int, error) {
	ids, err := s.store.Crawls().ListIncompleteCrawlFileIDs(ctx, limit)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := crawlQueue.Enqueue(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
