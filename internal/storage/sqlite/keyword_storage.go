package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
)

// KeywordStorage manages interned keywords.
type KeywordStorage struct {
	db     *DB
	logger arbor.ILogger
}

// UpsertWords batch-inserts keyword words, ignoring duplicates. Words that
// fail validation are dropped and logged, never fatal.
func (s *KeywordStorage) UpsertWords(ctx context.Context, words []string) error {
	if len(words) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin keyword upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO keywords (word) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare keyword upsert: %w", err)
	}
	defer stmt.Close()

	for _, word := range words {
		if err := models.ValidateKeywordWord(word); err != nil {
			s.logger.Debug().Err(err).Msg("Dropping invalid keyword")
			continue
		}
		if _, err := stmt.ExecContext(ctx, word); err != nil {
			return fmt.Errorf("upsert keyword %q: %w", word, err)
		}
	}

	return tx.Commit()
}

// ResolveWord returns the id for a word, or 0 when absent.
func (s *KeywordStorage) ResolveWord(ctx context.Context, word string) (int64, error) {
	var id int64
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT id FROM keywords WHERE word = ?`, word).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolve keyword %q: %w", word, err)
	}
	return id, nil
}

// GetKeyword loads a keyword by id.
func (s *KeywordStorage) GetKeyword(ctx context.Context, id int64) (*models.Keyword, error) {
	k := &models.Keyword{}
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT id, word FROM keywords WHERE id = ?`, id).Scan(&k.ID, &k.Word)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get keyword %d: %w", id, err)
	}
	return k, nil
}

// FindWordsLike returns keywords whose word matches a SQL LIKE pattern.
func (s *KeywordStorage) FindWordsLike(ctx context.Context, pattern string) ([]*models.Keyword, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT id, word FROM keywords WHERE word LIKE ?`, pattern)
	if err != nil {
		return nil, fmt.Errorf("find keywords like %q: %w", pattern, err)
	}
	defer rows.Close()

	var keywords []*models.Keyword
	for rows.Next() {
		k := &models.Keyword{}
		if err := rows.Scan(&k.ID, &k.Word); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// EachKeyword streams all keywords, for cache warming.
func (s *KeywordStorage) EachKeyword(ctx context.Context, fn func(*models.Keyword) error) error {
	rows, err := s.db.DB().QueryContext(ctx, `SELECT id, word FROM keywords`)
	if err != nil {
		return fmt.Errorf("scan keywords: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		k := &models.Keyword{}
		if err := rows.Scan(&k.ID, &k.Word); err != nil {
			return err
		}
		if err := fn(k); err != nil {
			return err
		}
	}
	return rows.Err()
}
