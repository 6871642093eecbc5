package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/interfaces"
	"github.com/Sentimentron/sentropy/internal/models"
)

const (
	keywordPrefix = "kw/"
	domainPrefix  = "dm/"
)

// Service is a Badger-backed cache mapping keyword words and domain keys
// to their relational ids. It cuts round trips during enrichment, where
// the same domains and words recur across articles.
type Service struct {
	db     *badger.DB
	logger arbor.ILogger
}

// NewService opens the cache at the given path.
func NewService(path string, logger arbor.ILogger) (*Service, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open id cache at %s: %w", path, err)
	}

	return &Service{db: db, logger: logger}, nil
}

// GetKeywordID returns the cached id for a word, with a presence flag.
func (s *Service) GetKeywordID(ctx context.Context, word string) (int64, bool, error) {
	return s.get(keywordPrefix + word)
}

// PutKeywordID caches the id for a word.
func (s *Service) PutKeywordID(ctx context.Context, word string, id int64) error {
	return s.put(keywordPrefix+word, id)
}

// GetDomainID returns the cached id for a domain key, with a presence
// flag.
func (s *Service) GetDomainID(ctx context.Context, key string) (int64, bool, error) {
	return s.get(domainPrefix + key)
}

// PutDomainID caches the id for a domain key.
func (s *Service) PutDomainID(ctx context.Context, key string, id int64) error {
	return s.put(domainPrefix+key, id)
}

func (s *Service) get(key string) (int64, bool, error) {
	var id int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return err
			}
			id = parsed
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return id, true, nil
}

func (s *Service) put(key string, id int64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(strconv.FormatInt(id, 10)))
	})
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	return nil
}

// WarmKeywords loads every interned keyword into the cache.
func (s *Service) WarmKeywords(ctx context.Context, keywords interfaces.KeywordStorage) (int, error) {
	count := 0
	err := keywords.EachKeyword(ctx, func(k *models.Keyword) error {
		if err := s.PutKeywordID(ctx, k.Word, k.ID); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("warm keyword cache: %w", err)
	}
	s.logger.Info().Int("keywords", count).Msg("Keyword cache warmed")
	return count, nil
}

// WarmDomains loads domains matching the given LIKE patterns into the
// cache. An empty pattern list warms everything.
func (s *Service) WarmDomains(ctx context.Context, domains interfaces.DomainStorage, patterns []string) (int, error) {
	if len(patterns) == 0 {
		patterns = []string{"%"}
	}

	count := 0
	for _, pattern := range patterns {
		matched, err := domains.FindDomainsLike(ctx, pattern)
		if err != nil {
			return count, fmt.Errorf("warm domain cache: %w", err)
		}
		for _, d := range matched {
			if err := s.PutDomainID(ctx, d.Key, d.ID); err != nil {
				return count, err
			}
			count++
		}
	}
	s.logger.Info().Int("domains", count).Msg("Domain cache warmed")
	return count, nil
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.db.Close()
}
