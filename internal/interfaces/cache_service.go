package interfaces

import "context"

// KeyIDCache memoizes key→id mappings for keywords and domains. The store
// writes rows before cache entries, so a cache hit implies the row exists.
type KeyIDCache interface {
	// GetKeywordID returns the cached id for a word, with a presence flag.
	GetKeywordID(ctx context.Context, word string) (int64, bool, error)

	// PutKeywordID write-through populates the keyword namespace.
	PutKeywordID(ctx context.Context, word string, id int64) error

	// GetDomainID returns the cached id for a host key, with a presence flag.
	GetDomainID(ctx context.Context, key string) (int64, bool, error)

	// PutDomainID write-through populates the domain namespace.
	PutDomainID(ctx context.Context, key string, id int64) error

	Close() error
}
