package interfaces

import (
	"context"
	"io"
)

// ObjectStore fetches and writes opaque objects by (bucket, key). Crawl
// archives are read from it; query results are written to it.
type ObjectStore interface {
	// Get opens an object for reading. The caller closes the reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Put writes an object, replacing any previous content.
	Put(ctx context.Context, bucket, key string, data []byte) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, bucket, key string) (bool, error)
}
