package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
)

// Filesystem stores objects as files under root/bucket/key. It stands in
// for a remote blob store and shares its bucket/key addressing.
type Filesystem struct {
	root   string
	logger arbor.ILogger
}

// NewFilesystem creates a filesystem object store rooted at the given
// directory.
func NewFilesystem(root string, logger arbor.ILogger) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create object root %s: %w", root, err)
	}
	return &Filesystem{root: root, logger: logger}, nil
}

func (f *Filesystem) resolve(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", fmt.Errorf("object address %q/%q incomplete", bucket, key)
	}
	path := filepath.Join(f.root, bucket, filepath.FromSlash(key))
	// Keys must stay inside the root.
	if !strings.HasPrefix(path, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("object key %q escapes store root", key)
	}
	return path, nil
}

// Get opens an object for reading.
func (f *Filesystem) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	path, err := f.resolve(bucket, key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open object %s/%s: %w", bucket, key, err)
	}
	return file, nil
}

// Put writes an object, replacing any previous content. The write goes
// through a temp file and rename so readers never see a partial object.
func (f *Filesystem) Put(ctx context.Context, bucket, key string, data []byte) error {
	path, err := f.resolve(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return fmt.Errorf("stage object %s/%s: %w", bucket, key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write object %s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close object %s/%s: %w", bucket, key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish object %s/%s: %w", bucket, key, err)
	}

	f.logger.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("Object written")
	return nil
}

// Exists reports whether an object is present.
func (f *Filesystem) Exists(ctx context.Context, bucket, key string) (bool, error) {
	path, err := f.resolve(bucket, key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat object %s/%s: %w", bucket, key, err)
	}
	return true, nil
}
