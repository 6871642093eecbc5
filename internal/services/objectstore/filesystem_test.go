package objectstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestStore(t *testing.T) *Filesystem {
	t.Helper()
	fs, err := NewFilesystem(t.TempDir(), arbor.NewLogger())
	require.NoError(t, err)
	return fs
}

func TestPutGetRoundTrip(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, fs.Put(ctx, "crawls", "archive-001.db.xz", []byte("payload")))

	rc, err := fs.Get(ctx, "crawls", "archive-001.db.xz")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestPutReplaces(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, fs.Put(ctx, "results", "query/1.json", []byte("v1")))
	require.NoError(t, fs.Put(ctx, "results", "query/1.json", []byte("v2")))

	rc, err := fs.Get(ctx, "results", "query/1.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestExists(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()

	ok, err := fs.Exists(ctx, "crawls", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Put(ctx, "crawls", "present", []byte("x")))
	ok, err = fs.Exists(ctx, "crawls", "present")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetMissingObject(t *testing.T) {
	fs := newTestStore(t)
	_, err := fs.Get(context.Background(), "crawls", "nope")
	assert.Error(t, err)
}

func TestKeyCannotEscapeRoot(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()

	err := fs.Put(ctx, "crawls", "../../etc/passwd", []byte("x"))
	assert.Error(t, err)

	_, err = fs.Get(ctx, "crawls", "../secret")
	assert.Error(t, err)
}

func TestIncompleteAddressRejected(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, fs.Put(ctx, "", "key", []byte("x")))
	assert.Error(t, fs.Put(ctx, "bucket", "", []byte("x")))
}
