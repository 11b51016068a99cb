package local

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-backend/internal/shared/storage/object"
)

func TestSaveOpenDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key, size, mimeType, err := store.Save(ctx, "guest:abc", "text.txt", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)
	assert.True(t, strings.HasPrefix(mimeType, "text/plain"))
	assert.True(t, strings.HasSuffix(key, "_text.txt"))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, object.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, key), object.ErrNotFound)
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	_, err := store.Open(ctx, "../etc/passwd")
	assert.Error(t, err)

	_, _, _, err = store.Save(ctx, "user", "../escape.txt", strings.NewReader("x"))
	assert.Error(t, err)
}
