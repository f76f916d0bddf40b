package memory_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"anktest-backend/internal/shared/storage/blob"
	"anktest-backend/internal/shared/storage/blob/memory"
)

func TestWriteOpenExists(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	exists, err := store.Exists(ctx, "u1/qa.json")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Write(ctx, "u1/qa.json", "application/json", []byte(`{}`)))

	exists, err = store.Exists(ctx, "u1/qa.json")
	require.NoError(t, err)
	require.True(t, exists)

	rc, err := store.Open(ctx, "u1/qa.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, `{}`, string(data))
}

func TestOpenMissingReturnsNotFound(t *testing.T) {
	store := memory.New()
	_, err := store.Open(context.Background(), "nope")
	require.ErrorIs(t, err, blob.ErrNotFound)
}

func TestListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.Write(ctx, "u1/upload_files/b.txt", "", nil))
	require.NoError(t, store.Write(ctx, "u1/upload_files/a.txt", "", nil))
	require.NoError(t, store.Write(ctx, "u1/qa.json", "", nil))
	require.NoError(t, store.Write(ctx, "u2/upload_files/c.txt", "", nil))

	keys, err := store.List(ctx, "u1/upload_files/")
	require.NoError(t, err)
	require.Equal(t, []string{"u1/upload_files/a.txt", "u1/upload_files/b.txt"}, keys)
}

func TestWriteCopiesData(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	data := []byte("original")
	require.NoError(t, store.Write(ctx, "k", "", data))
	data[0] = 'X'

	got, err := blob.ReadAll(ctx, store, "k")
	require.NoError(t, err)
	require.Equal(t, "original", string(got))
}
