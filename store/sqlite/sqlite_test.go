package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/store"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestWriteReadDelete(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "k1", []byte("v1")))
	require.NoError(t, b.Write(ctx, "k1", []byte("v2")), "overwrite")

	data, err := b.Read(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), data)

	require.NoError(t, b.Delete(ctx, "k1"))
	_, err = b.Read(ctx, "k1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestList(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, b.Write(ctx, "b", []byte("2")))
	require.NoError(t, b.Write(ctx, "a", []byte("1")))
	names, err := b.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
}

func TestChunkedStoreRoundTripOnSQLite(t *testing.T) {
	b := newTestBackend(t)
	s := store.NewChunkedStore(b)
	ctx := context.Background()

	state := core.NewSessionState("s1")
	state.AddIntolerances("lactosa")
	state.AppendMessage(core.Message{Role: core.RoleUser, Content: "hola"})
	require.NoError(t, s.Put(ctx, "s1", state))

	fresh := store.NewChunkedStore(b)
	got, err := fresh.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, state.Intolerances, got.Intolerances)
	require.Equal(t, state.Messages, got.Messages)
}
