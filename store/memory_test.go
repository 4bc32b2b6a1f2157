package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalsight/model"
)

type testDoc struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Cap   int    `json:"cap"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := testDoc{Name: "Nova Records", Email: "label@example.com", Cap: 10}
	require.NoError(t, s.Set(ctx, "labels/label-1", in))

	var out testDoc
	require.NoError(t, s.Get(ctx, "labels/label-1", &out))
	assert.Equal(t, in, out)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()

	var out testDoc
	err := s.Get(context.Background(), "labels/missing", &out)
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestMemoryStoreUpdateMerges(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "labels/label-1", testDoc{Name: "Nova Records", Email: "old@example.com", Cap: 10}))
	require.NoError(t, s.Update(ctx, "labels/label-1", map[string]interface{}{"email": "new@example.com"}))

	var out testDoc
	require.NoError(t, s.Get(ctx, "labels/label-1", &out))
	// Untouched fields survive the merge.
	assert.Equal(t, "Nova Records", out.Name)
	assert.Equal(t, "new@example.com", out.Email)
	assert.Equal(t, 10, out.Cap)
}

func TestMemoryStoreUpdateMissing(t *testing.T) {
	err := NewMemoryStore().Update(context.Background(), "labels/missing", map[string]interface{}{"x": 1})
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestMemoryStoreRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "labels/label-1", testDoc{Name: "Nova Records"}))
	require.NoError(t, s.Remove(ctx, "labels/label-1"))

	var out testDoc
	err := s.Get(ctx, "labels/label-1", &out)
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)

	err = s.Remove(ctx, "labels/label-1")
	require.ErrorAs(t, err, &notFound)
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "labels/b", testDoc{Name: "B"}))
	require.NoError(t, s.Set(ctx, "labels/a", testDoc{Name: "A"}))
	require.NoError(t, s.Set(ctx, "artists/x", testDoc{Name: "X"}))

	docs, err := s.List(ctx, "labels")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// Listings come back sorted by path.
	assert.Equal(t, "labels/a", docs[0].Path)
	assert.Equal(t, "labels/b", docs[1].Path)

	var decoded testDoc
	require.NoError(t, docs[0].Decode(&decoded))
	assert.Equal(t, "A", decoded.Name)
}
