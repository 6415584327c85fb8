package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/model"
)

func TestMemoryStoreQueryFiltersByDocument(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Add(ctx, []model.Chunk{
		{ID: "a:0", DocumentID: "a", Text: "alpha", Embedding: []float32{1, 0}},
		{ID: "a:1", DocumentID: "a", Text: "beta", Embedding: []float32{0, 1}},
	}))
	require.NoError(t, st.Add(ctx, []model.Chunk{
		{ID: "b:0", DocumentID: "b", Text: "other", Embedding: []float32{1, 0}},
	}))

	got, err := st.Query(ctx, []float32{1, 0}, 5, "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "alpha", got[0].Text)
	for _, c := range got {
		require.Equal(t, "a", c.DocumentID)
	}
}

func TestMemoryStoreQueryTopK(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	require.NoError(t, st.Add(ctx, []model.Chunk{
		{ID: "a:0", DocumentID: "a", Embedding: []float32{1, 0}},
		{ID: "a:1", DocumentID: "a", Embedding: []float32{0.9, 0.1}},
		{ID: "a:2", DocumentID: "a", Embedding: []float32{0, 1}},
	}))
	got, err := st.Query(ctx, []float32{1, 0}, 2, "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestMemoryStoreExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	exists, err := st.ExistsFor(ctx, "a")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, st.Add(ctx, []model.Chunk{{ID: "a:0", DocumentID: "a", Embedding: []float32{1}}}))
	exists, err = st.ExistsFor(ctx, "a")
	require.NoError(t, err)
	require.True(t, exists)

	count, err := st.CountDocuments(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, st.DeleteFor(ctx, "a"))
	exists, err = st.ExistsFor(ctx, "a")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestMemoryStoreQueryUnknownDocument(t *testing.T) {
	st := NewMemory()
	got, err := st.Query(context.Background(), []float32{1, 0}, 5, "missing")
	require.NoError(t, err)
	require.Empty(t, got)
}
