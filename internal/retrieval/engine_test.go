package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/kb"
	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/vector"
)

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (e *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{1, 0}, nil
}

func (e *countingEmbedder) ModelName() string { return "fake-embed" }

func newTestEngine(t *testing.T) (*Engine, *countingEmbedder, vector.Store, kb.Store) {
	t.Helper()
	kbstore := kb.NewMemory()
	require.NoError(t, kbstore.Put(context.Background(), []model.CachedAnswer{
		{DocumentID: "doc-1", StandardQuestion: "What is X?", Answer: "Y"},
	}))
	vstore := vector.NewMemory()
	emb := &countingEmbedder{}
	engine := NewEngine(kb.NewMatcher(kbstore, 85), emb, vstore, 2, nil)
	return engine, emb, vstore, kbstore
}

func TestRetrieveFastPathSkipsEmbedding(t *testing.T) {
	engine, emb, _, _ := newTestEngine(t)

	got, err := engine.Retrieve(context.Background(), "doc-1", "what is x")
	require.NoError(t, err)
	require.True(t, got.Cached())
	require.Equal(t, "Y", got.CachedAnswer)
	require.Equal(t, 0, emb.calls, "fast path must not embed the query")
}

func TestRetrieveFallsBackToVectorSearch(t *testing.T) {
	ctx := context.Background()
	engine, emb, vstore, _ := newTestEngine(t)
	require.NoError(t, vstore.Add(ctx, []model.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Text: "chapter one", Embedding: []float32{1, 0}},
		{ID: "doc-1:1", DocumentID: "doc-1", Text: "chapter two", Embedding: []float32{0.9, 0.1}},
		{ID: "doc-1:2", DocumentID: "doc-1", Text: "chapter three", Embedding: []float32{0, 1}},
	}))

	got, err := engine.Retrieve(ctx, "doc-1", "summarize the opening chapters")
	require.NoError(t, err)
	require.False(t, got.Cached())
	require.Contains(t, got.Context, "chapter one")
	require.Contains(t, got.Context, "chapter two")
	require.NotContains(t, got.Context, "chapter three", "topK bounds the joined context")
	require.Equal(t, 1, emb.calls)
}

func TestRetrieveScopedToDocument(t *testing.T) {
	ctx := context.Background()
	engine, _, vstore, _ := newTestEngine(t)
	require.NoError(t, vstore.Add(ctx, []model.Chunk{
		{ID: "doc-2:0", DocumentID: "doc-2", Text: "unrelated", Embedding: []float32{1, 0}},
	}))

	_, err := engine.Retrieve(ctx, "doc-1", "anything about doc one")
	require.ErrorIs(t, err, apperrors.ErrNoRelevantContext)
}

func TestRetrieveNoChunks(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	_, err := engine.Retrieve(context.Background(), "doc-1", "completely different question")
	require.ErrorIs(t, err, apperrors.ErrNoRelevantContext)
}
