package job

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/chunk"
	"github.com/xxxsen/docchat/internal/ingest"
	"github.com/xxxsen/docchat/internal/kb"
	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/vector"
)

type warmupSource struct {
	docs map[string][]byte
}

func (s *warmupSource) List(ctx context.Context) ([]model.DocumentRef, error) {
	var refs []model.DocumentRef
	for id := range s.docs {
		refs = append(refs, model.DocumentRef{ID: id, Name: id})
	}
	return refs, nil
}

func (s *warmupSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	data, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
	}
	return data, nil
}

type warmupEmbedder struct{}

func (warmupEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (warmupEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (warmupEmbedder) ModelName() string { return "warmup" }

func TestIndexWarmupIndexesEverything(t *testing.T) {
	ctx := context.Background()
	src := &warmupSource{docs: map[string][]byte{
		"a.txt": []byte("alpha beta"),
		"b.txt": []byte("gamma delta"),
	}}
	splitter, err := chunk.NewSplitter(800, 100)
	require.NoError(t, err)
	vstore := vector.NewMemory()
	indexer := ingest.NewIndexer(
		ingest.NewTextLoader(src, 4, time.Minute),
		splitter, warmupEmbedder{}, vstore, nil, kb.NewMemory(), nil,
	)

	j := NewIndexWarmup(src, indexer)
	require.Equal(t, "index_warmup", j.Name())
	require.NoError(t, j.Run(ctx))

	count, err := vstore.CountDocuments(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Second run finds everything indexed and changes nothing.
	require.NoError(t, j.Run(ctx))
	count, err = vstore.CountDocuments(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestIndexWarmupSkipsBrokenDocuments(t *testing.T) {
	ctx := context.Background()
	src := &warmupSource{docs: map[string][]byte{
		"good.txt": []byte("alpha beta"),
		"bad.png":  {0x89},
	}}
	splitter, err := chunk.NewSplitter(800, 100)
	require.NoError(t, err)
	vstore := vector.NewMemory()
	indexer := ingest.NewIndexer(
		ingest.NewTextLoader(src, 4, time.Minute),
		splitter, warmupEmbedder{}, vstore, nil, kb.NewMemory(), nil,
	)

	require.NoError(t, NewIndexWarmup(src, indexer).Run(ctx))

	exists, err := vstore.ExistsFor(ctx, "good.txt")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = vstore.ExistsFor(ctx, "bad.png")
	require.NoError(t, err)
	require.False(t, exists)
}
