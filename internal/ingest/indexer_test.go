package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/chunk"
	"github.com/xxxsen/docchat/internal/kb"
	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/vector"
)

type fakeSource struct {
	docs    map[string][]byte
	fetches int
}

func (s *fakeSource) List(ctx context.Context) ([]model.DocumentRef, error) {
	var refs []model.DocumentRef
	for id := range s.docs {
		refs = append(refs, model.DocumentRef{ID: id, Name: id})
	}
	return refs, nil
}

func (s *fakeSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	s.fetches++
	data, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
	}
	return data, nil
}

type fakeEmbedder struct {
	calls int
	texts []string
}

func (e *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.texts = append(e.texts, texts...)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1}
	}
	return vectors, nil
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{float32(len(text)), 1}, nil
}

func (e *fakeEmbedder) ModelName() string { return "fake-embed" }

type kbProvider struct {
	fail  bool
	calls int
}

func (p *kbProvider) Name() string { return "fake" }

func (p *kbProvider) Generate(ctx context.Context, model string, req ai.GenerateRequest, apiKey string) (string, error) {
	p.calls++
	if p.fail {
		return "", apperrors.ErrTransport
	}
	return `[{"standard_question": "What is covered?", "answer": "Everything in the text."}]`, nil
}

func (p *kbProvider) Embed(ctx context.Context, model string, texts []string, taskType string, apiKey string) ([][]float32, error) {
	return nil, fmt.Errorf("not used")
}

func newTestIndexer(t *testing.T, src *fakeSource, emb *fakeEmbedder, vstore vector.Store, kbstore kb.Store, provider ai.Provider) *Indexer {
	t.Helper()
	splitter, err := chunk.NewSplitter(4, 1)
	require.NoError(t, err)
	var kbgen *ai.KBGenerator
	if provider != nil {
		ring, err := ai.NewRing([]string{"k1"})
		require.NoError(t, err)
		orch := ai.NewOrchestrator(provider, ring, ai.OrchestratorConfig{Model: "m", MaxAttempts: 1}, nil)
		kbgen = ai.NewKBGenerator(orch, 1000, nil)
	}
	loader := NewTextLoader(src, 8, time.Minute)
	return NewIndexer(loader, splitter, emb, vstore, kbgen, kbstore, nil)
}

func TestEnsureIndexedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{docs: map[string][]byte{"guide.txt": []byte("one two three four five six")}}
	emb := &fakeEmbedder{}
	vstore := vector.NewMemory()
	idx := newTestIndexer(t, src, emb, vstore, kb.NewMemory(), nil)

	doc := model.DocumentRef{ID: "guide.txt", Name: "guide.txt"}
	done, err := idx.EnsureIndexed(ctx, doc)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, 1, src.fetches)
	require.Equal(t, 1, emb.calls)

	done, err = idx.EnsureIndexed(ctx, doc)
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, 1, src.fetches, "already indexed documents must not be fetched again")
	require.Equal(t, 1, emb.calls, "already indexed documents must not be embedded again")
}

func TestEnsureIndexedChunkOrdinals(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{docs: map[string][]byte{"guide.txt": []byte("w1 w2 w3 w4 w5 w6 w7")}}
	vstore := vector.NewMemory()
	idx := newTestIndexer(t, src, &fakeEmbedder{}, vstore, kb.NewMemory(), nil)

	done, err := idx.EnsureIndexed(ctx, model.DocumentRef{ID: "guide.txt", Name: "guide.txt"})
	require.NoError(t, err)
	require.True(t, done)

	// window 4, overlap 1: "w1..w4", "w4..w7"
	got, err := vstore.Query(ctx, []float32{1, 1}, 10, "guide.txt")
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := map[string]bool{}
	for _, c := range got {
		ids[c.ID] = true
		require.Equal(t, "guide.txt", c.DocumentID)
	}
	require.True(t, ids[model.ChunkID("guide.txt", 0)])
	require.True(t, ids[model.ChunkID("guide.txt", 1)])
}

func TestEnsureIndexedEmptyDocument(t *testing.T) {
	src := &fakeSource{docs: map[string][]byte{"empty.txt": []byte("   \n\t ")}}
	idx := newTestIndexer(t, src, &fakeEmbedder{}, vector.NewMemory(), kb.NewMemory(), nil)

	_, err := idx.EnsureIndexed(context.Background(), model.DocumentRef{ID: "empty.txt", Name: "empty.txt"})
	require.ErrorIs(t, err, apperrors.ErrEmptyDocument)
}

func TestEnsureIndexedUnsupportedFormat(t *testing.T) {
	src := &fakeSource{docs: map[string][]byte{"image.png": {0x89}}}
	idx := newTestIndexer(t, src, &fakeEmbedder{}, vector.NewMemory(), kb.NewMemory(), nil)

	_, err := idx.EnsureIndexed(context.Background(), model.DocumentRef{ID: "image.png", Name: "image.png"})
	require.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}

func TestEnsureIndexedStoresKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{docs: map[string][]byte{"guide.txt": []byte("one two three")}}
	kbstore := kb.NewMemory()
	idx := newTestIndexer(t, src, &fakeEmbedder{}, vector.NewMemory(), kbstore, &kbProvider{})

	done, err := idx.EnsureIndexed(ctx, model.DocumentRef{ID: "guide.txt", Name: "guide.txt"})
	require.NoError(t, err)
	require.True(t, done)

	entries, err := kbstore.Get(ctx, "guide.txt")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "What is covered?", entries[0].StandardQuestion)
}

func TestEnsureIndexedKnowledgeBaseFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{docs: map[string][]byte{"guide.txt": []byte("one two three")}}
	kbstore := kb.NewMemory()
	vstore := vector.NewMemory()
	idx := newTestIndexer(t, src, &fakeEmbedder{}, vstore, kbstore, &kbProvider{fail: true})

	done, err := idx.EnsureIndexed(ctx, model.DocumentRef{ID: "guide.txt", Name: "guide.txt"})
	require.NoError(t, err)
	require.True(t, done)

	exists, err := vstore.ExistsFor(ctx, "guide.txt")
	require.NoError(t, err)
	require.True(t, exists)

	entries, err := kbstore.Get(ctx, "guide.txt")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestTextLoaderCachesExtractedText(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{docs: map[string][]byte{"guide.txt": []byte("hello world")}}
	loader := NewTextLoader(src, 4, time.Minute)

	doc := model.DocumentRef{ID: "guide.txt", Name: "guide.txt"}
	text, err := loader.Load(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, "hello world", text)

	_, err = loader.Load(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, 1, src.fetches)
}
