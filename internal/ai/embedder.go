package ai

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Embedder turns text into vectors. Document embedding is batched because
// ingestion embeds every chunk of a document in one call.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

type providerEmbedder struct {
	provider Provider
	ring     *Ring
	model    string
}

func NewEmbedder(provider Provider, ring *Ring, model string) Embedder {
	return &providerEmbedder{provider: provider, ring: ring, model: model}
}

func (e *providerEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.provider.Embed(ctx, e.model, texts, TaskTypeDocument, e.ring.Next())
}

func (e *providerEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.provider.Embed(ctx, e.model, []string{text}, TaskTypeQuery, e.ring.Next())
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *providerEmbedder) ModelName() string {
	return e.model
}

// WrapQueryCache adds an expiring LRU in front of query embedding, so
// repeated questions do not burn embedding quota. Document embedding is not
// cached; ingestion already runs at most once per document.
func WrapQueryCache(next Embedder, size int, ttl time.Duration) Embedder {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &cachedEmbedder{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type cachedEmbedder struct {
	next  Embedder
	cache *expirable.LRU[string, []float32]
}

func (c *cachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedDocuments(ctx, texts)
}

func (c *cachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(text); ok {
		return cloneVector(cached), nil
	}
	vector, err := c.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, cloneVector(vector))
	return vector, nil
}

func (c *cachedEmbedder) ModelName() string {
	return c.next.ModelName()
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
