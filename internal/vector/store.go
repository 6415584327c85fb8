package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/docchat/internal/model"
)

// Store persists chunk embeddings and serves similarity queries. Query MUST
// filter by document id: retrieval never leaks chunks across documents.
type Store interface {
	// Add commits all chunks of one document as a single batch.
	Add(ctx context.Context, chunks []model.Chunk) error
	// Query returns the topK nearest chunks of the given document.
	Query(ctx context.Context, vector []float32, topK int, documentID string) ([]model.Chunk, error)
	// ExistsFor reports whether any chunk of the document is stored.
	ExistsFor(ctx context.Context, documentID string) (bool, error)
	// DeleteFor removes all chunks of the document.
	DeleteFor(ctx context.Context, documentID string) error
	// CountDocuments returns the number of distinct indexed documents.
	CountDocuments(ctx context.Context) (int, error)
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(typ string, args interface{}) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" {
		return nil, fmt.Errorf("vector.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector store type: %s", typ)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("vector store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector store config: %w", err)
	}
	return nil
}
