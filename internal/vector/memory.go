package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/xxxsen/docchat/internal/model"
)

// memoryStore keeps chunks in process memory. Useful for development and as
// the test double behind the ingestion idempotency checks.
type memoryStore struct {
	mu     sync.RWMutex
	chunks map[string][]model.Chunk
}

func init() {
	Register("memory", func(args interface{}) (Store, error) {
		return NewMemory(), nil
	})
}

func NewMemory() Store {
	return &memoryStore{chunks: make(map[string][]model.Chunk)}
}

func (s *memoryStore) Add(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := chunks[0].DocumentID
	s.chunks[docID] = append(s.chunks[docID], chunks...)
	return nil
}

func (s *memoryStore) Query(ctx context.Context, vector []float32, topK int, documentID string) ([]model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidates := s.chunks[documentID]
	type scored struct {
		chunk model.Chunk
		score float32
	}
	matches := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, scored{chunk: c, score: cosineSimilarity(vector, c.Embedding)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if topK > len(matches) {
		topK = len(matches)
	}
	result := make([]model.Chunk, 0, topK)
	for i := 0; i < topK; i++ {
		result = append(result, matches[i].chunk)
	}
	return result, nil
}

func (s *memoryStore) ExistsFor(ctx context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[documentID]) > 0, nil
}

func (s *memoryStore) DeleteFor(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

func (s *memoryStore) CountDocuments(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
