package kb

import (
	"context"
	"sync"

	"github.com/xxxsen/docchat/internal/model"
)

// Store holds the pre-generated question/answer pairs of indexed documents.
type Store interface {
	// Put replaces nothing; entries for the same (document, question) pair
	// overwrite the previous answer.
	Put(ctx context.Context, entries []model.CachedAnswer) error
	// Get returns all cached answers of one document.
	Get(ctx context.Context, documentID string) ([]model.CachedAnswer, error)
	// DeleteFor removes all cached answers of the document.
	DeleteFor(ctx context.Context, documentID string) error
	// Count returns the total number of cached answers.
	Count(ctx context.Context) (int, error)
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]model.CachedAnswer
}

// NewMemory returns an in-process store, used in development mode and tests.
func NewMemory() Store {
	return &memoryStore{entries: make(map[string]map[string]model.CachedAnswer)}
}

func (s *memoryStore) Put(ctx context.Context, entries []model.CachedAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		byQuestion := s.entries[e.DocumentID]
		if byQuestion == nil {
			byQuestion = make(map[string]model.CachedAnswer)
			s.entries[e.DocumentID] = byQuestion
		}
		byQuestion[e.StandardQuestion] = e
	}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, documentID string) ([]model.CachedAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byQuestion := s.entries[documentID]
	result := make([]model.CachedAnswer, 0, len(byQuestion))
	for _, e := range byQuestion {
		result = append(result, e)
	}
	return result, nil
}

func (s *memoryStore) DeleteFor(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, documentID)
	return nil
}

func (s *memoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, byQuestion := range s.entries {
		total += len(byQuestion)
	}
	return total, nil
}
