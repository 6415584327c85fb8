package ai

import (
	"fmt"
	"sync"
)

// Ring hands out credentials round-robin. Selection state lives in the ring
// itself rather than a global iterator, so retry behavior is deterministic
// when tests inject a fixed key sequence.
type Ring struct {
	mu   sync.Mutex
	keys []string
	next int
}

func NewRing(keys []string) (*Ring, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("at least one api key is required")
	}
	return &Ring{keys: cleaned}, nil
}

func (r *Ring) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.keys[r.next]
	r.next = (r.next + 1) % len(r.keys)
	return key
}

func (r *Ring) Size() int {
	return len(r.keys)
}
