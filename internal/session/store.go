package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xxxsen/docchat/internal/model"
)

// Store maps session ids to durable UserSession records backed by a single
// JSON file. All access serializes through one lock; every upsert rewrites
// the whole file, so the contract is last-writer-wins under the lock.
type Store struct {
	mu       sync.Mutex
	path     string
	sessions map[string]*model.UserSession
	now      func() time.Time
}

func Open(path string) (*Store, error) {
	st := &Store{
		path:     path,
		sessions: make(map[string]*model.UserSession),
		now:      time.Now,
	}
	if err := st.load(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.sessions); err != nil {
		return fmt.Errorf("decode session file: %w", err)
	}
	return nil
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Get returns a copy of the session, or ok=false when it does not exist yet.
func (s *Store) Get(id string) (model.UserSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return model.UserSession{}, false
	}
	return cloneSession(sess), true
}

// Upsert applies mutate to the current session record (creating a default
// MainMenu session on first contact) and persists the full record set. The
// mutator runs under the store lock and must not block on network calls.
func (s *Store) Upsert(id string, mutate func(*model.UserSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &model.UserSession{
			ID:        id,
			State:     model.StateMainMenu,
			CreatedAt: s.now().Unix(),
		}
		s.sessions[id] = sess
	}
	mutate(sess)
	if !sess.State.Valid() {
		sess.State = model.StateMainMenu
	}
	return s.saveLocked()
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func cloneSession(src *model.UserSession) model.UserSession {
	dst := *src
	if src.History != nil {
		dst.History = append([]model.Turn(nil), src.History...)
	}
	if src.AvailableDocuments != nil {
		dst.AvailableDocuments = append([]model.DocumentRef(nil), src.AvailableDocuments...)
	}
	if src.SelectedDocument != nil {
		doc := *src.SelectedDocument
		dst.SelectedDocument = &doc
	}
	return dst
}
