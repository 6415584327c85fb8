package member

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Checker decides whether a user may talk to the assistant.
type Checker interface {
	Allowed(ctx context.Context, userID string) (bool, error)
}

type Factory func(args interface{}) (Checker, error)

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

func New(typ string, args interface{}) (Checker, error) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" {
		key = "allow_all"
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported member checker type: %s", typ)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("member checker config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode member checker config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode member checker config: %w", err)
	}
	return nil
}

type allowAll struct{}

func (allowAll) Allowed(ctx context.Context, userID string) (bool, error) {
	return true, nil
}

type staticConfig struct {
	Users []string `json:"users"`
}

type staticChecker struct {
	users map[string]struct{}
}

func (c *staticChecker) Allowed(ctx context.Context, userID string) (bool, error) {
	_, ok := c.users[userID]
	return ok, nil
}

func init() {
	Register("allow_all", func(args interface{}) (Checker, error) {
		return allowAll{}, nil
	})
	Register("static", func(args interface{}) (Checker, error) {
		cfg := &staticConfig{}
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
		users := make(map[string]struct{}, len(cfg.Users))
		for _, u := range cfg.Users {
			u = strings.TrimSpace(u)
			if u != "" {
				users[u] = struct{}{}
			}
		}
		return &staticChecker{users: users}, nil
	})
}
