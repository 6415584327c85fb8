package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/docchat/internal/model"
)

const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

// GenerateRequest carries one generation call: prior conversation turns plus
// the final user prompt.
type GenerateRequest struct {
	History []model.Turn
	Prompt  string
}

// Provider is the upstream model API. Credentials are chosen per call so the
// orchestrator can rotate keys across attempts.
type Provider interface {
	Name() string
	Generate(ctx context.Context, model string, req GenerateRequest, apiKey string) (string, error)
	Embed(ctx context.Context, model string, texts []string, taskType string, apiKey string) ([][]float32, error)
}

type Factory func(args interface{}) (Provider, error)

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

func NewProvider(name string, args interface{}) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
