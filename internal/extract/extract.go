package extract

import (
	"fmt"
	"path"
	"strings"
	"sync"

	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
)

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

type ExtractorFunc func(data []byte) (string, error)

func (f ExtractorFunc) Extract(data []byte) (string, error) {
	return f(data)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Extractor{}
)

func Register(ext string, e Extractor) {
	key := normalizeExt(ext)
	if key == "" || e == nil {
		return
	}
	registryMu.Lock()
	registry[key] = e
	registryMu.Unlock()
}

// Text extracts plain text from data, choosing the extractor by the file
// name's extension. Unknown extensions fail with ErrUnsupportedFormat.
func Text(data []byte, name string) (string, error) {
	key := normalizeExt(path.Ext(name))
	registryMu.RLock()
	e := registry[key]
	registryMu.RUnlock()
	if e == nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, name)
	}
	return e.Extract(data)
}

// Supported reports whether the file name maps to a registered extractor.
func Supported(name string) bool {
	key := normalizeExt(path.Ext(name))
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[key] != nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func init() {
	Register("txt", ExtractorFunc(func(data []byte) (string, error) {
		return string(data), nil
	}))
}
