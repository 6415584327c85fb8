package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/docchat/internal/extract"
	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/source"
)

// TextLoader fetches a document and extracts its plain text, caching the
// result so that indexing and knowledge-base generation never download the
// same document twice in a row.
type TextLoader struct {
	src   source.Source
	cache *expirable.LRU[string, string]
}

func NewTextLoader(src source.Source, cacheSize int, ttl time.Duration) *TextLoader {
	var cache *expirable.LRU[string, string]
	if cacheSize > 0 && ttl > 0 {
		cache = expirable.NewLRU[string, string](cacheSize, nil, ttl)
	}
	return &TextLoader{src: src, cache: cache}
}

func (l *TextLoader) Load(ctx context.Context, doc model.DocumentRef) (string, error) {
	if l.cache != nil {
		if text, ok := l.cache.Get(doc.ID); ok {
			return text, nil
		}
	}
	data, err := l.src.Fetch(ctx, doc.ID)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", doc.ID, err)
	}
	text, err := extract.Text(data, doc.Name)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", doc.ID, err)
	}
	if l.cache != nil {
		l.cache.Add(doc.ID, text)
	}
	return text, nil
}
