package kb

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/xxxsen/docchat/internal/model"
)

// Matcher answers repeated questions from the cached pairs without touching
// the generation pipeline. A hit requires a token-sort similarity of at least
// the configured threshold on a 0-100 scale.
type Matcher struct {
	store     Store
	threshold float64
	metric    *metrics.Levenshtein
}

func NewMatcher(store Store, threshold int) *Matcher {
	return &Matcher{
		store:     store,
		threshold: float64(threshold),
		metric:    metrics.NewLevenshtein(),
	}
}

// Match returns the best cached answer of the document if its standard
// question is close enough to the query, otherwise ok is false.
func (m *Matcher) Match(ctx context.Context, documentID string, query string) (model.CachedAnswer, bool, error) {
	entries, err := m.store.Get(ctx, documentID)
	if err != nil {
		return model.CachedAnswer{}, false, err
	}
	normalized := tokenSort(query)
	if normalized == "" {
		return model.CachedAnswer{}, false, nil
	}
	var best model.CachedAnswer
	bestScore := -1.0
	for _, e := range entries {
		score := strutil.Similarity(normalized, tokenSort(e.StandardQuestion), m.metric) * 100
		if score > bestScore {
			bestScore = score
			best = e
		}
	}
	if bestScore < m.threshold {
		return model.CachedAnswer{}, false, nil
	}
	return best, true, nil
}

// tokenSort lowercases, strips punctuation and reorders words so that casing
// and word order never defeat a match.
func tokenSort(s string) string {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
