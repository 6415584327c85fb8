package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/common/logutil"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/kb"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/report"
	"github.com/xxxsen/docchat/internal/vector"
)

const contextSeparator = "\n\n---\n\n"

// Result is either a finished cached answer or grounding context for the
// generation step, never both.
type Result struct {
	CachedAnswer string
	Context      string
}

// Cached reports whether the fast path produced a ready answer.
func (r Result) Cached() bool {
	return r.CachedAnswer != ""
}

// Engine resolves a question against one document in two tiers: first the
// cached Q&A pairs via fuzzy matching, then similarity search over the
// document's chunks. The fast path skips embedding and generation entirely.
type Engine struct {
	matcher  *kb.Matcher
	embedder ai.Embedder
	vstore   vector.Store
	topK     int
	reporter report.Reporter
}

func NewEngine(matcher *kb.Matcher, embedder ai.Embedder, vstore vector.Store, topK int, reporter report.Reporter) *Engine {
	if topK <= 0 {
		topK = 5
	}
	if reporter == nil {
		reporter = report.NewNopReporter()
	}
	return &Engine{
		matcher:  matcher,
		embedder: embedder,
		vstore:   vstore,
		topK:     topK,
		reporter: reporter,
	}
}

// Retrieve returns a cached answer when the query closely matches a stored
// standard question, otherwise the joined top chunks of the document. No
// relevant chunk at all yields ErrNoRelevantContext.
func (e *Engine) Retrieve(ctx context.Context, documentID string, query string) (Result, error) {
	if e.matcher != nil {
		entry, ok, err := e.matcher.Match(ctx, documentID, query)
		if err != nil {
			// Cache trouble must not take retrieval down.
			logutil.GetLogger(ctx).Warn("cached answer lookup failed",
				zap.String("document_id", documentID), zap.Error(err))
		} else if ok {
			e.reporter.Report(ctx, report.EventFastPathHit,
				zap.String("document_id", documentID),
				zap.String("standard_question", entry.StandardQuestion),
			)
			return Result{CachedAnswer: entry.Answer}, nil
		}
	}
	queryVector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("embed query: %w", err)
	}
	chunks, err := e.vstore.Query(ctx, queryVector, e.topK, documentID)
	if err != nil {
		return Result{}, fmt.Errorf("query chunks: %w", err)
	}
	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("%w: document %s", apperrors.ErrNoRelevantContext, documentID)
	}
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return Result{Context: strings.Join(texts, contextSeparator)}, nil
}
