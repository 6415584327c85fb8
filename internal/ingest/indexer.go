package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/common/logutil"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/chunk"
	"github.com/xxxsen/docchat/internal/kb"
	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/report"
	"github.com/xxxsen/docchat/internal/vector"
)

// embedBatchSize bounds a single embedding request: the Gemini batch embedding
// endpoint rejects more than 100 inputs per call, so large documents embed in
// several calls while still committing to the store as one batch.
const embedBatchSize = 100

// Indexer makes a document chattable: fetch, extract, chunk, embed, store.
// Indexing is idempotent per document and commits chunks as one batch, so a
// mid-flight failure leaves no partial index behind.
type Indexer struct {
	loader   *TextLoader
	splitter *chunk.Splitter
	embedder ai.Embedder
	vstore   vector.Store
	kbgen    *ai.KBGenerator
	kbstore  kb.Store
	reporter report.Reporter
}

func NewIndexer(loader *TextLoader, splitter *chunk.Splitter, embedder ai.Embedder,
	vstore vector.Store, kbgen *ai.KBGenerator, kbstore kb.Store, reporter report.Reporter) *Indexer {
	if reporter == nil {
		reporter = report.NewNopReporter()
	}
	return &Indexer{
		loader:   loader,
		splitter: splitter,
		embedder: embedder,
		vstore:   vstore,
		kbgen:    kbgen,
		kbstore:  kbstore,
		reporter: reporter,
	}
}

// EnsureIndexed indexes the document unless it already is. It reports whether
// this call performed the indexing.
func (idx *Indexer) EnsureIndexed(ctx context.Context, doc model.DocumentRef) (bool, error) {
	exists, err := idx.vstore.ExistsFor(ctx, doc.ID)
	if err != nil {
		return false, fmt.Errorf("check index for %s: %w", doc.ID, err)
	}
	if exists {
		return false, nil
	}
	idx.reporter.Report(ctx, report.EventIngestStarted, zap.String("document_id", doc.ID))
	if err := idx.index(ctx, doc); err != nil {
		idx.reporter.Report(ctx, report.EventIngestFailed, zap.String("document_id", doc.ID), zap.Error(err))
		return false, err
	}
	return true, nil
}

func (idx *Indexer) index(ctx context.Context, doc model.DocumentRef) error {
	text, err := idx.loader.Load(ctx, doc)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: %s", apperrors.ErrEmptyDocument, doc.ID)
	}
	parts := idx.splitter.Split(text)
	if len(parts) == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrEmptyDocument, doc.ID)
	}
	chunks := make([]model.Chunk, 0, len(parts))
	for start := 0; start < len(parts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(parts) {
			end = len(parts)
		}
		vectors, err := idx.embedder.EmbedDocuments(ctx, parts[start:end])
		if err != nil {
			return fmt.Errorf("embed %s: %w", doc.ID, err)
		}
		for i, vec := range vectors {
			ordinal := start + i
			chunks = append(chunks, model.Chunk{
				ID:           model.ChunkID(doc.ID, ordinal),
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
				Ordinal:      ordinal,
				Text:         parts[ordinal],
				Embedding:    vec,
			})
		}
	}
	if err := idx.vstore.Add(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks for %s: %w", doc.ID, err)
	}
	idx.generateKB(ctx, doc, text)
	return nil
}

// generateKB is best effort: a document without cached answers is still fully
// chattable through vector retrieval.
func (idx *Indexer) generateKB(ctx context.Context, doc model.DocumentRef, text string) {
	if idx.kbgen == nil || idx.kbstore == nil {
		return
	}
	entries, err := idx.kbgen.Generate(ctx, doc, text)
	if err != nil {
		logutil.GetLogger(ctx).Error("generate knowledge base failed",
			zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	if err := idx.kbstore.Put(ctx, entries); err != nil {
		logutil.GetLogger(ctx).Error("store knowledge base failed",
			zap.String("document_id", doc.ID), zap.Error(err))
	}
}
