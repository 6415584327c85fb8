package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/ingest"
	"github.com/xxxsen/docchat/internal/source"
)

// IndexWarmup walks the document source and indexes anything not indexed yet,
// so the first user to pick a document does not pay the ingestion cost.
type IndexWarmup struct {
	src     source.Source
	indexer *ingest.Indexer
}

func NewIndexWarmup(src source.Source, indexer *ingest.Indexer) *IndexWarmup {
	return &IndexWarmup{src: src, indexer: indexer}
}

func (j *IndexWarmup) Name() string {
	return "index_warmup"
}

func (j *IndexWarmup) Run(ctx context.Context) error {
	docs, err := j.src.List(ctx)
	if err != nil {
		return err
	}
	indexed := 0
	for _, doc := range docs {
		done, err := j.indexer.EnsureIndexed(ctx, doc)
		if err != nil {
			// One broken document must not stop the rest of the sweep.
			logutil.GetLogger(ctx).Error("warmup index failed",
				zap.String("document_id", doc.ID), zap.Error(err))
			continue
		}
		if done {
			indexed++
		}
	}
	if indexed > 0 {
		logutil.GetLogger(ctx).Info("warmup indexed documents", zap.Int("count", indexed))
	}
	return nil
}
