package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docchat/internal/ingest"
	"github.com/xxxsen/docchat/internal/kb"
	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/pkg/errcode"
	"github.com/xxxsen/docchat/internal/pkg/response"
	"github.com/xxxsen/docchat/internal/service"
	"github.com/xxxsen/docchat/internal/source"
	"github.com/xxxsen/docchat/internal/vector"
)

// AdminHandler serves the ops surface: inventory, reindexing and counters.
type AdminHandler struct {
	src     source.Source
	vstore  vector.Store
	kbstore kb.Store
	indexer *ingest.Indexer
	chat    *service.Chat
}

func NewAdminHandler(src source.Source, vstore vector.Store, kbstore kb.Store,
	indexer *ingest.Indexer, chat *service.Chat) *AdminHandler {
	return &AdminHandler{
		src:     src,
		vstore:  vstore,
		kbstore: kbstore,
		indexer: indexer,
		chat:    chat,
	}
}

type documentStatus struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Indexed bool   `json:"indexed"`
}

func (h *AdminHandler) ListDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	docs, err := h.src.List(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	result := make([]documentStatus, 0, len(docs))
	for _, doc := range docs {
		indexed, err := h.vstore.ExistsFor(ctx, doc.ID)
		if err != nil {
			handleError(c, err)
			return
		}
		result = append(result, documentStatus{ID: doc.ID, Name: doc.Name, Indexed: indexed})
	}
	response.Success(c, gin.H{"documents": result})
}

type reindexRequest struct {
	ID string `json:"id"`
}

// Reindex drops the document's chunks and cached answers and rebuilds both.
func (h *AdminHandler) Reindex(c *gin.Context) {
	var req reindexRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		response.Error(c, errcode.ErrInvalid, "id required")
		return
	}
	ctx := c.Request.Context()
	docs, err := h.src.List(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	var target *model.DocumentRef
	for i := range docs {
		if docs[i].ID == req.ID {
			target = &docs[i]
			break
		}
	}
	if target == nil {
		response.Error(c, errcode.ErrNotFound, "unknown document")
		return
	}
	if err := h.vstore.DeleteFor(ctx, target.ID); err != nil {
		handleError(c, err)
		return
	}
	if err := h.kbstore.DeleteFor(ctx, target.ID); err != nil {
		handleError(c, err)
		return
	}
	if _, err := h.indexer.EnsureIndexed(ctx, *target); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"id": target.ID, "indexed": true})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	documents, err := h.vstore.CountDocuments(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	answers, err := h.kbstore.Count(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"sessions":       h.chat.SessionCount(),
		"documents":      documents,
		"cached_answers": answers,
	})
}
