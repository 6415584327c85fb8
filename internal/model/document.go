package model

import "fmt"

type DocumentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Chunk is the unit of semantic search: an overlapping word window of a
// document's text plus its embedding.
type Chunk struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	DocumentName string    `json:"document_name"`
	Ordinal      int       `json:"ordinal"`
	Text         string    `json:"text"`
	Embedding    []float32 `json:"embedding,omitempty"`
}

// ChunkID derives the stable chunk identifier from its document and ordinal.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s:%d", documentID, ordinal)
}

// CachedAnswer is one entry of a document's generated Q&A knowledge base,
// matched fuzzily against user questions before any retrieval happens.
type CachedAnswer struct {
	DocumentID       string `json:"document_id"`
	StandardQuestion string `json:"standard_question"`
	Answer           string `json:"answer"`
}
