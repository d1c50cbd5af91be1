package models

import (
	"time"
)

// DocumentStatus tracks a document through the ingestion pipeline
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusEmbedding  DocumentStatus = "embedding"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether no further status transitions are valid.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving to next is a valid pipeline
// transition. The happy path is strictly forward
// (pending → processing → embedding → completed); any non-terminal
// stage may move directly to failed.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusEmbedding
	case StatusEmbedding:
		return next == StatusCompleted
	}
	return false
}

// Document represents an ingested document's durable metadata record.
// The numeric ID is the join key between this record and the
// per-document collections in the vector store.
type Document struct {
	ID           int64          `bson:"_id" json:"id"`
	Name         string         `bson:"name" json:"name"`
	Status       DocumentStatus `bson:"status" json:"status"`
	ErrorMessage string         `bson:"error_message,omitempty" json:"error_message,omitempty"`
	Processing   ProcessingData `bson:"processing" json:"processing"`
	UploadedAt   time.Time      `bson:"uploaded_at" json:"uploaded_at"`
	ProcessedAt  *time.Time     `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}

// ProcessingData holds pipeline bookkeeping for a document
type ProcessingData struct {
	ChunkCount int    `bson:"chunk_count" json:"chunk_count"`
	TableCount int    `bson:"table_count" json:"table_count"`
	TextPath   string `bson:"text_path,omitempty" json:"text_path,omitempty"`
	ChunksPath string `bson:"chunks_path,omitempty" json:"chunks_path,omitempty"`
}

// Content types a chunk may carry; they decide which collection the
// chunk is indexed into.
const (
	ContentTypeText  = "text"
	ContentTypeTable = "table"
)

// Chunk is the unit of vector indexing: a bounded segment of a
// document's text with positional and type metadata. Chunks are
// immutable once written; Score is populated only on read from a
// hybrid query and is never persisted.
type Chunk struct {
	ID           string  `json:"chunk_id,omitempty"`
	Content      string  `json:"content"`
	ContentType  string  `json:"content_type,omitempty"`
	PageNumber   int     `json:"page_number,omitempty"`
	SectionTitle string  `json:"section_title,omitempty"`
	ChunkIndex   int     `json:"chunk_index"`
	Score        float64 `json:"score,omitempty"`
}
