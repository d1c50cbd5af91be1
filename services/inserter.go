package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"docsearch-platform/internal/logger"
	"docsearch-platform/internal/vectorstore"
	"docsearch-platform/models"
)

// DefaultBatchSize is the number of chunks per batch insert call.
const DefaultBatchSize = 10

// BatchInserter streams chunks into a document's collections in
// bounded batches, routing each chunk to the text or table collection
// by content type.
type BatchInserter struct {
	store       vectorstore.Store
	collections *CollectionService
}

func NewBatchInserter(store vectorstore.Store, collections *CollectionService) *BatchInserter {
	return &BatchInserter{store: store, collections: collections}
}

// InsertChunks writes chunks in order, flushing a batch when it
// reaches batchSize and once more for the trailing partial batch.
// Each chunk gets a fresh identifier at insert time. A failing batch
// aborts the operation and reports the index of its first chunk;
// earlier batches stay indexed (callers wanting all-or-nothing must
// delete the collections and reingest).
func (b *BatchInserter) InsertChunks(ctx context.Context, documentID int64, chunks []models.Chunk, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if err := b.collections.EnsureCollections(ctx, documentID); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	logger.Info("batch inserting chunks", "document_id", documentID, "chunks", len(chunks), "batch_size", batchSize)

	// Objects are grouped per collection but flushed together at each
	// batch boundary so cross-batch chunk order is preserved.
	pending := map[string][]vectorstore.Object{}
	count := 0
	batchStart := 0

	flush := func() error {
		for _, ref := range vectorstore.RefsFor(documentID) {
			objects := pending[ref.Name()]
			if len(objects) == 0 {
				continue
			}
			if err := b.store.BatchInsert(ctx, ref.Name(), objects); err != nil {
				return fmt.Errorf("batch insert failed at chunk %d: %w", batchStart, err)
			}
		}
		pending = map[string][]vectorstore.Object{}
		return nil
	}

	for i, chunk := range chunks {
		properties := map[string]interface{}{
			"content":       chunk.Content,
			"section_title": chunk.SectionTitle,
			"page_number":   chunk.PageNumber,
			"content_type":  chunk.ContentType,
		}

		name := vectorstore.RefForContentType(documentID, chunk.ContentType).Name()
		pending[name] = append(pending[name], vectorstore.Object{
			ID:         uuid.New().String(),
			Properties: properties,
		})
		count++

		if count == batchSize || i == len(chunks)-1 {
			if err := flush(); err != nil {
				return err
			}
			count = 0
			batchStart = i + 1
		}
	}

	logger.Info("batch insert completed", "document_id", documentID, "chunks", len(chunks))
	return nil
}
