package services

import (
	"context"
	"fmt"
	"time"

	"docsearch-platform/internal/jobs"
	"docsearch-platform/internal/logger"
	"docsearch-platform/models"
)

// IngestEnqueuer submits ingestion jobs to the task queue.
type IngestEnqueuer interface {
	EnqueueIngest(ctx context.Context, documentID int64, textPath, chunksPath string) error
}

// DocumentService owns the document lifecycle around the pipeline:
// registration + job submission, status reads, and deletion cleanup.
type DocumentService struct {
	docs        DocumentStore
	collections *CollectionService
	tracker     StatusTracker
	enqueuer    IngestEnqueuer
}

func NewDocumentService(docs DocumentStore, collections *CollectionService, tracker StatusTracker, enqueuer IngestEnqueuer) *DocumentService {
	return &DocumentService{
		docs:        docs,
		collections: collections,
		tracker:     tracker,
		enqueuer:    enqueuer,
	}
}

// Create registers a document in pending state and submits its
// ingestion job.
func (s *DocumentService) Create(ctx context.Context, id int64, name, textPath, chunksPath string) (*models.Document, error) {
	if textPath == "" && chunksPath == "" {
		return nil, fmt.Errorf("document %d: either text_path or chunks_path is required", id)
	}

	doc := &models.Document{
		ID:         id,
		Name:       name,
		Status:     models.StatusPending,
		UploadedAt: time.Now().UTC(),
		Processing: models.ProcessingData{
			TextPath:   textPath,
			ChunksPath: chunksPath,
		},
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.tracker.SetStatus(ctx, id, models.StatusPending, ""); err != nil {
		logger.Error("failed to seed job status", "document_id", id, "error", err)
	}

	if err := s.enqueuer.EnqueueIngest(ctx, id, textPath, chunksPath); err != nil {
		msg := fmt.Sprintf("failed to enqueue ingestion: %v", err)
		if uerr := s.docs.UpdateStatus(ctx, id, models.StatusFailed, msg); uerr != nil {
			logger.Error("failed to mark document failed", "document_id", id, "error", uerr)
		}
		if terr := s.tracker.SetStatus(ctx, id, models.StatusFailed, msg); terr != nil {
			logger.Error("failed to mark job failed", "document_id", id, "error", terr)
		}
		return nil, fmt.Errorf("document %d: %s", id, msg)
	}

	logger.Info("document registered for ingestion", "document_id", id, "name", name)
	return doc, nil
}

// Status returns the current pipeline status, preferring the fast job
// tracker and falling back to the durable document record when the
// tracker has no entry (expired or never written).
func (s *DocumentService) Status(ctx context.Context, id int64) (jobs.StatusRecord, error) {
	record, ok, err := s.tracker.GetStatus(ctx, id)
	if err != nil {
		logger.Warn("job tracker unavailable, consulting document record", "document_id", id, "error", err)
	}
	if ok {
		return record, nil
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return jobs.StatusRecord{}, err
	}
	return jobs.StatusRecord{
		DocumentID:   doc.ID,
		Status:       doc.Status,
		ErrorMessage: doc.ErrorMessage,
	}, nil
}

// Delete removes a document and its collections. Collections that
// were never created (ingestion never ran) are fine; any other
// vector-store failure aborts the delete so the document is not
// orphaned from its index.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	if err := s.collections.DeleteCollections(ctx, id); err != nil {
		return fmt.Errorf("failed to delete collections of document %d: %w", id, err)
	}
	if err := s.tracker.Clear(ctx, id); err != nil {
		logger.Warn("failed to clear job status", "document_id", id, "error", err)
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info("document deleted", "document_id", id)
	return nil
}
