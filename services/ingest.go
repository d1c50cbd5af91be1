package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"docsearch-platform/internal/jobs"
	"docsearch-platform/internal/logger"
	"docsearch-platform/internal/telemetry"
	"docsearch-platform/models"
)

// ErrDataIntegrity marks failures caused by bad input data (malformed
// chunk file, missing required fields). These are fatal to the current
// job and must not be retried.
var ErrDataIntegrity = errors.New("data integrity error")

// StatusTracker is the job progress side-channel (Redis-backed in
// production, faked in tests).
type StatusTracker interface {
	SetStatus(ctx context.Context, documentID int64, status models.DocumentStatus, errMsg string) error
	GetStatus(ctx context.Context, documentID int64) (jobs.StatusRecord, bool, error)
	Clear(ctx context.Context, documentID int64) error
}

// DocumentStore is the durable document metadata boundary.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	UpdateStatus(ctx context.Context, id int64, status models.DocumentStatus, errMsg string) error
	SetProcessingData(ctx context.Context, id int64, data models.ProcessingData) error
	Delete(ctx context.Context, id int64) error
}

// IngestService runs the per-document ingestion pipeline: chunk,
// ensure collections, batch insert, with status updates at each stage.
// Stages within one job are strictly sequential; jobs for different
// documents run in parallel without coordination because collections
// are namespaced per document id.
type IngestService struct {
	chunker     *ChunkingService
	collections *CollectionService
	inserter    *BatchInserter
	tracker     StatusTracker
	docs        DocumentStore
	batchSize   int
}

func NewIngestService(chunker *ChunkingService, collections *CollectionService, inserter *BatchInserter, tracker StatusTracker, docs DocumentStore, batchSize int) *IngestService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &IngestService{
		chunker:     chunker,
		collections: collections,
		inserter:    inserter,
		tracker:     tracker,
		docs:        docs,
		batchSize:   batchSize,
	}
}

// Run executes the full pipeline for one document. Exactly one of
// textPath (raw extracted text, chunked in-process) or chunksPath
// (pre-chunked JSON from the external extraction stage) should be set.
func (s *IngestService) Run(ctx context.Context, documentID int64, textPath, chunksPath string) error {
	ctx, span := telemetry.Tracer().Start(ctx, "ingest.run")
	defer span.End()

	started := time.Now()

	// Each attempt starts from a clean tracker record: a retried job
	// must not be stuck behind the terminal failed record of the
	// previous attempt.
	if err := s.tracker.Clear(ctx, documentID); err != nil {
		logger.Warn("failed to reset job status", "document_id", documentID, "error", err)
	}
	s.setStage(ctx, documentID, models.StatusProcessing, "")

	chunks, err := s.loadChunks(documentID, textPath, chunksPath)
	if err != nil {
		s.fail(ctx, documentID, err)
		return err
	}

	s.setStage(ctx, documentID, models.StatusEmbedding, "")

	if err := s.inserter.InsertChunks(ctx, documentID, chunks, s.batchSize); err != nil {
		s.fail(ctx, documentID, err)
		// A caller abort should not leave a half-populated,
		// undiscoverable collection behind. Best effort only: the
		// store has no cross-collection transactions.
		if ctx.Err() != nil {
			s.cleanupAfterAbort(documentID)
		}
		return err
	}

	tables := 0
	for _, c := range chunks {
		if c.ContentType == models.ContentTypeTable {
			tables++
		}
	}
	data := models.ProcessingData{
		ChunkCount: len(chunks),
		TableCount: tables,
		TextPath:   textPath,
		ChunksPath: chunksPath,
	}
	if err := s.docs.SetProcessingData(ctx, documentID, data); err != nil {
		logger.Error("failed to record processing data", "document_id", documentID, "error", err)
	}

	s.setStage(ctx, documentID, models.StatusCompleted, "")
	logger.Info("document ingested", "document_id", documentID,
		"chunks", len(chunks), "duration", time.Since(started).String())
	return nil
}

// loadChunks obtains the ordered chunk list, either by decoding the
// external chunk file or by chunking raw text in-process.
func (s *IngestService) loadChunks(documentID int64, textPath, chunksPath string) ([]models.Chunk, error) {
	if chunksPath != "" {
		chunks, err := LoadChunkFile(chunksPath)
		if err != nil {
			return nil, err
		}
		return chunks, nil
	}

	raw, err := os.ReadFile(textPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read document text: %v", ErrDataIntegrity, err)
	}
	chunks := s.chunker.ChunkText(string(raw))
	logger.Info("chunked document text", "document_id", documentID, "chunks", len(chunks))
	return chunks, nil
}

// LoadChunkFile decodes a JSON chunk array produced by the external
// extraction stage and validates the fields the pipeline depends on.
func LoadChunkFile(path string) ([]models.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open chunk file: %v", ErrDataIntegrity, err)
	}
	defer f.Close()

	var chunks []models.Chunk
	if err := json.NewDecoder(f).Decode(&chunks); err != nil {
		return nil, fmt.Errorf("%w: malformed chunk file %s: %v", ErrDataIntegrity, path, err)
	}

	for i := range chunks {
		if strings.TrimSpace(chunks[i].Content) == "" {
			return nil, fmt.Errorf("%w: chunk %d has no content", ErrDataIntegrity, i)
		}
		if chunks[i].ContentType == "" {
			chunks[i].ContentType = models.ContentTypeText
		}
	}
	return chunks, nil
}

// setStage records pipeline progress in both the job tracker and the
// durable document record. Tracker failures are logged, not fatal: it
// is a cache, and losing a progress update must not kill the job.
func (s *IngestService) setStage(ctx context.Context, documentID int64, status models.DocumentStatus, errMsg string) {
	if err := s.tracker.SetStatus(ctx, documentID, status, errMsg); err != nil {
		logger.Error("failed to update job status", "document_id", documentID, "status", status, "error", err)
	}
	if err := s.docs.UpdateStatus(ctx, documentID, status, errMsg); err != nil {
		logger.Error("failed to update document status", "document_id", documentID, "status", status, "error", err)
	}
}

func (s *IngestService) fail(ctx context.Context, documentID int64, cause error) {
	logger.Error("ingestion failed", "document_id", documentID, "error", cause)
	// Status writes must survive a cancelled job context.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	s.setStage(ctx, documentID, models.StatusFailed, cause.Error())
}

func (s *IngestService) cleanupAfterAbort(documentID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.collections.DeleteCollections(ctx, documentID); err != nil {
		logger.Error("best-effort cleanup after abort failed", "document_id", documentID, "error", err)
	}
}
