package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"docsearch-platform/internal/logger"
	"docsearch-platform/internal/telemetry"
	"docsearch-platform/services"
)

const TaskDocumentIngest = "document:ingest"

// IngestPayload carries everything one ingestion job needs. Exactly
// one of TextPath / ChunksPath is set.
type IngestPayload struct {
	DocumentID int64  `json:"document_id"`
	TextPath   string `json:"text_path,omitempty"`
	ChunksPath string `json:"chunks_path,omitempty"`
}

// NewDocumentIngestTask builds the asynq task for one document.
func NewDocumentIngestTask(documentID int64, textPath, chunksPath string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{
		DocumentID: documentID,
		TextPath:   textPath,
		ChunksPath: chunksPath,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskDocumentIngest,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// Enqueuer submits ingestion tasks through an asynq client.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueIngest implements services.IngestEnqueuer.
func (e *Enqueuer) EnqueueIngest(ctx context.Context, documentID int64, textPath, chunksPath string) error {
	task, err := NewDocumentIngestTask(documentID, textPath, chunksPath)
	if err != nil {
		return fmt.Errorf("failed to build ingest task: %w", err)
	}
	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue ingest task: %w", err)
	}
	logger.Info("ingest task enqueued", "document_id", documentID, "task_id", info.ID, "queue", info.Queue)
	return nil
}

// TaskProcessor dispatches queue tasks to the pipeline. metrics may be
// nil, in which case job outcomes are not recorded.
type TaskProcessor struct {
	ingest  *services.IngestService
	metrics *telemetry.Metrics
}

func NewTaskProcessor(ingest *services.IngestService, metrics *telemetry.Metrics) *TaskProcessor {
	return &TaskProcessor{ingest: ingest, metrics: metrics}
}

// HandleDocumentIngest runs the ingestion pipeline for one task.
// Transient failures are retried by asynq; data-integrity failures
// skip retry because re-reading the same bad input cannot succeed.
func (p *TaskProcessor) HandleDocumentIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("processing ingest task", "document_id", payload.DocumentID)

	started := time.Now()
	err := p.ingest.Run(ctx, payload.DocumentID, payload.TextPath, payload.ChunksPath)
	if p.metrics != nil {
		p.metrics.RecordIngest(ctx, time.Since(started).Seconds(), err != nil)
	}
	if err != nil {
		if errors.Is(err, services.ErrDataIntegrity) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}
