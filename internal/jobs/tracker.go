package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docsearch-platform/models"
)

// StatusRecord is the ephemeral progress record for one document's
// ingestion job. It is a TTL cache over the document's durable status
// field, never a second source of truth: a missing record means
// "unknown, consult the document record".
type StatusRecord struct {
	DocumentID   int64                 `json:"document_id"`
	Status       models.DocumentStatus `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// statusStore is the slice of the Redis API the tracker needs;
// *redis.Client satisfies it and tests inject a fake.
type statusStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Tracker records pipeline progress per document in Redis.
type Tracker struct {
	rdb statusStore
	ttl time.Duration
}

// NewTracker creates a tracker with the given record TTL. ttl <= 0
// defaults to 24h.
func NewTracker(rdb statusStore, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tracker{rdb: rdb, ttl: ttl}
}

func statusKey(documentID int64) string {
	return fmt.Sprintf("document:status:%d", documentID)
}

// SetStatus writes a status record, enforcing the pipeline state
// machine: pending → processing → embedding → completed, any
// non-terminal stage → failed. Setting the same status again is a
// no-op, not an error.
func (t *Tracker) SetStatus(ctx context.Context, documentID int64, status models.DocumentStatus, errMsg string) error {
	current, ok, err := t.GetStatus(ctx, documentID)
	if err != nil {
		return err
	}
	if ok && current.Status != status {
		if !current.Status.CanTransitionTo(status) {
			return fmt.Errorf("invalid status transition for document %d: %s -> %s",
				documentID, current.Status, status)
		}
	}

	record := StatusRecord{
		DocumentID:   documentID,
		Status:       status,
		ErrorMessage: errMsg,
		UpdatedAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal status record: %w", err)
	}

	if err := t.rdb.Set(ctx, statusKey(documentID), payload, t.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write status for document %d: %w", documentID, err)
	}
	return nil
}

// GetStatus reads the status record for a document. The second return
// is false when no record exists (expired or never written), which is
// not an error.
func (t *Tracker) GetStatus(ctx context.Context, documentID int64) (StatusRecord, bool, error) {
	raw, err := t.rdb.Get(ctx, statusKey(documentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return StatusRecord{}, false, nil
		}
		return StatusRecord{}, false, fmt.Errorf("failed to read status for document %d: %w", documentID, err)
	}

	var record StatusRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return StatusRecord{}, false, fmt.Errorf("corrupt status record for document %d: %w", documentID, err)
	}
	return record, true, nil
}

// Clear drops the status record, typically on document deletion.
func (t *Tracker) Clear(ctx context.Context, documentID int64) error {
	if err := t.rdb.Del(ctx, statusKey(documentID)).Err(); err != nil {
		return fmt.Errorf("failed to clear status for document %d: %w", documentID, err)
	}
	return nil
}
