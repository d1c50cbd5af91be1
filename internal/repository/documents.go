package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"docsearch-platform/models"
)

var (
	// ErrDocumentNotFound is returned when a document id has no record.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentExists is returned when registering an id twice.
	ErrDocumentExists = errors.New("document already exists")
)

// DocumentRepository persists document metadata in MongoDB. The
// document's status field here is the authoritative pipeline state;
// the Redis tracker is only a cache over it.
type DocumentRepository struct {
	coll *mongo.Collection
}

func NewDocumentRepository(db *mongo.Database) *DocumentRepository {
	return &DocumentRepository{coll: db.Collection("documents")}
}

// Create inserts a new document record in pending state.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("document %d: %w", doc.ID, ErrDocumentExists)
		}
		return fmt.Errorf("failed to create document %d: %w", doc.ID, err)
	}
	return nil
}

// GetByID fetches one document by its numeric id.
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document %d: %w", id, err)
	}
	return &doc, nil
}

// UpdateStatus sets the document's durable pipeline status. A
// completed status also stamps processed_at; a failed status records
// the human-readable error message.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, status models.DocumentStatus, errMsg string) error {
	set := bson.M{"status": status}
	if status == models.StatusCompleted {
		set["processed_at"] = time.Now().UTC()
	}
	if status == models.StatusFailed {
		set["error_message"] = errMsg
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update status of document %d: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// SetProcessingData updates the pipeline bookkeeping fields.
func (r *DocumentRepository) SetProcessingData(ctx context.Context, id int64, data models.ProcessingData) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"processing": data}})
	if err != nil {
		return fmt.Errorf("failed to update processing data of document %d: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Delete removes the document record. Deleting an absent record is
// not an error; cleanup must be idempotent.
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete document %d: %w", id, err)
	}
	return nil
}
