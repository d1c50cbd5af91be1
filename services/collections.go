package services

import (
	"context"
	"errors"
	"fmt"

	"docsearch-platform/internal/logger"
	"docsearch-platform/internal/vectorstore"
)

// CollectionService manages the two vector-store collections owned by
// each document. Creation and deletion are idempotent: a pre-existing
// collection on create and a missing collection on delete are both
// success, while every other failure propagates.
type CollectionService struct {
	store vectorstore.Store
	cfg   vectorstore.VectorConfig
}

// NewCollectionService creates the manager. vectorizer selects the
// backend's embedding module; empty means the default.
func NewCollectionService(store vectorstore.Store, vectorizer string) *CollectionService {
	return &CollectionService{
		store: store,
		cfg:   vectorstore.DefaultVectorConfig(vectorizer),
	}
}

// EnsureCollections creates the text and table collections for a
// document if they are absent.
func (s *CollectionService) EnsureCollections(ctx context.Context, documentID int64) error {
	for _, ref := range vectorstore.RefsFor(documentID) {
		err := s.store.CreateCollection(ctx, ref.Name(), s.cfg)
		if err != nil {
			if errors.Is(err, vectorstore.ErrCollectionExists) {
				logger.Debug("collection already exists, skipping creation", "collection", ref.Name())
				continue
			}
			return fmt.Errorf("failed to create collection %s: %w", ref.Name(), err)
		}
	}
	return nil
}

// DeleteCollections removes both of a document's collections. Both
// deletes are always attempted; failures are aggregated so one broken
// collection cannot shadow the other.
func (s *CollectionService) DeleteCollections(ctx context.Context, documentID int64) error {
	var errs []error
	for _, ref := range vectorstore.RefsFor(documentID) {
		err := s.store.DeleteCollection(ctx, ref.Name())
		if err != nil {
			if errors.Is(err, vectorstore.ErrCollectionNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("failed to delete collection %s: %w", ref.Name(), err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.Info("deleted document collections", "document_id", documentID)
	return nil
}
