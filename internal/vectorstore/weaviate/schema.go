package weaviate

import (
	"context"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate/entities/models"

	"docsearch-platform/internal/vectorstore"
)

// CreateCollection creates a class with a single named vector space.
// An already-existing class is reported as
// vectorstore.ErrCollectionExists so callers can treat it as success.
func (c *Client) CreateCollection(ctx context.Context, name string, cfg vectorstore.VectorConfig) error {
	err := c.client.Schema().ClassCreator().
		WithClass(&models.Class{
			Class: name,
			VectorConfig: map[string]models.VectorConfig{
				cfg.VectorName: {
					Vectorizer: map[string]interface{}{
						cfg.Vectorizer: map[string]interface{}{
							"properties": cfg.SourceFields,
						},
					},
					VectorIndexType: cfg.IndexType,
				},
			},
		}).
		Do(ctx)

	if err != nil {
		// Weaviate reports a name conflict as a generic 422; the
		// existence check disambiguates it from real failures.
		exists, _ := c.client.Schema().ClassExistenceChecker().WithClassName(name).Do(ctx)
		if exists {
			return fmt.Errorf("class %s: %w", name, vectorstore.ErrCollectionExists)
		}
		return fmt.Errorf("failed to create class %s: %w", name, err)
	}
	return nil
}

// DeleteCollection removes a class. A missing class is reported as
// vectorstore.ErrCollectionNotFound.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	err := c.client.Schema().ClassDeleter().
		WithClassName(name).
		Do(ctx)

	if err != nil {
		exists, _ := c.client.Schema().ClassExistenceChecker().WithClassName(name).Do(ctx)
		if !exists {
			return fmt.Errorf("class %s: %w", name, vectorstore.ErrCollectionNotFound)
		}
		return fmt.Errorf("failed to delete class %s: %w", name, err)
	}
	return nil
}

// CollectionExists reports whether the class is present in the schema.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := c.client.Schema().ClassExistenceChecker().WithClassName(name).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check class %s: %w", name, err)
	}
	return exists, nil
}

// BatchInsert writes one batch of objects into a class, preserving the
// given order. Object-level errors in an otherwise successful batch
// response are surfaced as a single error.
func (c *Client) BatchInsert(ctx context.Context, name string, objects []vectorstore.Object) error {
	if len(objects) == 0 {
		return nil
	}

	batcher := c.client.Batch().ObjectsBatcher()
	for _, obj := range objects {
		batcher = batcher.WithObjects(&models.Object{
			Class:      name,
			ID:         strfmt.UUID(obj.ID),
			Properties: obj.Properties,
		})
	}

	resp, err := batcher.Do(ctx)
	if err != nil {
		return fmt.Errorf("batch insert into %s failed: %w", name, err)
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch insert into %s: object %s rejected: %s",
				name, r.ID, r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}
