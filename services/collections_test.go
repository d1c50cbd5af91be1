package services

import (
	"context"
	"errors"
	"testing"
)

func TestEnsureCollectionsCreatesBoth(t *testing.T) {
	store := newFakeStore()
	svc := NewCollectionService(store, "")

	if err := svc.EnsureCollections(context.Background(), 42); err != nil {
		t.Fatalf("EnsureCollections failed: %v", err)
	}

	for _, name := range []string{"document_42", "document_42_table"} {
		if !store.collections[name] {
			t.Fatalf("collection %s was not created", name)
		}
	}
}

func TestEnsureCollectionsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewCollectionService(store, "")
	ctx := context.Background()

	if err := svc.EnsureCollections(ctx, 7); err != nil {
		t.Fatalf("first EnsureCollections failed: %v", err)
	}
	if err := svc.EnsureCollections(ctx, 7); err != nil {
		t.Fatalf("second EnsureCollections failed: %v", err)
	}

	if len(store.collections) != 2 {
		t.Fatalf("expected exactly 2 collections, got %d", len(store.collections))
	}
}

func TestEnsureCollectionsPropagatesRealErrors(t *testing.T) {
	store := newFakeStore()
	backendErr := errors.New("connection refused")
	store.createErr = func(name string) error { return backendErr }
	svc := NewCollectionService(store, "")

	err := svc.EnsureCollections(context.Background(), 9)
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestDeleteCollectionsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewCollectionService(store, "")
	ctx := context.Background()

	if err := svc.EnsureCollections(ctx, 11); err != nil {
		t.Fatalf("EnsureCollections failed: %v", err)
	}
	if err := svc.DeleteCollections(ctx, 11); err != nil {
		t.Fatalf("first DeleteCollections failed: %v", err)
	}
	// Second delete hits absent collections and still succeeds.
	if err := svc.DeleteCollections(ctx, 11); err != nil {
		t.Fatalf("second DeleteCollections failed: %v", err)
	}
}

func TestDeleteCollectionsNeverCreated(t *testing.T) {
	store := newFakeStore()
	svc := NewCollectionService(store, "")

	if err := svc.DeleteCollections(context.Background(), 99); err != nil {
		t.Fatalf("deleting never-created collections should succeed, got %v", err)
	}
}

func TestDeleteCollectionsAttemptsBothAndAggregates(t *testing.T) {
	store := newFakeStore()
	svc := NewCollectionService(store, "")
	ctx := context.Background()

	if err := svc.EnsureCollections(ctx, 5); err != nil {
		t.Fatalf("EnsureCollections failed: %v", err)
	}

	textErr := errors.New("schema locked")
	store.deleteErr = func(name string) error {
		if name == "document_5" {
			return textErr
		}
		return nil
	}

	err := svc.DeleteCollections(ctx, 5)
	if !errors.Is(err, textErr) {
		t.Fatalf("expected aggregated text-collection error, got %v", err)
	}
	// The table collection must still have been deleted.
	if store.collections["document_5_table"] {
		t.Fatal("table collection delete was skipped after text failure")
	}
}
