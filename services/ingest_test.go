package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docsearch-platform/internal/vectorstore"
	"docsearch-platform/models"
)

func newPipeline(store *fakeStore, tracker *fakeTracker, docs *fakeDocs) *IngestService {
	chunker := NewChunkingService(1000, 200)
	collections := NewCollectionService(store, "")
	inserter := NewBatchInserter(store, collections)
	return NewIngestService(chunker, collections, inserter, tracker, docs, 10)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func seedDocument(t *testing.T, docs *fakeDocs, id int64) {
	t.Helper()
	err := docs.Create(context.Background(), &models.Document{ID: id, Name: "doc", Status: models.StatusPending})
	if err != nil {
		t.Fatalf("failed to seed document: %v", err)
	}
}

func TestIngestHappyPathStatusProgression(t *testing.T) {
	store := newFakeStore()
	tracker := newFakeTracker()
	docs := newFakeDocs()
	seedDocument(t, docs, 1)
	tracker.SetStatus(context.Background(), 1, models.StatusPending, "")

	text := strings.Repeat("a", 2500)
	path := writeTempFile(t, "doc.txt", text)

	svc := newPipeline(store, tracker, docs)
	if err := svc.Run(context.Background(), 1, path, ""); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []models.DocumentStatus{
		models.StatusPending,
		models.StatusProcessing,
		models.StatusEmbedding,
		models.StatusCompleted,
	}
	got := tracker.history[1]
	if len(got) != len(want) {
		t.Fatalf("status history %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("status history %v, want %v", got, want)
		}
	}

	doc, err := docs.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if doc.Status != models.StatusCompleted {
		t.Fatalf("durable status is %s, want completed", doc.Status)
	}
	if doc.Processing.ChunkCount != 3 {
		t.Fatalf("expected 3 chunks recorded, got %d", doc.Processing.ChunkCount)
	}
	if got := store.insertedCount("document_1"); got != 3 {
		t.Fatalf("expected 3 indexed chunks, got %d", got)
	}
}

func TestIngestFromChunkFile(t *testing.T) {
	store := newFakeStore()
	tracker := newFakeTracker()
	docs := newFakeDocs()
	seedDocument(t, docs, 2)

	chunkJSON := `[
		{"chunk_id":"c0","content":"prose one","content_type":"text","page_number":1,"section_title":"Intro","chunk_index":0},
		{"chunk_id":"c1","content":"| a | b |","content_type":"table","page_number":2,"section_title":"Data","chunk_index":1}
	]`
	path := writeTempFile(t, "chunks.json", chunkJSON)

	svc := newPipeline(store, tracker, docs)
	if err := svc.Run(context.Background(), 2, "", path); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := store.insertedCount("document_2"); got != 1 {
		t.Fatalf("expected 1 text chunk, got %d", got)
	}
	if got := store.insertedCount("document_2_table"); got != 1 {
		t.Fatalf("expected 1 table chunk, got %d", got)
	}

	doc, _ := docs.GetByID(context.Background(), 2)
	if doc.Processing.TableCount != 1 {
		t.Fatalf("expected 1 table recorded, got %d", doc.Processing.TableCount)
	}
}

func TestIngestMalformedChunkFileFails(t *testing.T) {
	store := newFakeStore()
	tracker := newFakeTracker()
	docs := newFakeDocs()
	seedDocument(t, docs, 3)

	path := writeTempFile(t, "chunks.json", `{"not":"an array"`)

	svc := newPipeline(store, tracker, docs)
	err := svc.Run(context.Background(), 3, "", path)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}

	doc, _ := docs.GetByID(context.Background(), 3)
	if doc.Status != models.StatusFailed {
		t.Fatalf("document status is %s, want failed", doc.Status)
	}
	if doc.ErrorMessage == "" {
		t.Fatal("failed document has no error message")
	}
	// No collections were touched for the broken document.
	if len(store.collections) != 0 {
		t.Fatalf("collections created despite data integrity failure: %v", store.collections)
	}
}

func TestIngestChunkMissingContentFails(t *testing.T) {
	store := newFakeStore()
	tracker := newFakeTracker()
	docs := newFakeDocs()
	seedDocument(t, docs, 4)

	path := writeTempFile(t, "chunks.json", `[{"chunk_id":"c0","content":"  ","chunk_index":0}]`)

	svc := newPipeline(store, tracker, docs)
	err := svc.Run(context.Background(), 4, "", path)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
}

func TestIngestInsertFailureMarksFailed(t *testing.T) {
	store := newFakeStore()
	store.insertErr = func(name string, batch []vectorstore.Object) error {
		return errors.New("network failure")
	}
	tracker := newFakeTracker()
	docs := newFakeDocs()
	seedDocument(t, docs, 5)

	path := writeTempFile(t, "doc.txt", strings.Repeat("b", 1500))

	svc := newPipeline(store, tracker, docs)
	if err := svc.Run(context.Background(), 5, path, ""); err == nil {
		t.Fatal("expected insert failure to propagate")
	}

	rec, ok, _ := tracker.GetStatus(context.Background(), 5)
	if !ok || rec.Status != models.StatusFailed {
		t.Fatalf("tracker status = %+v, want failed", rec)
	}
	if rec.ErrorMessage == "" {
		t.Fatal("failed job has no error message")
	}
}

func TestIngestRetrySucceedsAfterTransientFailure(t *testing.T) {
	store := newFakeStore()
	failing := true
	store.insertErr = func(name string, batch []vectorstore.Object) error {
		if failing {
			return errors.New("network failure")
		}
		return nil
	}
	tracker := newFakeTracker()
	docs := newFakeDocs()
	seedDocument(t, docs, 8)
	tracker.SetStatus(context.Background(), 8, models.StatusPending, "")

	path := writeTempFile(t, "doc.txt", strings.Repeat("d", 1500))
	svc := newPipeline(store, tracker, docs)

	if err := svc.Run(context.Background(), 8, path, ""); err == nil {
		t.Fatal("expected first attempt to fail")
	}
	rec, ok, _ := tracker.GetStatus(context.Background(), 8)
	if !ok || rec.Status != models.StatusFailed {
		t.Fatalf("tracker status after failure = %+v, want failed", rec)
	}

	// The queue retries the task and the backend has recovered. The
	// terminal record of the failed attempt must not block the retry's
	// status updates.
	failing = false
	if err := svc.Run(context.Background(), 8, path, ""); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	rec, ok, _ = tracker.GetStatus(context.Background(), 8)
	if !ok || rec.Status != models.StatusCompleted {
		t.Fatalf("tracker status after retry = %+v, want completed", rec)
	}
	if rec.ErrorMessage != "" {
		t.Fatalf("stale error message survived the retry: %q", rec.ErrorMessage)
	}
	doc, _ := docs.GetByID(context.Background(), 8)
	if doc.Status != models.StatusCompleted {
		t.Fatalf("durable status is %s, want completed", doc.Status)
	}
}

func TestIngestAbortCleansUpCollections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	store := newFakeStore()
	store.insertErr = func(name string, batch []vectorstore.Object) error {
		// Simulate the caller aborting mid-insert.
		cancel()
		return context.Canceled
	}
	tracker := newFakeTracker()
	docs := newFakeDocs()
	seedDocument(t, docs, 6)

	path := writeTempFile(t, "doc.txt", strings.Repeat("c", 1500))

	svc := newPipeline(store, tracker, docs)
	if err := svc.Run(ctx, 6, path, ""); err == nil {
		t.Fatal("expected aborted run to fail")
	}

	// Best-effort cleanup removed the half-populated collections.
	if len(store.collections) != 0 {
		t.Fatalf("collections left behind after abort: %v", store.collections)
	}
}

func TestLoadChunkFileDefaultsContentType(t *testing.T) {
	path := writeTempFile(t, "chunks.json", `[{"chunk_id":"c0","content":"hello","chunk_index":0}]`)

	chunks, err := LoadChunkFile(path)
	if err != nil {
		t.Fatalf("LoadChunkFile failed: %v", err)
	}
	if chunks[0].ContentType != models.ContentTypeText {
		t.Fatalf("content type not defaulted: %q", chunks[0].ContentType)
	}
}
