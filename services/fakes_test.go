package services

import (
	"context"
	"fmt"
	"sync"

	"docsearch-platform/internal/jobs"
	"docsearch-platform/internal/repository"
	"docsearch-platform/internal/vectorstore"
	"docsearch-platform/models"
)

// fakeStore is an in-memory vectorstore.Store for pipeline tests.
type fakeStore struct {
	mu          sync.Mutex
	collections map[string]bool
	batches     map[string][][]vectorstore.Object
	batchCalls  int
	createCalls int
	deleteCalls int

	createErr func(name string) error
	deleteErr func(name string) error
	insertErr func(name string, batch []vectorstore.Object) error

	queryResults map[string][]vectorstore.Result
	queryErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections:  map[string]bool{},
		batches:      map[string][][]vectorstore.Object{},
		queryResults: map[string][]vectorstore.Result{},
	}
}

func (f *fakeStore) CreateCollection(ctx context.Context, name string, cfg vectorstore.VectorConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		if err := f.createErr(name); err != nil {
			return err
		}
	}
	if f.collections[name] {
		return fmt.Errorf("class %s: %w", name, vectorstore.ErrCollectionExists)
	}
	f.collections[name] = true
	return nil
}

func (f *fakeStore) DeleteCollection(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		if err := f.deleteErr(name); err != nil {
			return err
		}
	}
	if !f.collections[name] {
		return fmt.Errorf("class %s: %w", name, vectorstore.ErrCollectionNotFound)
	}
	delete(f.collections, name)
	return nil
}

func (f *fakeStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collections[name], nil
}

func (f *fakeStore) BatchInsert(ctx context.Context, name string, objects []vectorstore.Object) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.insertErr != nil {
		if err := f.insertErr(name, objects); err != nil {
			return err
		}
	}
	f.batches[name] = append(f.batches[name], objects)
	return nil
}

func (f *fakeStore) HybridQuery(ctx context.Context, name, query string, params vectorstore.HybridParams) ([]vectorstore.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if !f.collections[name] {
		return nil, fmt.Errorf("class %s: %w", name, vectorstore.ErrCollectionNotFound)
	}
	return f.queryResults[name], nil
}

func (f *fakeStore) insertedCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, batch := range f.batches[name] {
		n += len(batch)
	}
	return n
}

// fakeTracker records job status transitions in memory, enforcing the
// same state machine as the Redis-backed tracker.
type fakeTracker struct {
	mu      sync.Mutex
	records map[int64]jobs.StatusRecord
	history map[int64][]models.DocumentStatus
	setErr  error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		records: map[int64]jobs.StatusRecord{},
		history: map[int64][]models.DocumentStatus{},
	}
}

func (f *fakeTracker) SetStatus(ctx context.Context, documentID int64, status models.DocumentStatus, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if cur, ok := f.records[documentID]; ok && cur.Status != status {
		if !cur.Status.CanTransitionTo(status) {
			return fmt.Errorf("invalid status transition for document %d: %s -> %s", documentID, cur.Status, status)
		}
	}
	f.records[documentID] = jobs.StatusRecord{DocumentID: documentID, Status: status, ErrorMessage: errMsg}
	f.history[documentID] = append(f.history[documentID], status)
	return nil
}

func (f *fakeTracker) GetStatus(ctx context.Context, documentID int64) (jobs.StatusRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[documentID]
	return rec, ok, nil
}

func (f *fakeTracker) Clear(ctx context.Context, documentID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, documentID)
	return nil
}

// fakeDocs is an in-memory DocumentStore.
type fakeDocs struct {
	mu   sync.Mutex
	docs map[int64]*models.Document
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[int64]*models.Document{}}
}

func (f *fakeDocs) Create(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[doc.ID]; ok {
		return fmt.Errorf("document %d already exists", doc.ID)
	}
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeDocs) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeDocs) UpdateStatus(ctx context.Context, id int64, status models.DocumentStatus, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	doc.Status = status
	if status == models.StatusFailed {
		doc.ErrorMessage = errMsg
	}
	return nil
}

func (f *fakeDocs) SetProcessingData(ctx context.Context, id int64, data models.ProcessingData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	doc.Processing = data
	return nil
}

func (f *fakeDocs) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

// fakeEnqueuer records submitted jobs.
type fakeEnqueuer struct {
	mu     sync.Mutex
	jobs   []int64
	failOn error
}

func (f *fakeEnqueuer) EnqueueIngest(ctx context.Context, documentID int64, textPath, chunksPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		return f.failOn
	}
	f.jobs = append(f.jobs, documentID)
	return nil
}
