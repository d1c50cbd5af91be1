package vectorstore

import (
	"context"
	"errors"
	"fmt"
)

// Classified errors returned by Store implementations so callers can
// tell schema conflicts apart from real failures. "Already exists" on
// create and "not found" on delete/query are treated as success by the
// collection lifecycle code.
var (
	ErrCollectionExists   = errors.New("collection already exists")
	ErrCollectionNotFound = errors.New("collection not found")
)

// Kind distinguishes the two per-document collections.
type Kind int

const (
	KindText Kind = iota
	KindTable
)

// CollectionRef identifies one of a document's collections in the
// vector store. The naming scheme is the wire contract between the
// relational metadata store and the vector store and is injective over
// document ids.
type CollectionRef struct {
	DocumentID int64
	Kind       Kind
}

// Name returns the deterministic collection name for the ref.
func (r CollectionRef) Name() string {
	if r.Kind == KindTable {
		return fmt.Sprintf("document_%d_table", r.DocumentID)
	}
	return fmt.Sprintf("document_%d", r.DocumentID)
}

// RefsFor returns both collection refs owned by a document, text first.
func RefsFor(documentID int64) []CollectionRef {
	return []CollectionRef{
		{DocumentID: documentID, Kind: KindText},
		{DocumentID: documentID, Kind: KindTable},
	}
}

// RefForContentType maps a chunk content type to the collection that
// stores it. Anything that is not a table is prose.
func RefForContentType(documentID int64, contentType string) CollectionRef {
	if contentType == "table" {
		return CollectionRef{DocumentID: documentID, Kind: KindTable}
	}
	return CollectionRef{DocumentID: documentID, Kind: KindText}
}

// VectorConfig describes the named vector space a collection is
// created with. The vectorizer is an external capability of the
// backend and stays pluggable here.
type VectorConfig struct {
	VectorName   string
	Vectorizer   string
	SourceFields []string
	IndexType    string
}

// DefaultVectorConfig returns the standard chunk vector space: one
// named vector sourced from the chunk content and section title.
func DefaultVectorConfig(vectorizer string) VectorConfig {
	if vectorizer == "" {
		vectorizer = "text2vec-transformers"
	}
	return VectorConfig{
		VectorName:   "details_vector",
		Vectorizer:   vectorizer,
		SourceFields: []string{"content", "section_title"},
		IndexType:    "hnsw",
	}
}

// Object is one chunk as stored in a collection.
type Object struct {
	ID         string
	Properties map[string]interface{}
}

// Result is one hybrid-query hit. Score is the fused relevance score
// exactly as reported by the backend; it is left unparsed so the query
// engine can treat an unparseable score as its own explicit case.
type Result struct {
	Properties map[string]interface{}
	Score      string
}

// Fusion selects how lexical and semantic scores are combined.
type Fusion string

const (
	FusionRelativeScore Fusion = "relativeScoreFusion"
	FusionRanked        Fusion = "rankedFusion"
)

// HybridParams tune a hybrid query. Alpha, between 0 and 1, balances lexical (0)
// against semantic (1) relevance.
type HybridParams struct {
	Alpha   float32
	Fusion  Fusion
	Autocut int
	Limit   int
}

// Store is the backend-agnostic vector store boundary. All methods are
// blocking network operations; callers apply timeouts via ctx.
// Implementations must be safe for concurrent use.
type Store interface {
	CreateCollection(ctx context.Context, name string, cfg VectorConfig) error
	DeleteCollection(ctx context.Context, name string) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	BatchInsert(ctx context.Context, name string, objects []Object) error
	HybridQuery(ctx context.Context, name, query string, params HybridParams) ([]Result, error)
}
