package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"docsearch-platform/internal/logger"
	"docsearch-platform/internal/telemetry"
	"docsearch-platform/internal/vectorstore"
	"docsearch-platform/models"
)

// Reference result-shaping parameters for hybrid queries.
const (
	searchAutocut = 2
	searchLimit   = 20
)

// SearchOptions tune one hybrid search. Alpha, between 0 and 1, balances lexical
// (0) against semantic (1) relevance; results whose fused score falls
// below ScoreThreshold are dropped.
type SearchOptions struct {
	Alpha          float64
	ScoreThreshold float64
}

// SearchService executes hybrid lexical+semantic queries across the
// collections of one or more documents.
type SearchService struct {
	store vectorstore.Store
}

func NewSearchService(store vectorstore.Store) *SearchService {
	return &SearchService{store: store}
}

// Search fans the query out over the text and table collections of
// every requested document and merges the hits by fused score,
// descending. Documents whose collections do not exist yet contribute
// an empty result set, not an error, so search stays usable while
// ingestion is still running.
func (s *SearchService) Search(ctx context.Context, query string, documentIDs []int64, opts SearchOptions) ([]models.Chunk, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "search.hybrid")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.query", query),
		attribute.Int("search.documents", len(documentIDs)),
	)

	params := vectorstore.HybridParams{
		Alpha:   float32(opts.Alpha),
		Fusion:  vectorstore.FusionRelativeScore,
		Autocut: searchAutocut,
		Limit:   searchLimit,
	}

	var merged []models.Chunk
	for _, id := range documentIDs {
		for _, ref := range vectorstore.RefsFor(id) {
			chunks, err := s.queryCollection(ctx, ref.Name(), query, params, opts.ScoreThreshold)
			if err != nil {
				return nil, err
			}
			merged = append(merged, chunks...)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged, nil
}

// QueryCollection runs the hybrid query against a single named
// collection and applies the score threshold.
func (s *SearchService) QueryCollection(ctx context.Context, collection, query string, opts SearchOptions) ([]models.Chunk, error) {
	params := vectorstore.HybridParams{
		Alpha:   float32(opts.Alpha),
		Fusion:  vectorstore.FusionRelativeScore,
		Autocut: searchAutocut,
		Limit:   searchLimit,
	}
	return s.queryCollection(ctx, collection, query, params, opts.ScoreThreshold)
}

func (s *SearchService) queryCollection(ctx context.Context, collection, query string, params vectorstore.HybridParams, threshold float64) ([]models.Chunk, error) {
	results, err := s.store.HybridQuery(ctx, collection, query, params)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}

	chunks := make([]models.Chunk, 0, len(results))
	for _, res := range results {
		// The fused score is scoped to this iteration: a hit whose
		// score cannot be parsed is excluded outright rather than
		// filtered against a leftover value from a previous hit.
		score, err := strconv.ParseFloat(res.Score, 64)
		if err != nil {
			logger.Warn("dropping result with unparseable score",
				"collection", collection, "score", res.Score)
			continue
		}
		if score < threshold {
			continue
		}

		chunk := chunkFromProperties(res.Properties)
		chunk.Score = score
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func chunkFromProperties(props map[string]interface{}) models.Chunk {
	chunk := models.Chunk{}
	if v, ok := props["content"].(string); ok {
		chunk.Content = v
	}
	if v, ok := props["section_title"].(string); ok {
		chunk.SectionTitle = v
	}
	if v, ok := props["content_type"].(string); ok {
		chunk.ContentType = v
	}
	if v, ok := props["page_number"].(float64); ok {
		chunk.PageNumber = int(v)
	}
	return chunk
}
