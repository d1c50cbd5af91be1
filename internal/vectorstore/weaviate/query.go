package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"docsearch-platform/internal/vectorstore"
)

func chunkFields() []graphql.Field {
	return []graphql.Field{
		{Name: "content"},
		{Name: "section_title"},
		{Name: "page_number"},
		{Name: "content_type"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "score"}}},
	}
}

// HybridQuery runs a combined lexical+semantic search against one
// class. The fused score is returned raw (Weaviate reports it as a
// string); parsing and threshold filtering belong to the caller. A
// missing class is reported as vectorstore.ErrCollectionNotFound.
func (c *Client) HybridQuery(ctx context.Context, name, query string, params vectorstore.HybridParams) ([]vectorstore.Result, error) {
	response, err := c.client.GraphQL().Get().
		WithClassName(name).
		WithFields(chunkFields()...).
		WithHybrid(
			c.client.GraphQL().HybridArgumentBuilder().
				WithQuery(query).
				WithAlpha(params.Alpha).
				WithFusionType(graphql.FusionType(params.Fusion)),
		).
		WithAutocut(params.Autocut).
		WithLimit(params.Limit).
		Do(ctx)

	if err != nil {
		return nil, fmt.Errorf("hybrid query on %s failed: %w", name, err)
	}

	// GraphQL-level errors ride in the response body. Querying a class
	// that was never created is the common case and is not an error.
	if len(response.Errors) > 0 {
		exists, checkErr := c.client.Schema().ClassExistenceChecker().WithClassName(name).Do(ctx)
		if checkErr == nil && !exists {
			return nil, fmt.Errorf("class %s: %w", name, vectorstore.ErrCollectionNotFound)
		}
		return nil, fmt.Errorf("hybrid query on %s failed: %s", name, response.Errors[0].Message)
	}

	if response.Data == nil {
		return nil, nil
	}
	data, ok := response.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	items, ok := data[name].([]interface{})
	if !ok {
		return nil, nil
	}

	results := make([]vectorstore.Result, 0, len(items))
	for _, item := range items {
		props, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		res := vectorstore.Result{Properties: props}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if raw, ok := additional["score"].(string); ok {
				res.Score = raw
			}
		}
		results = append(results, res)
	}
	return results, nil
}
