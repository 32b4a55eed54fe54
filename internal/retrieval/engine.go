package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/vectorstore"
)

// Search resolves the collection and strategy, validates the filter, then
// delegates to the strategy.
func (e *implEngine) Search(ctx context.Context, collection, query string, k int, strategy string, filter *models.VectorFilter) ([]models.Document, error) {
	kind, err := models.ParseCollection(collection)
	if err != nil {
		return nil, err
	}

	s, ok := e.strategies[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q (available: %s)",
			models.ErrInvalidArgument, strategy, strings.Join(e.Strategies(), ", "))
	}

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", models.ErrInvalidArgument)
	}

	req := Request{Kind: kind, Query: query, K: k}
	if req.K <= 0 {
		req.K = e.defaultK
	}
	if filter != nil {
		if err := filter.Validate(kind); err != nil {
			return nil, err
		}
		req.Filter = *filter
	}

	e.logger.Debug(ctx, "retrieval: %s over %s (k=%d)", strategy, kind, req.K)

	docs, err := s.Retrieve(ctx, req)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// embedQuery embeds a single query, mapping failures to ErrRetrievalUnavailable.
func embedQuery(ctx context.Context, index Index, query string) ([]float32, error) {
	vecs, err := index.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", models.ErrRetrievalUnavailable, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: embed query: got %d vectors", models.ErrRetrievalUnavailable, len(vecs))
	}
	return vecs[0], nil
}

func documents(hits []vectorstore.Hit) []models.Document {
	docs := make([]models.Document, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
	}
	return docs
}
