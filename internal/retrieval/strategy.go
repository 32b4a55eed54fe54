package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/SYH0213/genminute-ai/internal/logger"
	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/vectorstore"
)

// similarity ranks by cosine similarity within the hard filter.
type similarity struct {
	index Index
}

func (s *similarity) Name() string { return StrategySimilar }

func (s *similarity) Retrieve(ctx context.Context, req Request) ([]models.Document, error) {
	vec, err := embedQuery(ctx, s.index, req.Query)
	if err != nil {
		return nil, err
	}
	hits, err := s.index.Search(ctx, req.Kind, vec, req.K, req.Filter)
	if err != nil {
		return nil, err
	}
	return documents(hits), nil
}

// mmr picks k of fetchK candidates by maximal marginal relevance.
type mmr struct {
	index  Index
	fetchK int
	lambda float64
}

func (s *mmr) Name() string { return StrategyMMR }

func (s *mmr) Retrieve(ctx context.Context, req Request) ([]models.Document, error) {
	vec, err := embedQuery(ctx, s.index, req.Query)
	if err != nil {
		return nil, err
	}

	fetchK := s.fetchK
	if fetchK < req.K {
		fetchK = req.K
	}
	candidates, err := s.index.Search(ctx, req.Kind, vec, fetchK, req.Filter)
	if err != nil {
		return nil, err
	}
	return documents(selectMMR(vec, candidates, req.K, s.lambda)), nil
}

// selectMMR greedily selects up to k hits, trading relevance to the query
// (weight lambda) against similarity to what is already selected.
func selectMMR(query []float32, candidates []vectorstore.Hit, k int, lambda float64) []vectorstore.Hit {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = vectorstore.Cosine(query, c.Embedding)
	}

	used := make([]bool, len(candidates))
	var picked []int
	for len(picked) < k && len(picked) < len(candidates) {
		best, bestScore := -1, math.Inf(-1)
		for i := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			for _, j := range picked {
				if sim := vectorstore.Cosine(candidates[i].Embedding, candidates[j].Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		picked = append(picked, best)
	}

	out := make([]vectorstore.Hit, len(picked))
	for i, idx := range picked {
		out[i] = candidates[idx]
		out[i].Document.Score = relevance[idx]
	}
	return out
}

// selfQuery lets an LLM infer a metadata filter from the query text.
type selfQuery struct {
	index       Index
	constructor QueryConstructor
	logger      logger.Logger
}

func (s *selfQuery) Name() string { return StrategySelfQuery }

func (s *selfQuery) Retrieve(ctx context.Context, req Request) ([]models.Document, error) {
	if s.constructor == nil {
		return nil, fmt.Errorf("%w: no query constructor configured", models.ErrRetrievalUnavailable)
	}
	sq, err := s.constructor.Construct(ctx, req.Query, req.Kind)
	if err != nil {
		if errors.Is(err, models.ErrRetrievalUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: construct query: %v", models.ErrRetrievalUnavailable, err)
	}

	inferred := sq.Filter
	if req.Kind == models.CollectionTranscript {
		inferred.MainTopic = ""
		inferred.SummaryIndex = nil
	}
	filter := req.Filter.Merge(inferred)

	query := strings.TrimSpace(sq.Query)
	if query == "" {
		query = req.Query
	}
	s.logger.Debug(ctx, "self_query: query=%q filter=%+v", query, filter)

	vec, err := embedQuery(ctx, s.index, query)
	if err != nil {
		return nil, err
	}
	hits, err := s.index.Search(ctx, req.Kind, vec, req.K, filter)
	if err != nil {
		return nil, err
	}
	return documents(hits), nil
}
