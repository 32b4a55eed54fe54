package retrieval

import (
	"sort"

	"github.com/SYH0213/genminute-ai/internal/logger"
)

// Default tuning values.
const (
	DefaultK          = 5
	DefaultFetchK     = 20
	DefaultMMRLambda  = 0.5
	StrategySimilar   = "similarity"
	StrategyMMR       = "mmr"
	StrategySelfQuery = "self_query"
)

// Options tunes the engine.
type Options struct {
	DefaultK  int
	FetchK    int
	MMRLambda float64
}

type implEngine struct {
	defaultK   int
	strategies map[string]Strategy
	logger     logger.Logger
}

// New creates an Engine with the similarity, mmr and self_query strategies.
// With a nil constructor self_query fails with ErrRetrievalUnavailable.
func New(index Index, constructor QueryConstructor, opts Options, l logger.Logger) Engine {
	if opts.DefaultK <= 0 {
		opts.DefaultK = DefaultK
	}
	if opts.FetchK <= 0 {
		opts.FetchK = DefaultFetchK
	}
	if opts.MMRLambda <= 0 || opts.MMRLambda > 1 {
		opts.MMRLambda = DefaultMMRLambda
	}

	e := &implEngine{
		defaultK:   opts.DefaultK,
		strategies: make(map[string]Strategy),
		logger:     l,
	}
	e.register(&similarity{index: index})
	e.register(&mmr{index: index, fetchK: opts.FetchK, lambda: opts.MMRLambda})
	e.register(&selfQuery{index: index, constructor: constructor, logger: l})
	return e
}

func (e *implEngine) register(s Strategy) {
	e.strategies[s.Name()] = s
}

// Strategies lists the registered strategy names, sorted.
func (e *implEngine) Strategies() []string {
	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
