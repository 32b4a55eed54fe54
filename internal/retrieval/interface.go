package retrieval

import (
	"context"

	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/vectorstore"
)

// Engine answers semantic queries over one collection at a time.
type Engine interface {
	// Search validates its arguments before any I/O. A nil filter means no
	// hard filter; k <= 0 means the configured default.
	Search(ctx context.Context, collection, query string, k int, strategy string, filter *models.VectorFilter) ([]models.Document, error)
	Strategies() []string
}

// Index is the vector store surface the strategies need.
type Index interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Search(ctx context.Context, kind models.CollectionKind, vec []float32, k int, filter models.VectorFilter) ([]vectorstore.Hit, error)
}

// QueryConstructor infers a semantic query and a metadata filter from
// natural language, using the collection's attribute table.
type QueryConstructor interface {
	Construct(ctx context.Context, query string, kind models.CollectionKind) (models.StructuredQuery, error)
}

// Request is one validated retrieval call.
type Request struct {
	Kind   models.CollectionKind
	Query  string
	K      int
	Filter models.VectorFilter
}

// Strategy is one retrieval method, registered by name.
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, req Request) ([]models.Document, error)
}
