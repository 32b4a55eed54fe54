package embedding

import (
	"context"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"
)

type implOpenAI struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewOpenAI creates an Embedder backed by the OpenAI embeddings API. A
// positive dimensions shortens the vectors (text-embedding-3 models only);
// zero keeps the model's native size.
func NewOpenAI(apiKey, model string, dimensions int) Embedder {
	return newOpenAI(openai.DefaultConfig(apiKey), model, dimensions)
}

func newOpenAI(cfg openai.ClientConfig, model string, dimensions int) *implOpenAI {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if dimensions < 0 {
		dimensions = 0
	}
	return &implOpenAI{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}
}

// Embed sends all texts in one request.
func (e *implOpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      e.model,
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
