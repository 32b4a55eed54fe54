package summarizer

import (
	"github.com/SYH0213/genminute-ai/internal/gemini"
	"github.com/SYH0213/genminute-ai/internal/logger"
)

type implSummarizer struct {
	client *gemini.Client
	logger logger.Logger
	model  string
}

// New creates a Summarizer on a key-rotating Gemini client.
func New(client *gemini.Client, model string, log logger.Logger) Summarizer {
	if model == "" {
		model = "gemini-2.5-pro"
	}
	return &implSummarizer{
		client: client,
		logger: log,
		model:  model,
	}
}
