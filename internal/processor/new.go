package processor

import (
	"github.com/SYH0213/genminute-ai/internal/config"
	"github.com/SYH0213/genminute-ai/internal/logger"
	"github.com/SYH0213/genminute-ai/internal/summarizer"
	"github.com/SYH0213/genminute-ai/internal/transcriber"
)

type implProcessor struct {
	cfg         *config.Config
	transcripts TranscriptStore
	vectors     VectorIndex
	transcriber transcriber.Transcriber
	summarizer  summarizer.Summarizer
	llmSlots    *semaphore
	logger      logger.Logger
}

// New creates a new Processor instance. The transcriber and summarizer may
// be nil when only JSON ingestion is needed; the operations that need them
// then fail.
func New(cfg *config.Config, transcripts TranscriptStore, vectors VectorIndex,
	tr transcriber.Transcriber, sum summarizer.Summarizer, log logger.Logger) Processor {
	return &implProcessor{
		cfg:         cfg,
		transcripts: transcripts,
		vectors:     vectors,
		transcriber: tr,
		summarizer:  sum,
		llmSlots:    newSemaphore(cfg.Performance.MaxConcurrent),
		logger:      log,
	}
}
