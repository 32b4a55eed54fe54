package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SYH0213/genminute-ai/internal/config"
	"github.com/SYH0213/genminute-ai/internal/deletion"
	"github.com/SYH0213/genminute-ai/internal/embedding"
	"github.com/SYH0213/genminute-ai/internal/gemini"
	"github.com/SYH0213/genminute-ai/internal/llm"
	"github.com/SYH0213/genminute-ai/internal/logger"
	"github.com/SYH0213/genminute-ai/internal/processor"
	"github.com/SYH0213/genminute-ai/internal/retrieval"
	"github.com/SYH0213/genminute-ai/internal/summarizer"
	"github.com/SYH0213/genminute-ai/internal/transcriber"
	"github.com/SYH0213/genminute-ai/internal/transcript"
	"github.com/SYH0213/genminute-ai/internal/vectorstore"
)

// app holds the wired components shared by every command.
type app struct {
	cfg         *config.Config
	logger      logger.Logger
	transcripts *transcript.Store
	vectors     *vectorstore.Store
	processor   processor.Processor
	engine      retrieval.Engine
	deleter     *deletion.Coordinator
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	transcripts, err := transcript.Open(cfg.Storage.TranscriptDB)
	if err != nil {
		return nil, fmt.Errorf("open transcript store: %w", err)
	}
	vectors, err := vectorstore.Open(cfg.Storage.VectorDB, embedder)
	if err != nil {
		transcripts.Close()
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	var (
		tr  transcriber.Transcriber
		sum summarizer.Summarizer
	)
	if cfg.RequireGemini() == nil {
		client, err := gemini.New(cfg.Secrets.GoogleAPIKeys, log)
		if err != nil {
			transcripts.Close()
			vectors.Close()
			return nil, err
		}
		tr = transcriber.New(client, cfg.Gemini.TranscribeModel, log)
		sum = summarizer.New(client, cfg.Gemini.Model, log)
	} else {
		log.Debug(ctx, "GOOGLE_API_KEY not set: transcription and summaries disabled")
	}

	var constructor retrieval.QueryConstructor
	if cfg.RequireOpenAI() == nil {
		constructor = llm.NewQueryConstructor(cfg.Secrets.OpenAIAPIKey, cfg.OpenAI.ChatModel)
	} else {
		log.Debug(ctx, "OPENAI_API_KEY not set: self_query will report retrieval unavailable")
	}

	return &app{
		cfg:         cfg,
		logger:      log,
		transcripts: transcripts,
		vectors:     vectors,
		processor:   processor.New(cfg, transcripts, vectors, tr, sum, log),
		engine: retrieval.New(vectors, constructor, retrieval.Options{
			DefaultK:  cfg.Retrieval.DefaultK,
			FetchK:    cfg.Retrieval.FetchK,
			MMRLambda: cfg.Retrieval.MMRLambda,
		}, log),
		deleter: deletion.New(transcripts, vectors, log),
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.transcripts.Close(), a.vectors.Close())
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderHashing:
		return embedding.NewHashing(cfg.Embedding.Dimensions), nil
	default:
		if err := cfg.RequireOpenAI(); err != nil {
			return nil, fmt.Errorf("embedding provider %s: %w", cfg.Embedding.Provider, err)
		}
		return embedding.NewOpenAI(cfg.Secrets.OpenAIAPIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions), nil
	}
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Input,
		cfg.Paths.Archived,
		cfg.Paths.Output,
		filepath.Dir(cfg.Storage.TranscriptDB),
		filepath.Dir(cfg.Storage.VectorDB),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
