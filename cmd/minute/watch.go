package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SYH0213/genminute-ai/internal/watcher"
)

func newWatchCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Ingest audio and utterance files dropped into the inbox directory",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			return runWatch(cmd.Context(), a)
		}),
	}
}

func runWatch(ctx context.Context, a *app) error {
	log := a.logger
	log.Info(ctx, "========================================")
	log.Info(ctx, "Meeting Minutes Pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "Max Concurrent Processing: %d", a.cfg.Performance.MaxConcurrent)

	if err := a.cfg.RequireGemini(); err != nil {
		log.Warn(ctx, "%v: audio files will fail, only .json utterance files can be ingested", err)
	}

	// Create watcher with processor as handler and concurrency control
	w, err := watcher.New(a.cfg.Paths.Input, a.processor.HandleFile, log, a.cfg.Performance.MaxConcurrent)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Start(ctx)
	}()

	log.Info(ctx, "Monitoring: %s", a.cfg.Paths.Input)
	log.Info(ctx, "Archived: %s", a.cfg.Paths.Archived)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error(ctx, "Watcher error: %v", err)
			return err
		}
		return nil
	}

	log.Info(ctx, "Shutting down gracefully...")
	cancel()
	if err := <-errChan; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info(ctx, "Meeting pipeline stopped")
	return nil
}
