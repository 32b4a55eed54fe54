package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/normalize"
	"github.com/SYH0213/genminute-ai/internal/transcriber"
)

// Ingest stores a new meeting, then indexes its transcript.
func (p *implProcessor) Ingest(ctx context.Context, raw []normalize.RawUtterance, audioFile, title string) (IngestResult, error) {
	segments := normalize.Normalize(raw)
	if len(segments) == 0 {
		return IngestResult{}, fmt.Errorf("%w: no utterances to ingest", models.ErrInvalidArgument)
	}
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(audioFile, filepath.Ext(audioFile))
	}

	meetingID, err := p.transcripts.CreateMeeting(ctx, segments, audioFile, title)
	if err != nil {
		return IngestResult{}, fmt.Errorf("create meeting: %w", err)
	}
	p.logger.Info(ctx, "Stored meeting %s (%d segments, %s)", meetingID, len(segments), audioFile)

	res := IngestResult{MeetingID: meetingID, SegmentCount: len(segments), Indexed: true}
	if err := p.indexTranscript(ctx, meetingID); err != nil {
		p.logger.Warn(ctx, "Meeting %s stored but not indexed, run reindex later: %v", meetingID, err)
		res.Indexed = false
	}
	return res, nil
}

// ProcessAudio transcribes the file at audioPath and ingests the result.
// Transcription failures abort before anything is stored.
func (p *implProcessor) ProcessAudio(ctx context.Context, audioPath, title string) (IngestResult, error) {
	if p.transcriber == nil {
		return IngestResult{}, fmt.Errorf("%w: no transcriber configured", models.ErrTranscriptionFailed)
	}
	mimeType, ok := transcriber.MimeType(audioPath)
	if !ok {
		return IngestResult{}, fmt.Errorf("%w: unsupported audio file %s", models.ErrInvalidArgument, filepath.Base(audioPath))
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return IngestResult{}, fmt.Errorf("read audio: %w", err)
	}

	startTime := time.Now()
	var raw []normalize.RawUtterance
	err = p.llmSlots.run(ctx, func() error {
		var err error
		raw, err = p.transcriber.Transcribe(ctx, audio, mimeType)
		return err
	})
	if err != nil {
		return IngestResult{}, fmt.Errorf("transcribe %s: %w", filepath.Base(audioPath), err)
	}
	p.logger.Info(ctx, "Transcribed %s: %d utterances in %s", filepath.Base(audioPath), len(raw), time.Since(startTime))

	return p.Ingest(ctx, raw, filepath.Base(audioPath), title)
}

// HandleFile ingests an audio file or a JSON utterance file dropped into
// the inbox, titled after the file name, then archives it. Failed files are
// left in place.
func (p *implProcessor) HandleFile(ctx context.Context, path string) error {
	name := filepath.Base(path)
	title := strings.TrimSuffix(name, filepath.Ext(name))

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Processing: %s", path)

	var (
		res IngestResult
		err error
	)
	switch {
	case strings.EqualFold(filepath.Ext(name), ".json"):
		res, err = p.ingestJSON(ctx, path, title)
	case transcriber.IsAudio(name):
		res, err = p.ProcessAudio(ctx, path, title)
	default:
		return fmt.Errorf("%w: unsupported file %s", models.ErrInvalidArgument, name)
	}
	if err != nil {
		return err
	}

	if err := p.moveToArchived(ctx, path); err != nil {
		p.logger.Warn(ctx, "Failed to move %s to archived folder: %v", name, err)
	}

	p.logger.Info(ctx, "Done: %s -> meeting %s (indexed=%v)", name, res.MeetingID, res.Indexed)
	p.logger.Info(ctx, "========================================")
	return nil
}

func (p *implProcessor) ingestJSON(ctx context.Context, path, title string) (IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return IngestResult{}, fmt.Errorf("read utterances: %w", err)
	}
	raw, err := normalize.ParseUtterances(data)
	if err != nil {
		return IngestResult{}, fmt.Errorf("%w: %s: %v", models.ErrInvalidArgument, filepath.Base(path), err)
	}
	return p.Ingest(ctx, raw, filepath.Base(path), title)
}
