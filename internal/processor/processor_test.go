package processor

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/SYH0213/genminute-ai/internal/config"
	"github.com/SYH0213/genminute-ai/internal/embedding"
	"github.com/SYH0213/genminute-ai/internal/logger"
	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/normalize"
	"github.com/SYH0213/genminute-ai/internal/summarizer"
	"github.com/SYH0213/genminute-ai/internal/transcriber"
	"github.com/SYH0213/genminute-ai/internal/transcript"
	"github.com/SYH0213/genminute-ai/internal/vectorstore"
)

type unavailableVectors struct {
	VectorIndex
}

func (unavailableVectors) UpsertTranscript(context.Context, models.TranscriptMetadata, string) error {
	return errors.New("embedding service unavailable")
}

type testEnv struct {
	cfg         *config.Config
	transcripts *transcript.Store
	vectors     *vectorstore.Store
	transcriber *transcriber.MockTranscriber
	summarizer  *summarizer.MockSummarizer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ts, err := transcript.Open(":memory:")
	if err != nil {
		t.Fatalf("open transcripts: %v", err)
	}
	t.Cleanup(func() { ts.Close() })

	vs, err := vectorstore.Open(":memory:", embedding.NewHashing(64))
	if err != nil {
		t.Fatalf("open vectors: %v", err)
	}
	t.Cleanup(func() { vs.Close() })

	cfg := &config.Config{}
	cfg.Validate()
	cfg.Paths.Archived = filepath.Join(t.TempDir(), "archived")

	ctrl := gomock.NewController(t)
	return &testEnv{
		cfg:         cfg,
		transcripts: ts,
		vectors:     vs,
		transcriber: transcriber.NewMockTranscriber(ctrl),
		summarizer:  summarizer.NewMockSummarizer(ctrl),
	}
}

func (e *testEnv) processor(vectors VectorIndex) Processor {
	if vectors == nil {
		vectors = e.vectors
	}
	return New(e.cfg, e.transcripts, vectors, e.transcriber, e.summarizer, logger.NewNop())
}

func twoSegments() []normalize.RawUtterance {
	return []normalize.RawUtterance{
		{Speaker: "1", StartTime: "0:00:000", Confidence: 0.95, Text: "Let's start the meeting."},
		{Speaker: "2", StartTime: "0:05:200", Confidence: 0.92, Text: "Sounds good."},
	}
}

func TestIngestTwoSegmentMeeting(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res, err := env.processor(nil).Ingest(ctx, twoSegments(), "weekly.wav", "Weekly sync")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !res.Indexed || res.SegmentCount != 2 {
		t.Errorf("IngestResult = %+v", res)
	}

	segs, _ := env.transcripts.GetMeeting(ctx, res.MeetingID)
	if len(segs) != 2 || segs[0].StartSeconds != 0 || math.Abs(segs[1].StartSeconds-5.2) > 1e-9 {
		t.Fatalf("GetMeeting() = %+v", segs)
	}

	doc, err := env.vectors.Get(ctx, models.CollectionTranscript, res.MeetingID)
	if err != nil || doc == nil {
		t.Fatalf("Get: %v, %v", doc, err)
	}
	want := "Let's start the meeting." + normalize.Separator + "Sounds good."
	if doc.Text != want {
		t.Errorf("transcript text = %q, want %q", doc.Text, want)
	}
	meta := doc.Metadata.(models.TranscriptMetadata)
	if meta.Title != "Weekly sync" || meta.AudioFile != "weekly.wav" || meta.DialogueID != res.MeetingID {
		t.Errorf("Metadata = %+v", meta)
	}
}

func TestIngestJoinsInStartOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	raw := []normalize.RawUtterance{
		{Speaker: "2", StartTime: "0:09:000", Text: "third"},
		{Speaker: "1", StartTime: "0:01:000", Text: "first"},
		{Speaker: "1", StartTime: "bad", Text: "zeroth"},
		{Speaker: "2", StartTime: "0:05:000", Text: "second"},
	}
	res, err := env.processor(nil).Ingest(ctx, raw, "a.wav", "")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	doc, _ := env.vectors.Get(ctx, models.CollectionTranscript, res.MeetingID)
	if doc.Text != "zeroth first second third" {
		t.Errorf("transcript text = %q", doc.Text)
	}
	if doc.Metadata.(models.TranscriptMetadata).Title != "a" {
		t.Errorf("empty title should default to the file name, got %+v", doc.Metadata)
	}
}

func TestIngestEmpty(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.processor(nil).Ingest(context.Background(), nil, "a.wav", "t")
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("Ingest() error = %v, want ErrInvalidArgument", err)
	}
}

func TestIngestVectorFailureDegrades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res, err := env.processor(unavailableVectors{VectorIndex: env.vectors}).Ingest(ctx, twoSegments(), "a.wav", "t")
	if err != nil {
		t.Fatalf("Ingest() should succeed without the vector store: %v", err)
	}
	if res.Indexed {
		t.Error("Indexed = true, want false")
	}
	if info, _ := env.transcripts.MeetingInfo(ctx, res.MeetingID); info == nil {
		t.Fatal("meeting was not stored")
	}
	if doc, _ := env.vectors.Get(ctx, models.CollectionTranscript, res.MeetingID); doc != nil {
		t.Fatal("vector should not exist yet")
	}

	if err := env.processor(nil).Reindex(ctx, res.MeetingID); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	doc, _ := env.vectors.Get(ctx, models.CollectionTranscript, res.MeetingID)
	if doc == nil || doc.Text != "Let's start the meeting. Sounds good." {
		t.Errorf("reindexed doc = %+v", doc)
	}
}

func TestReindexUnknown(t *testing.T) {
	env := newTestEnv(t)

	err := env.processor(nil).Reindex(context.Background(), "missing")
	if !errors.Is(err, models.ErrMeetingNotFound) {
		t.Errorf("Reindex() error = %v, want ErrMeetingNotFound", err)
	}
}

func TestProcessAudio(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	path := filepath.Join(t.TempDir(), "standup.m4a")
	audio := []byte("fake audio")
	os.WriteFile(path, audio, 0644)

	env.transcriber.EXPECT().
		Transcribe(gomock.Any(), audio, "audio/mp4").
		Return(twoSegments(), nil)

	res, err := env.processor(nil).ProcessAudio(ctx, path, "Standup")
	if err != nil {
		t.Fatalf("ProcessAudio: %v", err)
	}

	info, _ := env.transcripts.MeetingInfo(ctx, res.MeetingID)
	if info == nil || info.AudioFile != "standup.m4a" || info.Title != "Standup" || info.SegmentCount != 2 {
		t.Errorf("MeetingInfo() = %+v", info)
	}
}

func TestProcessAudioTranscriptionFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	path := filepath.Join(t.TempDir(), "standup.wav")
	os.WriteFile(path, []byte("x"), 0644)

	env.transcriber.EXPECT().
		Transcribe(gomock.Any(), gomock.Any(), "audio/wav").
		Return(nil, models.ErrTranscriptionFailed)

	_, err := env.processor(nil).ProcessAudio(ctx, path, "Standup")
	if !errors.Is(err, models.ErrTranscriptionFailed) {
		t.Fatalf("ProcessAudio() error = %v, want ErrTranscriptionFailed", err)
	}
	if meetings, _ := env.transcripts.ListMeetings(ctx); len(meetings) != 0 {
		t.Errorf("stored %d meetings after failed transcription", len(meetings))
	}
}

func TestHandleFile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	inbox := t.TempDir()

	jsonPath := filepath.Join(inbox, "Budget review.json")
	os.WriteFile(jsonPath, []byte(`[
		{"speaker": 1, "start_time_mmss": "0:00:000", "confidence": 0.9, "text": "Budget first."},
		{"speaker": "2", "start_time_mmss": "0:03:500", "confidence": 0.8, "text": "Agreed."}
	]`), 0644)

	if err := env.processor(nil).HandleFile(ctx, jsonPath); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}

	meetings, _ := env.transcripts.ListMeetings(ctx)
	if len(meetings) != 1 || meetings[0].Title != "Budget review" {
		t.Fatalf("ListMeetings() = %+v", meetings)
	}
	if _, err := os.Stat(jsonPath); !os.IsNotExist(err) {
		t.Error("ingested file was not moved out of the inbox")
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.Archived, "Budget review.json")); err != nil {
		t.Errorf("archived file missing: %v", err)
	}

	txt := filepath.Join(inbox, "notes.txt")
	os.WriteFile(txt, []byte("x"), 0644)
	if err := env.processor(nil).HandleFile(ctx, txt); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("HandleFile(.txt) error = %v, want ErrInvalidArgument", err)
	}

	bad := filepath.Join(inbox, "broken.json")
	os.WriteFile(bad, []byte("{not an array"), 0644)
	if err := env.processor(nil).HandleFile(ctx, bad); err == nil {
		t.Error("HandleFile() should fail on malformed JSON")
	}
	if _, err := os.Stat(bad); err != nil {
		t.Error("failed file should stay in the inbox")
	}
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.processor(nil)

	res, _ := p.Ingest(ctx, twoSegments(), "weekly.wav", "Weekly sync")

	env.summarizer.EXPECT().
		Generate(gomock.Any(), "Weekly sync", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, transcript string) (string, error) {
			if !strings.Contains(transcript, "[0] 1: Let's start the meeting.") ||
				!strings.Contains(transcript, "[1] 2: Sounds good.") {
				t.Errorf("transcript not numbered by ordinal: %q", transcript)
			}
			return "### A\n* claim1 [cite: 0]\n\n### B\n* claim2 [cite: 1, 7]", nil
		})

	sum, err := p.Summarize(ctx, res.MeetingID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(sum.Chunks) != 2 || sum.NoValidChunks {
		t.Fatalf("SummaryResult = %+v", sum)
	}
	if len(sum.InvalidCitations) != 1 || sum.InvalidCitations[0].Ordinal != 7 || sum.InvalidCitations[0].SummaryIndex != 1 {
		t.Errorf("InvalidCitations = %+v", sum.InvalidCitations)
	}

	docs, _ := env.vectors.List(ctx, models.CollectionSubtopic,
		models.VectorFilter{MeetingFilter: models.MeetingFilter{MeetingID: res.MeetingID}})
	if len(docs) != 2 {
		t.Fatalf("stored %d subtopics, want 2", len(docs))
	}
	meta := docs[1].Metadata.(models.SubtopicMetadata)
	if meta.MainTopic != "B" || meta.SummaryIndex != 1 || meta.MeetingTitle != "Weekly sync" || meta.AudioFile != "weekly.wav" {
		t.Errorf("subtopic metadata = %+v", meta)
	}
}

func TestSummarizeNoValidChunks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.processor(nil)
	res, _ := p.Ingest(ctx, twoSegments(), "a.wav", "t")

	env.summarizer.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("* a bullet without a heading [cite: 0]", nil)

	sum, err := p.Summarize(ctx, res.MeetingID)
	if err != nil {
		t.Fatalf("Summarize() should not fail: %v", err)
	}
	if !sum.NoValidChunks || len(sum.Chunks) != 0 {
		t.Errorf("SummaryResult = %+v", sum)
	}
	if n, _ := env.vectors.Count(ctx, models.CollectionSubtopic); n != 0 {
		t.Errorf("stored %d subtopics, want 0", n)
	}
}

func TestSummarizeFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.processor(nil)
	res, _ := p.Ingest(ctx, twoSegments(), "a.wav", "t")

	if _, err := p.Summarize(ctx, "missing"); !errors.Is(err, models.ErrMeetingNotFound) {
		t.Errorf("unknown meeting error = %v, want ErrMeetingNotFound", err)
	}

	env.summarizer.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", models.ErrSummaryFailed)

	_, err := p.Summarize(ctx, res.MeetingID)
	if !errors.Is(err, models.ErrSummaryFailed) {
		t.Errorf("Summarize() error = %v, want ErrSummaryFailed", err)
	}
	if info, _ := env.transcripts.MeetingInfo(ctx, res.MeetingID); info == nil {
		t.Error("transcript should be unaffected by a failed summary")
	}
}

func TestSemaphoreRun(t *testing.T) {
	s := newSemaphore(0)
	if cap(s.ch) != 1 {
		t.Errorf("capacity = %d, want 1", cap(s.ch))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.acquire(ctx)
	cancel()
	if err := s.run(ctx, func() error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("run() on a full semaphore with cancelled ctx = %v", err)
	}
	s.release()

	want := errors.New("boom")
	if err := s.run(context.Background(), func() error { return want }); err != want {
		t.Errorf("run() = %v, want %v", err, want)
	}
	if len(s.ch) != 0 {
		t.Error("slot not released")
	}
}
