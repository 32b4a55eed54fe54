package deletion

import (
	"context"
	"errors"
	"testing"

	"github.com/SYH0213/genminute-ai/internal/embedding"
	"github.com/SYH0213/genminute-ai/internal/logger"
	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/transcript"
	"github.com/SYH0213/genminute-ai/internal/vectorstore"
)

type brokenVectors struct {
	VectorDeleter
}

func (brokenVectors) DeleteMatching(context.Context, models.CollectionKind, models.VectorFilter) (int64, error) {
	return 0, models.ErrStorage
}

type fixture struct {
	transcripts *transcript.Store
	vectors     *vectorstore.Store
	ids         map[string]string
}

// newFixture stores two meetings from a.wav and one from b.wav in both
// stores, each with a transcript vector and two subtopics.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	ts, err := transcript.Open(":memory:")
	if err != nil {
		t.Fatalf("open transcripts: %v", err)
	}
	t.Cleanup(func() { ts.Close() })

	vs, err := vectorstore.Open(":memory:", embedding.NewHashing(32))
	if err != nil {
		t.Fatalf("open vectors: %v", err)
	}
	t.Cleanup(func() { vs.Close() })

	f := &fixture{transcripts: ts, vectors: vs, ids: map[string]string{}}
	for _, name := range []string{"a1", "a2", "b1"} {
		audio := name[:1] + ".wav"
		segs := []models.Segment{{Ordinal: 0, Speaker: "1", Text: "hello " + name}}
		id, err := ts.CreateMeeting(ctx, segs, audio, "Title "+name)
		if err != nil {
			t.Fatalf("CreateMeeting: %v", err)
		}
		f.ids[name] = id

		m, _ := ts.MeetingInfo(ctx, id)
		vs.UpsertTranscript(ctx, models.NewTranscriptMetadata(*m), "hello "+name)
		vs.UpsertSubtopics(ctx, *m, []models.SubtopicChunk{
			{MeetingID: id, MainTopic: "A", Text: "### A"},
			{MeetingID: id, MainTopic: "B", SummaryIndex: 1, Text: "### B"},
		})
	}
	return f
}

func TestDeleteEverywhereScoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := New(f.transcripts, f.vectors, logger.NewNop())

	res, err := c.DeleteEverywhere(ctx, models.CollectionSubtopic, models.MeetingFilter{AudioFile: "a.wav"})
	if err != nil {
		t.Fatalf("DeleteEverywhere: %v", err)
	}
	if res.TranscriptRows != 2 || res.VectorRows != 4 {
		t.Errorf("Result = %+v, want 2 transcript rows and 4 vectors", res)
	}

	meetings, _ := f.transcripts.ListMeetings(ctx)
	if len(meetings) != 1 || meetings[0].ID != f.ids["b1"] {
		t.Errorf("remaining meetings = %+v", meetings)
	}
	if n, _ := f.vectors.Count(ctx, models.CollectionSubtopic); n != 2 {
		t.Errorf("subtopic Count() = %d, want 2", n)
	}
	if n, _ := f.vectors.Count(ctx, models.CollectionTranscript); n != 3 {
		t.Errorf("chunks Count() = %d, want 3 (other collection untouched)", n)
	}

	// idempotent
	res, err = c.DeleteEverywhere(ctx, models.CollectionSubtopic, models.MeetingFilter{AudioFile: "a.wav"})
	if err != nil || res.TranscriptRows != 0 || res.VectorRows != 0 {
		t.Errorf("second delete = %+v, %v", res, err)
	}
}

func TestDeleteEverywhereByTitleOnChunks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := New(f.transcripts, f.vectors, logger.NewNop())

	res, err := c.DeleteEverywhere(ctx, models.CollectionTranscript, models.MeetingFilter{Title: "Title b1"})
	if err != nil {
		t.Fatalf("DeleteEverywhere: %v", err)
	}
	if res.TranscriptRows != 1 || res.VectorRows != 1 {
		t.Errorf("Result = %+v", res)
	}
}

func TestDeleteEverywhereRejectsEmptyFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := New(f.transcripts, f.vectors, logger.NewNop())

	_, err := c.DeleteEverywhere(ctx, models.CollectionTranscript, models.MeetingFilter{})
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
	if meetings, _ := f.transcripts.ListMeetings(ctx); len(meetings) != 3 {
		t.Errorf("rejected delete removed meetings: %d left", len(meetings))
	}

	if _, err := c.DeleteEverywhere(ctx, "notes", models.MeetingFilter{MeetingID: "x"}); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("unknown collection error = %v", err)
	}
}

func TestDeleteEverywhereAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := New(f.transcripts, f.vectors, logger.NewNop())

	res, err := c.DeleteEverywhereAll(ctx, models.CollectionTranscript)
	if err != nil {
		t.Fatalf("DeleteEverywhereAll: %v", err)
	}
	if res.TranscriptRows != 3 || res.VectorRows != 3 {
		t.Errorf("Result = %+v", res)
	}
	if n, _ := f.vectors.Count(ctx, models.CollectionSubtopic); n != 6 {
		t.Errorf("subtopic Count() = %d, want 6", n)
	}
}

func TestDeleteEverywherePartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := New(f.transcripts, brokenVectors{VectorDeleter: f.vectors}, logger.NewNop())

	res, err := c.DeleteEverywhere(ctx, models.CollectionTranscript, models.MeetingFilter{MeetingID: f.ids["a1"]})
	if !errors.Is(err, models.ErrStorage) {
		t.Fatalf("error = %v, want ErrStorage", err)
	}
	if res.TranscriptRows != 1 {
		t.Errorf("transcript delete should still run, got %+v", res)
	}

	// reconciliation with a healthy vector store
	c = New(f.transcripts, f.vectors, logger.NewNop())
	res, err = c.DeleteEverywhere(ctx, models.CollectionTranscript, models.MeetingFilter{MeetingID: f.ids["a1"]})
	if err != nil || res.TranscriptRows != 0 || res.VectorRows != 1 {
		t.Errorf("reconcile = %+v, %v", res, err)
	}
}
