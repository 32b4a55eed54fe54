package processor

import (
	"context"

	"github.com/SYH0213/genminute-ai/internal/chunker"
	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/normalize"
)

// Processor drives a meeting from utterances to stored transcript, vector
// and summary.
type Processor interface {
	// Ingest normalizes utterances, stores them as a new meeting and indexes
	// the joined transcript. A vector failure does not fail ingestion.
	Ingest(ctx context.Context, raw []normalize.RawUtterance, audioFile, title string) (IngestResult, error)
	// ProcessAudio transcribes an audio file, then ingests it.
	ProcessAudio(ctx context.Context, audioPath, title string) (IngestResult, error)
	// HandleFile ingests a dropped audio or utterance JSON file and archives it.
	HandleFile(ctx context.Context, path string) error
	// Summarize derives and stores the subtopic chunks of a meeting.
	Summarize(ctx context.Context, meetingID string) (SummaryResult, error)
	// Reindex rebuilds a meeting's transcript vector from its stored segments.
	Reindex(ctx context.Context, meetingID string) error
}

// TranscriptStore is the relational side of the pipeline.
type TranscriptStore interface {
	CreateMeeting(ctx context.Context, segments []models.Segment, audioFile, title string) (string, error)
	GetMeeting(ctx context.Context, meetingID string) ([]models.Segment, error)
	MeetingInfo(ctx context.Context, meetingID string) (*models.Meeting, error)
}

// VectorIndex is the vector side of the pipeline.
type VectorIndex interface {
	UpsertTranscript(ctx context.Context, meta models.TranscriptMetadata, text string) error
	UpsertSubtopics(ctx context.Context, meeting models.Meeting, chunks []models.SubtopicChunk) error
}

// IngestResult reports a stored meeting.
type IngestResult struct {
	MeetingID    string `json:"meeting_id"`
	SegmentCount int    `json:"segment_count"`
	// Indexed is false when the transcript vector could not be written;
	// Reindex repairs it.
	Indexed bool `json:"indexed"`
}

// SummaryResult reports a summary derivation.
type SummaryResult struct {
	MeetingID        string                    `json:"meeting_id"`
	Summary          string                    `json:"summary"`
	Chunks           []models.SubtopicChunk    `json:"chunks"`
	NoValidChunks    bool                      `json:"no_valid_chunks"`
	InvalidCitations []chunker.InvalidCitation `json:"invalid_citations,omitempty"`
}
