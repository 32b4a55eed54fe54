package processor

import (
	"context"
	"fmt"

	"github.com/SYH0213/genminute-ai/internal/chunker"
	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/normalize"
)

// Summarize generates the topic summary of a meeting, splits it into
// subtopic chunks and replaces the meeting's stored subtopics. A summary
// without headings is reported as NoValidChunks and nothing is written.
func (p *implProcessor) Summarize(ctx context.Context, meetingID string) (SummaryResult, error) {
	if p.summarizer == nil {
		return SummaryResult{}, fmt.Errorf("%w: no summarizer configured", models.ErrGeneration)
	}

	meeting, segments, err := p.loadMeeting(ctx, meetingID)
	if err != nil {
		return SummaryResult{}, err
	}

	var summary string
	err = p.llmSlots.run(ctx, func() error {
		var err error
		summary, err = p.summarizer.Generate(ctx, meeting.Title, normalize.NumberedTranscript(segments))
		return err
	})
	if err != nil {
		return SummaryResult{}, fmt.Errorf("summarize %s: %w", meetingID, err)
	}

	res := SummaryResult{MeetingID: meetingID, Summary: summary}
	res.Chunks = chunker.Split(meetingID, summary)
	if len(res.Chunks) == 0 {
		p.logger.Warn(ctx, "Summary of %s has no valid chunks", meetingID)
		res.NoValidChunks = true
		return res, nil
	}

	ordinals := make([]int, len(segments))
	for i, s := range segments {
		ordinals[i] = s.Ordinal
	}
	res.InvalidCitations = chunker.ValidateCitations(res.Chunks, ordinals)
	for _, ic := range res.InvalidCitations {
		p.logger.Warn(ctx, "Summary of %s: section %d cites unknown utterance %d", meetingID, ic.SummaryIndex, ic.Ordinal)
	}

	if err := p.vectors.UpsertSubtopics(ctx, *meeting, res.Chunks); err != nil {
		return SummaryResult{}, fmt.Errorf("store subtopics of %s: %w", meetingID, err)
	}
	p.logger.Info(ctx, "Stored %d subtopics for meeting %s", len(res.Chunks), meetingID)
	return res, nil
}

// Reindex rebuilds the transcript vector of a meeting from the relational
// store.
func (p *implProcessor) Reindex(ctx context.Context, meetingID string) error {
	if err := p.indexTranscript(ctx, meetingID); err != nil {
		return fmt.Errorf("reindex %s: %w", meetingID, err)
	}
	p.logger.Info(ctx, "Reindexed meeting %s", meetingID)
	return nil
}

// indexTranscript writes the start-ordered, space-joined transcript of a
// stored meeting to the chunks collection.
func (p *implProcessor) indexTranscript(ctx context.Context, meetingID string) error {
	meeting, segments, err := p.loadMeeting(ctx, meetingID)
	if err != nil {
		return err
	}
	return p.vectors.UpsertTranscript(ctx, models.NewTranscriptMetadata(*meeting), normalize.JoinText(segments))
}

func (p *implProcessor) loadMeeting(ctx context.Context, meetingID string) (*models.Meeting, []models.Segment, error) {
	meeting, err := p.transcripts.MeetingInfo(ctx, meetingID)
	if err != nil {
		return nil, nil, err
	}
	if meeting == nil {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrMeetingNotFound, meetingID)
	}

	segments, err := p.transcripts.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, nil, err
	}
	return meeting, segments, nil
}
