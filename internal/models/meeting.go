// Package models holds the domain types shared by the transcript store,
// vector store and retrieval engine.
package models

import "time"

// DateLayout is the format meeting dates are stored and exposed in.
const DateLayout = "2006-01-02 15:04:05"

// Meeting is one ingested recording session.
type Meeting struct {
	ID           string    `json:"meeting_id"`
	Title        string    `json:"title"`
	Date         time.Time `json:"meeting_date"`
	AudioFile    string    `json:"audio_file"`
	SegmentCount int       `json:"segment_count"`
}

// DateString returns the meeting date in DateLayout.
func (m Meeting) DateString() string {
	return m.Date.Format(DateLayout)
}

// Segment is one timestamped utterance of a meeting.
type Segment struct {
	Ordinal      int     `json:"ordinal"`
	Speaker      string  `json:"speaker"`
	StartSeconds float64 `json:"start_time"`
	Confidence   float64 `json:"confidence"`
	Text         string  `json:"text"`
}

// SubtopicChunk is one topic section of a meeting summary.
type SubtopicChunk struct {
	MeetingID    string `json:"meeting_id"`
	MainTopic    string `json:"main_topic"`
	SummaryIndex int    `json:"summary_index"`
	Text         string `json:"text"`
}

// ID returns the vector id of the chunk.
func (c SubtopicChunk) ID() string {
	return SubtopicID(c.MeetingID, c.SummaryIndex)
}
