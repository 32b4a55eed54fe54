package models

import (
	"fmt"
	"sort"
)

// CollectionKind names one of the two vector collections.
type CollectionKind string

const (
	CollectionTranscript CollectionKind = "chunks"
	CollectionSubtopic   CollectionKind = "subtopic"
)

// Collections lists every known collection.
var Collections = []CollectionKind{CollectionTranscript, CollectionSubtopic}

// ParseCollection resolves a collection name.
func ParseCollection(name string) (CollectionKind, error) {
	switch CollectionKind(name) {
	case CollectionTranscript, CollectionSubtopic:
		return CollectionKind(name), nil
	default:
		return "", fmt.Errorf("%w: unknown collection %q (available: %s, %s)",
			ErrInvalidArgument, name, CollectionTranscript, CollectionSubtopic)
	}
}

// TableName is the backing table of the collection.
func (k CollectionKind) TableName() string {
	switch k {
	case CollectionSubtopic:
		return "meeting_subtopic"
	default:
		return "meeting_chunks"
	}
}

// ContentDescription describes what a document of the collection holds.
func (k CollectionKind) ContentDescription() string {
	if k == CollectionSubtopic {
		return "Summarized sub-topic of a meeting transcript"
	}
	return "Full transcript of a meeting"
}

// AttributeInfo describes one filterable metadata field.
type AttributeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Attributes returns the metadata schema of the collection.
func (k CollectionKind) Attributes() []AttributeInfo {
	if k == CollectionSubtopic {
		return []AttributeInfo{
			{Name: "meeting_id", Description: "The unique identifier for the meeting", Type: "string"},
			{Name: "meeting_title", Description: "The title of the meeting", Type: "string"},
			{Name: "meeting_date", Description: "The date of the meeting in ISO format (YYYY-MM-DD)", Type: "string"},
			{Name: "audio_file", Description: "The name of the audio file for the meeting", Type: "string"},
			{Name: "main_topic", Description: "The main topic of the summarized sub-chunk", Type: "string"},
			{Name: "summary_index", Description: "The index of the summary sub-chunk", Type: "integer"},
		}
	}
	return []AttributeInfo{
		{Name: "meeting_id", Description: "The unique identifier for the meeting", Type: "string"},
		{Name: "dialogue_id", Description: "The unique identifier for the dialogue within the meeting", Type: "string"},
		{Name: "title", Description: "The title of the meeting", Type: "string"},
		{Name: "meeting_date", Description: "The date of the meeting in ISO format (YYYY-MM-DD)", Type: "string"},
		{Name: "audio_file", Description: "The name of the audio file for the meeting", Type: "string"},
	}
}

// Metadata is the closed set of per-collection metadata types.
type Metadata interface {
	Collection() CollectionKind
	Meeting() string
	Fields() map[string]any
	sealed()
}

// TranscriptMetadata is attached to a whole-meeting vector.
type TranscriptMetadata struct {
	MeetingID   string `json:"meeting_id"`
	DialogueID  string `json:"dialogue_id"`
	Title       string `json:"title"`
	MeetingDate string `json:"meeting_date"`
	AudioFile   string `json:"audio_file"`
}

// NewTranscriptMetadata builds the metadata of a meeting's transcript vector.
func NewTranscriptMetadata(m Meeting) TranscriptMetadata {
	return TranscriptMetadata{
		MeetingID:   m.ID,
		DialogueID:  m.ID,
		Title:       m.Title,
		MeetingDate: m.DateString(),
		AudioFile:   m.AudioFile,
	}
}

func (TranscriptMetadata) Collection() CollectionKind { return CollectionTranscript }
func (m TranscriptMetadata) Meeting() string          { return m.MeetingID }
func (TranscriptMetadata) sealed()                    {}

func (m TranscriptMetadata) Fields() map[string]any {
	return map[string]any{
		"meeting_id":   m.MeetingID,
		"dialogue_id":  m.DialogueID,
		"title":        m.Title,
		"meeting_date": m.MeetingDate,
		"audio_file":   m.AudioFile,
	}
}

// SubtopicMetadata is attached to a summary topic vector.
type SubtopicMetadata struct {
	MeetingID    string `json:"meeting_id"`
	MeetingTitle string `json:"meeting_title"`
	MeetingDate  string `json:"meeting_date"`
	AudioFile    string `json:"audio_file"`
	MainTopic    string `json:"main_topic"`
	SummaryIndex int    `json:"summary_index"`
}

func (SubtopicMetadata) Collection() CollectionKind { return CollectionSubtopic }
func (m SubtopicMetadata) Meeting() string          { return m.MeetingID }
func (SubtopicMetadata) sealed()                    {}

func (m SubtopicMetadata) Fields() map[string]any {
	return map[string]any{
		"meeting_id":    m.MeetingID,
		"meeting_title": m.MeetingTitle,
		"meeting_date":  m.MeetingDate,
		"audio_file":    m.AudioFile,
		"main_topic":    m.MainTopic,
		"summary_index": m.SummaryIndex,
	}
}

// SubtopicID is the vector id of a meeting's summary chunk.
func SubtopicID(meetingID string, index int) string {
	return fmt.Sprintf("%s_summary_%d", meetingID, index)
}

// Document is a retrieved vector with its text and metadata.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"page_content"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}

// SortedFieldNames returns metadata keys in a stable order, for display.
func SortedFieldNames(m Metadata) []string {
	fields := m.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
