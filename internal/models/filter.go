package models

import "fmt"

// MeetingFilter selects meetings by any combination of fields (AND).
// Empty fields are ignored.
type MeetingFilter struct {
	MeetingID string `json:"meeting_id,omitempty"`
	AudioFile string `json:"audio_file,omitempty"`
	Title     string `json:"title,omitempty"`
}

// IsEmpty reports whether no field is set.
func (f MeetingFilter) IsEmpty() bool {
	return f.MeetingID == "" && f.AudioFile == "" && f.Title == ""
}

// VectorFilter is a metadata predicate over one vector collection.
// Date fields compare the YYYY-MM-DD part of meeting_date.
type VectorFilter struct {
	MeetingFilter
	Date         string `json:"date,omitempty"`
	DateFrom     string `json:"date_from,omitempty"`
	DateTo       string `json:"date_to,omitempty"`
	MainTopic    string `json:"main_topic,omitempty"`
	SummaryIndex *int   `json:"summary_index,omitempty"`
}

// IsEmpty reports whether no field is set.
func (f VectorFilter) IsEmpty() bool {
	return f.MeetingFilter.IsEmpty() && f.Date == "" && f.DateFrom == "" && f.DateTo == "" &&
		f.MainTopic == "" && f.SummaryIndex == nil
}

// Validate rejects fields the collection has no column for.
func (f VectorFilter) Validate(kind CollectionKind) error {
	if kind == CollectionTranscript {
		if f.MainTopic != "" {
			return fmt.Errorf("%w: main_topic is not a field of %s", ErrInvalidArgument, kind)
		}
		if f.SummaryIndex != nil {
			return fmt.Errorf("%w: summary_index is not a field of %s", ErrInvalidArgument, kind)
		}
	}
	return nil
}

// Merge returns f with every unset field taken from other.
// Fields already set on f win.
func (f VectorFilter) Merge(other VectorFilter) VectorFilter {
	out := f
	if out.MeetingID == "" {
		out.MeetingID = other.MeetingID
	}
	if out.AudioFile == "" {
		out.AudioFile = other.AudioFile
	}
	if out.Title == "" {
		out.Title = other.Title
	}
	if out.Date == "" {
		out.Date = other.Date
	}
	if out.DateFrom == "" {
		out.DateFrom = other.DateFrom
	}
	if out.DateTo == "" {
		out.DateTo = other.DateTo
	}
	if out.MainTopic == "" {
		out.MainTopic = other.MainTopic
	}
	if out.SummaryIndex == nil && other.SummaryIndex != nil {
		idx := *other.SummaryIndex
		out.SummaryIndex = &idx
	}
	return out
}

// StructuredQuery is a semantic query plus an inferred metadata filter.
type StructuredQuery struct {
	Query  string
	Filter VectorFilter
}
