package models

import "errors"

// Error taxonomy shared by every component. Callers match with errors.Is.
var (
	ErrStorage              = errors.New("storage error")
	ErrTranscriptionFailed  = errors.New("transcription failed")
	ErrGeneration           = errors.New("generation error")
	ErrSummaryFailed        = errors.New("summary failed")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrMeetingNotFound      = errors.New("meeting not found")
)
