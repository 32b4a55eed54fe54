package summarizer

import "context"

//go:generate mockgen -source=interface.go -destination=mock_summarizer.go -package=summarizer

// Summarizer turns a numbered meeting transcript into a topic-segmented
// markdown summary with [cite: n] references.
type Summarizer interface {
	Generate(ctx context.Context, title, transcript string) (string, error)
}
