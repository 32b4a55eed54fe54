package transcriber

import (
	"context"

	"github.com/SYH0213/genminute-ai/internal/normalize"
)

//go:generate mockgen -source=interface.go -destination=mock_transcriber.go -package=transcriber

// Transcriber converts recorded audio into raw utterances.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) ([]normalize.RawUtterance, error)
}
