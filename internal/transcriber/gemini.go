// Package transcriber turns meeting audio into speaker-labelled utterances.
package transcriber

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"github.com/SYH0213/genminute-ai/internal/gemini"
	"github.com/SYH0213/genminute-ai/internal/logger"
	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/normalize"
)

const transcribePrompt = `You are a professional meeting minute taker. Listen to the provided audio file and:
1. Transcribe the entire conversation accurately.
2. Identify each speaker with a number, assigned in order of first appearance.
3. Rate the recognition confidence of each utterance between 0.0 and 1.0.
4. Output a JSON array whose objects have exactly the keys "speaker", "start_time_mmss", "confidence" and "text".
5. Write start_time_mmss as "minutes:seconds:milliseconds" (for example "0:05:200" or "1:23:450").

Output format:
[
    {"speaker": 1, "start_time_mmss": "0:00:000", "confidence": 0.95, "text": "Hello, let's start the meeting."},
    {"speaker": 2, "start_time_mmss": "0:05:200", "confidence": 0.92, "text": "Sounds good."}
]

Output only the JSON array, without explanations or markdown code blocks.`

var mimeTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mp3",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

// MimeType returns the audio MIME type for a file name, and false for
// unsupported extensions.
func MimeType(name string) (string, bool) {
	mt, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]
	return mt, ok
}

// IsAudio reports whether name has a supported audio extension.
func IsAudio(name string) bool {
	_, ok := MimeType(name)
	return ok
}

type implGemini struct {
	client *gemini.Client
	model  string
	logger logger.Logger
}

// New creates a Gemini-backed Transcriber.
func New(client *gemini.Client, model string, log logger.Logger) Transcriber {
	if model == "" {
		model = "gemini-2.5-pro"
	}
	return &implGemini{client: client, model: model, logger: log}
}

// Transcribe sends the audio inline with the prompt and parses the JSON answer.
func (t *implGemini) Transcribe(ctx context.Context, audio []byte, mimeType string) ([]normalize.RawUtterance, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", models.ErrTranscriptionFailed)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcribePrompt),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	t.logger.Info(ctx, "Transcribing %d bytes of %s with %s", len(audio), mimeType, t.model)
	text, err := t.client.Generate(ctx, t.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTranscriptionFailed, err)
	}

	utterances, err := normalize.ParseUtterances([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTranscriptionFailed, err)
	}
	return utterances, nil
}
