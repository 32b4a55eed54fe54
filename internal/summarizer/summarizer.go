package summarizer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/SYH0213/genminute-ai/internal/models"
)

const summaryPrompt = `You are an assistant that turns a meeting transcript into a structured, topic-by-topic summary.

Input format:
Each line of the transcript is "[n] speaker: utterance", where n is the utterance number and speakers are numbered 1, 2, 3, ...

Output requirements:
1. Meeting title: %s
2. Group the whole transcript by the main topics discussed.
3. Heading format (important): start every topic with a heading of the exact form "### Topic title".
4. Under each heading, summarize the key claims, facts and opinions as bullet points starting with "* ".
5. Rewrite spoken language as concise, formal written sentences.
6. Remove speaker labels and filler words; keep only the content.
7. Do not leave a blank line between a heading and its first bullet.
8. Separate topics with exactly one blank line.
9. Citations (required):
   * End every bullet with the numbers of the transcript lines it is based on, as [cite: n].
   * When a bullet combines several lines, cite all of them, as [cite: 1, 2].
   * Only cite line numbers that appear in the transcript.

Example output:
### First main topic
* Summary of the first point [cite: 1]
* Summary of the second point [cite: 2, 3]

### Second main topic
* Summary of a related point [cite: 4]

Transcript:
%s`

// Generate asks Gemini for the topic summary and returns it cleaned.
func (s *implSummarizer) Generate(ctx context.Context, title, transcript string) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, title, transcript)

	s.logger.Info(ctx, "Generating summary for %q with %s", title, s.model)
	text, err := s.client.Generate(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}

	summary, err := Clean(text)
	if err != nil {
		return "", err
	}
	return summary, nil
}

// Clean strips markdown code fences and surrounding whitespace. An empty
// result is ErrSummaryFailed.
func Clean(text string) (string, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}

	out := strings.TrimSpace(strings.Join(kept, "\n"))
	if out == "" {
		return "", fmt.Errorf("%w: empty summary", models.ErrSummaryFailed)
	}
	return out, nil
}
