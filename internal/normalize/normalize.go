// Package normalize turns raw transcription output into canonical segments.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/SYH0213/genminute-ai/internal/models"
)

// Separator joins segment texts into a meeting's full transcript.
const Separator = " "

const defaultSpeaker = "1"

// Speaker is a speaker label that decodes from a JSON number or string.
type Speaker string

func (s *Speaker) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Speaker(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("speaker must be a number or string: %w", err)
	}
	*s = Speaker(n.String())
	return nil
}

// RawUtterance is one utterance as produced by a transcriber.
type RawUtterance struct {
	Speaker    Speaker `json:"speaker"`
	StartTime  string  `json:"start_time_mmss"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

// ParseTimestamp converts "minutes:seconds:milliseconds" to seconds.
// Anything that is not three colon-separated integers yields 0.
func ParseTimestamp(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0
	}

	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		n[i] = v
	}

	return float64(n[0]*60+n[1]) + float64(n[2])/1000.0
}

// Normalize converts raw utterances to segments. The ordinal of each
// segment is its position in raw.
func Normalize(raw []RawUtterance) []models.Segment {
	segments := make([]models.Segment, 0, len(raw))
	for i, u := range raw {
		speaker := strings.TrimSpace(string(u.Speaker))
		if speaker == "" {
			speaker = defaultSpeaker
		}
		segments = append(segments, models.Segment{
			Ordinal:      i,
			Speaker:      speaker,
			StartSeconds: ParseTimestamp(u.StartTime),
			Confidence:   clamp(u.Confidence),
			Text:         u.Text,
		})
	}
	return segments
}

// ParseUtterances decodes a JSON array of raw utterances. Markdown code
// fences around the array are tolerated.
func ParseUtterances(data []byte) ([]RawUtterance, error) {
	cleaned := strings.TrimSpace(string(data))
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw []RawUtterance
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("decode utterances: %w", err)
	}
	return raw, nil
}

// SortByStart orders segments by start offset, ties by ordinal.
func SortByStart(segments []models.Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].StartSeconds != segments[j].StartSeconds {
			return segments[i].StartSeconds < segments[j].StartSeconds
		}
		return segments[i].Ordinal < segments[j].Ordinal
	})
}

// JoinText concatenates segment texts in the given order.
func JoinText(segments []models.Segment) string {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return strings.Join(texts, Separator)
}

// NumberedTranscript renders one "[ordinal] speaker: text" line per segment
// so citation markers can refer back to ordinals.
func NumberedTranscript(segments []models.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "[%d] %s: %s\n", s.Ordinal, s.Speaker, strings.TrimSpace(s.Text))
	}
	return b.String()
}

// FormatOffset renders seconds as m:ss.
func FormatOffset(sec float64) string {
	total := int(sec)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
