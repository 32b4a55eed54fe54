// Package chunker splits a topic summary into one chunk per heading.
package chunker

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/SYH0213/genminute-ai/internal/models"
)

// HeadingMarker prefixes every topic heading in a summary.
const HeadingMarker = "### "

var reCitation = regexp.MustCompile(`\[cite:\s*([^\]]*)\]`)

// Split returns one chunk per heading section of summary, in order, with
// dense zero-based indices. A summary without headings yields no chunks.
func Split(meetingID, summary string) []models.SubtopicChunk {
	normalized := strings.ReplaceAll(summary, "\r\n", "\n")

	var chunks []models.SubtopicChunk
	for _, fragment := range fragments(normalized) {
		lines := strings.SplitN(fragment, "\n", 2)
		mainTopic := strings.TrimSpace(strings.TrimPrefix(lines[0], strings.TrimSpace(HeadingMarker)))

		text := fragment
		if !strings.HasPrefix(text, strings.TrimSpace(HeadingMarker)) {
			text = HeadingMarker + text
		}

		chunks = append(chunks, models.SubtopicChunk{
			MeetingID:    meetingID,
			MainTopic:    mainTopic,
			SummaryIndex: len(chunks),
			Text:         text,
		})
	}
	return chunks
}

// fragments splits on line-leading heading markers and drops empty pieces.
// Text before the first heading is not a topic and is discarded.
func fragments(summary string) []string {
	lines := strings.Split(summary, "\n")

	var out []string
	var current []string
	inSection := false

	flush := func() {
		if !inSection {
			return
		}
		f := strings.TrimSpace(strings.Join(current, "\n"))
		if strings.TrimSpace(strings.TrimPrefix(f, strings.TrimSpace(HeadingMarker))) != "" {
			out = append(out, f)
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), HeadingMarker) {
			flush()
			current = []string{strings.TrimLeft(line, " \t")}
			inSection = true
			continue
		}
		if inSection {
			current = append(current, line)
		}
	}
	flush()

	return out
}

// ParseCitations returns the ordinals referenced by citation markers in
// text, in order of appearance.
func ParseCitations(text string) []int {
	var ordinals []int
	for _, m := range reCitation.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			ordinals = append(ordinals, n)
		}
	}
	return ordinals
}

// InvalidCitation is a citation to an ordinal the meeting does not have.
type InvalidCitation struct {
	SummaryIndex int
	Ordinal      int
}

// ValidateCitations reports citations whose ordinal is not in known.
func ValidateCitations(chunks []models.SubtopicChunk, known []int) []InvalidCitation {
	valid := make(map[int]struct{}, len(known))
	for _, o := range known {
		valid[o] = struct{}{}
	}

	var invalid []InvalidCitation
	for _, c := range chunks {
		seen := map[int]bool{}
		for _, o := range ParseCitations(c.Text) {
			if _, ok := valid[o]; ok || seen[o] {
				continue
			}
			seen[o] = true
			invalid = append(invalid, InvalidCitation{SummaryIndex: c.SummaryIndex, Ordinal: o})
		}
	}

	sort.SliceStable(invalid, func(i, j int) bool {
		if invalid[i].SummaryIndex != invalid[j].SummaryIndex {
			return invalid[i].SummaryIndex < invalid[j].SummaryIndex
		}
		return invalid[i].Ordinal < invalid[j].Ordinal
	})
	return invalid
}
