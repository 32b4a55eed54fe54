package summarizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/normalize"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

var (
	reHeading = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet  = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reNumberd = regexp.MustCompile(`^\d+\.\s+(.+)$`)
)

// ExportDocx writes a meeting document: header, the summary (if any) and
// the timestamped transcript.
func ExportDocx(meeting models.Meeting, segments []models.Segment, summary, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	addStyledRun(doc.AddParagraph(""), meeting.Title, true, 16)
	addStyledRun(doc.AddParagraph(""), fmt.Sprintf("%s  |  %s", meeting.DateString(), meeting.AudioFile), false, fontSize)
	doc.AddParagraph("")

	if strings.TrimSpace(summary) != "" {
		addStyledRun(doc.AddParagraph(""), "Summary", true, 15)
		writeMarkdown(doc, summary)
		doc.AddParagraph("")
	}

	addStyledRun(doc.AddParagraph(""), "Transcript", true, 15)
	writeTranscript(doc, segments)

	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save %s: %w", outputPath, err)
	}
	return nil
}

func writeMarkdown(doc *docx.RootDoc, markdown string) {
	lines := strings.Split(markdown, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || trimmed == "---" {
			continue
		}

		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			p := doc.AddParagraph("")
			addStyledRun(p, m[2], true, headingSize(len(m[1])))
			continue
		}

		if m := reBullet.FindStringSubmatch(trimmed); m != nil {
			p := doc.AddParagraph("")
			addRichText(p, "• "+m[1])
			continue
		}

		if reNumberd.MatchString(trimmed) {
			p := doc.AddParagraph("")
			addRichText(p, trimmed)
			continue
		}

		p := doc.AddParagraph("")
		addRichText(p, trimmed)
	}
}

// writeTranscript adds one "[n] m:ss Speaker s: text" paragraph per segment.
func writeTranscript(doc *docx.RootDoc, segments []models.Segment) {
	for _, seg := range segments {
		p := doc.AddParagraph("")
		label := fmt.Sprintf("[%d] %s  Speaker %s: ", seg.Ordinal, normalize.FormatOffset(seg.StartSeconds), seg.Speaker)
		p.AddText(label).Font(fontName).Size(fontSize).Color("555555").Bold(true)
		p.AddText(strings.TrimSpace(seg.Text)).Font(fontName).Size(fontSize).Color("000000")
	}
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 15
	case 3:
		return 14
	default:
		return fontSize
	}
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	text = cleanMarkdownInline(text)
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(cleanMarkdownInline(part)).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			p.AddText(cleanMarkdownInline(matches[i][1])).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}

func cleanMarkdownInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
