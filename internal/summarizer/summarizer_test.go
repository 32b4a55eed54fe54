package summarizer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SYH0213/genminute-ai/internal/models"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "### A\n* x [cite: 1]", "### A\n* x [cite: 1]", false},
		{"fenced", "```markdown\n### A\n* x [cite: 1]\n```\n", "### A\n* x [cite: 1]", false},
		{"crlf and padding", "\r\n\r\n### A\r\n* x\r\n\r\n", "### A\n* x", false},
		{"empty", "   \n", "", true},
		{"only fences", "```json\n```", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clean(tt.input)
			if tt.wantErr {
				if !errors.Is(err, models.ErrSummaryFailed) {
					t.Errorf("Clean() error = %v, want ErrSummaryFailed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Clean: %v", err)
			}
			if got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeadingSize(t *testing.T) {
	tests := []struct {
		level int
		want  uint64
	}{
		{1, 16}, {2, 15}, {3, 14}, {4, fontSize},
	}
	for _, tt := range tests {
		if got := headingSize(tt.level); got != tt.want {
			t.Errorf("headingSize(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestCleanMarkdownInline(t *testing.T) {
	if got := cleanMarkdownInline("**bold** and `code` __u__"); got != "bold and code u" {
		t.Errorf("cleanMarkdownInline() = %q", got)
	}
}

func TestExportDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meeting.docx")
	meeting := models.Meeting{ID: "m1", Title: "Budget", AudioFile: "b.wav", Date: time.Now()}
	segments := []models.Segment{
		{Ordinal: 0, Speaker: "1", StartSeconds: 0, Text: "Let's start."},
		{Ordinal: 1, Speaker: "2", StartSeconds: 5.2, Text: "Sounds **good**."},
	}

	if err := ExportDocx(meeting, segments, "### Spending\n* up 10% [cite: 0]", path); err != nil {
		t.Fatalf("ExportDocx: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("exported document is empty")
	}
}
