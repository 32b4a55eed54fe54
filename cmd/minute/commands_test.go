package main

import (
	"testing"

	"github.com/SYH0213/genminute-ai/internal/models"
)

func TestFilterFlagsVector(t *testing.T) {
	tests := []struct {
		name      string
		flags     filterFlags
		wantEmpty bool
		wantIndex *int
	}{
		{name: "no flags", flags: filterFlags{summaryIndex: -1}, wantEmpty: true},
		{name: "meeting id", flags: filterFlags{meetingID: "m1", summaryIndex: -1}},
		{name: "summary index zero", flags: filterFlags{summaryIndex: 0}, wantIndex: intPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.flags.vector()
			if got.IsEmpty() != tt.wantEmpty {
				t.Errorf("vector().IsEmpty() = %v, want %v", got.IsEmpty(), tt.wantEmpty)
			}
			switch {
			case tt.wantIndex == nil && got.SummaryIndex != nil:
				t.Errorf("SummaryIndex = %d, want nil", *got.SummaryIndex)
			case tt.wantIndex != nil && (got.SummaryIndex == nil || *got.SummaryIndex != *tt.wantIndex):
				t.Errorf("SummaryIndex = %v, want %d", got.SummaryIndex, *tt.wantIndex)
			}
		})
	}
}

func TestFilterFlagsMeeting(t *testing.T) {
	f := filterFlags{meetingID: "m1", title: "Budget", date: "2024-05-01"}
	want := models.MeetingFilter{MeetingID: "m1", Title: "Budget"}
	if got := f.meeting(); got != want {
		t.Errorf("meeting() = %+v, want %+v", got, want)
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"ingest", "summarize", "search", "list", "show", "delete", "reindex", "export", "watch", "mcp"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root command has no --config flag")
	}
}

func intPtr(v int) *int { return &v }
