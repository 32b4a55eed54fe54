package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/SYH0213/genminute-ai/internal/embedding"
	"github.com/SYH0213/genminute-ai/internal/logger"
	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/retrieval"
	"github.com/SYH0213/genminute-ai/internal/transcript"
	"github.com/SYH0213/genminute-ai/internal/vectorstore"
)

type fixture struct {
	server    *Server
	meetingID string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	transcripts, err := transcript.Open(":memory:")
	if err != nil {
		t.Fatalf("open transcripts: %v", err)
	}
	t.Cleanup(func() { transcripts.Close() })

	vectors, err := vectorstore.Open(":memory:", embedding.NewHashing(128))
	if err != nil {
		t.Fatalf("open vectors: %v", err)
	}
	t.Cleanup(func() { vectors.Close() })

	segments := []models.Segment{
		{Ordinal: 0, Speaker: "1", StartSeconds: 0, Confidence: 0.9, Text: "We need to cut the travel budget."},
		{Ordinal: 1, Speaker: "2", StartSeconds: 4, Confidence: 0.9, Text: "Agreed, and hiring stays frozen."},
	}
	id, err := transcripts.CreateMeeting(ctx, segments, "q3.wav", "Q3 budget")
	if err != nil {
		t.Fatalf("CreateMeeting: %v", err)
	}
	meeting, err := transcripts.MeetingInfo(ctx, id)
	if err != nil || meeting == nil {
		t.Fatalf("MeetingInfo: %v", err)
	}
	if err := vectors.UpsertTranscript(ctx, models.NewTranscriptMetadata(*meeting),
		"We need to cut the travel budget. Agreed, and hiring stays frozen."); err != nil {
		t.Fatalf("UpsertTranscript: %v", err)
	}
	chunks := []models.SubtopicChunk{
		{MainTopic: "Travel budget", Text: "### Travel budget\n* cut the travel budget [cite: 1]"},
		{MainTopic: "Hiring", SummaryIndex: 1, Text: "### Hiring\n* hiring stays frozen [cite: 2]"},
	}
	if err := vectors.UpsertSubtopics(ctx, *meeting, chunks); err != nil {
		t.Fatalf("UpsertSubtopics: %v", err)
	}

	engine := retrieval.New(vectors, nil, retrieval.Options{}, logger.NewNop())
	return fixture{
		server:    New("test", engine, transcripts, vectors, retrieval.StrategySimilar, logger.NewNop()),
		meetingID: id,
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestSearchMeetings(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleSearch(context.Background(), callRequest(map[string]any{
		"query":      "travel budget",
		"collection": "subtopic",
		"k":          float64(1),
	}))
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleSearch() tool error: %s", resultText(t, res))
	}

	var out struct {
		Count   int `json:"count"`
		Results []struct {
			ID   string `json:"id"`
			Text string `json:"page_content"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Count != 1 || len(out.Results) != 1 {
		t.Fatalf("count = %d, want 1", out.Count)
	}
	if want := models.SubtopicID(f.meetingID, 0); out.Results[0].ID != want {
		t.Errorf("top result = %s, want %s", out.Results[0].ID, want)
	}
}

func TestSearchMeetingsErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing query", map[string]any{}},
		{"unknown collection", map[string]any{"query": "budget", "collection": "notes"}},
		{"unknown strategy", map[string]any{"query": "budget", "strategy": "bm25"}},
		{"self query without constructor", map[string]any{"query": "budget", "strategy": "self_query"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.server.handleSearch(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("handleSearch() error = %v", err)
			}
			if !res.IsError {
				t.Errorf("handleSearch() IsError = false, want true")
			}
		})
	}
}

func TestListMeetings(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleList(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleList() error = %v", err)
	}

	var out struct {
		Count    int              `json:"count"`
		Meetings []models.Meeting `json:"meetings"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Count != 1 || out.Meetings[0].ID != f.meetingID {
		t.Errorf("meetings = %+v, want one meeting %s", out.Meetings, f.meetingID)
	}
	if out.Meetings[0].SegmentCount != 2 {
		t.Errorf("SegmentCount = %d, want 2", out.Meetings[0].SegmentCount)
	}
}

func TestGetMeeting(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleGet(context.Background(), callRequest(map[string]any{"meeting_id": f.meetingID}))
	if err != nil {
		t.Fatalf("handleGet() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleGet() tool error: %s", resultText(t, res))
	}

	var out struct {
		Meeting   models.Meeting    `json:"meeting"`
		Segments  []models.Segment  `json:"segments"`
		Subtopics []json.RawMessage `json:"subtopics"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Meeting.Title != "Q3 budget" {
		t.Errorf("title = %q, want %q", out.Meeting.Title, "Q3 budget")
	}
	if len(out.Segments) != 2 {
		t.Errorf("segments = %d, want 2", len(out.Segments))
	}
	if len(out.Subtopics) != 2 {
		t.Errorf("subtopics = %d, want 2", len(out.Subtopics))
	}
}

func TestGetMeetingUnknown(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleGet(context.Background(), callRequest(map[string]any{"meeting_id": "nope"}))
	if err != nil {
		t.Fatalf("handleGet() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("handleGet() IsError = false, want true")
	}
	if text := resultText(t, res); !strings.Contains(text, "meeting not found") {
		t.Errorf("error text = %q, want meeting not found", text)
	}
}
