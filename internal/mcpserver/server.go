// Package mcpserver exposes meeting search and lookup as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/SYH0213/genminute-ai/internal/logger"
	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/retrieval"
)

// MeetingReader is the transcript store surface the tools read.
type MeetingReader interface {
	ListMeetings(ctx context.Context) ([]models.Meeting, error)
	MeetingInfo(ctx context.Context, meetingID string) (*models.Meeting, error)
	GetMeeting(ctx context.Context, meetingID string) ([]models.Segment, error)
}

// DocumentLister lists stored vector documents.
type DocumentLister interface {
	List(ctx context.Context, kind models.CollectionKind, filter models.VectorFilter) ([]models.Document, error)
}

// Server holds the MCP server and its tool handlers.
type Server struct {
	mcp             *server.MCPServer
	engine          retrieval.Engine
	meetings        MeetingReader
	documents       DocumentLister
	defaultStrategy string
	logger          logger.Logger
}

// New creates the server and registers search_meetings, list_meetings and
// get_meeting.
func New(version string, engine retrieval.Engine, meetings MeetingReader, documents DocumentLister,
	defaultStrategy string, log logger.Logger) *Server {
	s := &Server{
		mcp:             server.NewMCPServer("genminute", version, server.WithToolCapabilities(false)),
		engine:          engine,
		meetings:        meetings,
		documents:       documents,
		defaultStrategy: defaultStrategy,
		logger:          log,
	}

	s.mcp.AddTool(mcp.NewTool("search_meetings",
		mcp.WithDescription("Semantic search over meeting transcripts or summarized meeting topics"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language question or keywords")),
		mcp.WithString("collection",
			mcp.Description("chunks (full transcripts) or subtopic (summarized topics)"),
			mcp.Enum(string(models.CollectionTranscript), string(models.CollectionSubtopic))),
		mcp.WithString("strategy",
			mcp.Description("similarity, mmr or self_query"),
			mcp.Enum(retrieval.StrategySimilar, retrieval.StrategyMMR, retrieval.StrategySelfQuery)),
		mcp.WithNumber("k", mcp.Description("Number of results")),
		mcp.WithString("meeting_id", mcp.Description("Only search this meeting")),
		mcp.WithString("title", mcp.Description("Only search meetings with this title")),
		mcp.WithString("audio_file", mcp.Description("Only search meetings recorded in this file")),
	), s.handleSearch)

	s.mcp.AddTool(mcp.NewTool("list_meetings",
		mcp.WithDescription("List stored meetings, newest first"),
	), s.handleList)

	s.mcp.AddTool(mcp.NewTool("get_meeting",
		mcp.WithDescription("Get a meeting's transcript and its summarized topics"),
		mcp.WithString("meeting_id", mcp.Required(), mcp.Description("Meeting identifier")),
	), s.handleGet)

	return s
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filter := &models.VectorFilter{MeetingFilter: models.MeetingFilter{
		MeetingID: req.GetString("meeting_id", ""),
		Title:     req.GetString("title", ""),
		AudioFile: req.GetString("audio_file", ""),
	}}

	docs, err := s.engine.Search(ctx,
		req.GetString("collection", string(models.CollectionSubtopic)),
		query,
		req.GetInt("k", 0),
		req.GetString("strategy", s.defaultStrategy),
		filter)
	if err != nil {
		s.logger.Warn(ctx, "search_meetings failed: %v", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"count": len(docs), "results": docs})
}

func (s *Server) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meetings, err := s.meetings.ListMeetings(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	return jsonResult(map[string]any{"count": len(meetings), "meetings": meetings})
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meetingID, err := req.RequireString("meeting_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	meeting, err := s.meetings.MeetingInfo(ctx, meetingID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if meeting == nil {
		return mcp.NewToolResultError(fmt.Errorf("%w: %s", models.ErrMeetingNotFound, meetingID).Error()), nil
	}

	segments, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	topics, err := s.documents.List(ctx, models.CollectionSubtopic,
		models.VectorFilter{MeetingFilter: models.MeetingFilter{MeetingID: meetingID}})
	if err != nil && !errors.Is(err, models.ErrInvalidArgument) {
		s.logger.Warn(ctx, "get_meeting: list subtopics of %s: %v", meetingID, err)
	}
	if topics == nil {
		topics = []models.Document{}
	}

	return jsonResult(map[string]any{
		"meeting":   meeting,
		"segments":  segments,
		"subtopics": topics,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
