package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SYH0213/genminute-ai/internal/mcpserver"
	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/normalize"
	"github.com/SYH0213/genminute-ai/internal/summarizer"
)

// filterFlags are the metadata filter options shared by search and delete.
type filterFlags struct {
	meetingID    string
	audioFile    string
	title        string
	date         string
	dateFrom     string
	dateTo       string
	mainTopic    string
	summaryIndex int
}

func (f *filterFlags) bindMeeting(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.meetingID, "meeting-id", "", "only this meeting")
	cmd.Flags().StringVar(&f.audioFile, "audio-file", "", "only meetings recorded in this file")
	cmd.Flags().StringVar(&f.title, "title", "", "only meetings with this title")
}

func (f *filterFlags) bindVector(cmd *cobra.Command) {
	f.bindMeeting(cmd)
	cmd.Flags().StringVar(&f.date, "date", "", "only meetings on this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.dateFrom, "from", "", "only meetings on or after this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.dateTo, "to", "", "only meetings on or before this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.mainTopic, "topic", "", "only subtopics with this main topic")
	cmd.Flags().IntVar(&f.summaryIndex, "summary-index", -1, "only the subtopic at this position")
}

func (f *filterFlags) meeting() models.MeetingFilter {
	return models.MeetingFilter{MeetingID: f.meetingID, AudioFile: f.audioFile, Title: f.title}
}

func (f *filterFlags) vector() *models.VectorFilter {
	v := &models.VectorFilter{
		MeetingFilter: f.meeting(),
		Date:          f.date,
		DateFrom:      f.dateFrom,
		DateTo:        f.dateTo,
		MainTopic:     f.mainTopic,
	}
	if f.summaryIndex >= 0 {
		idx := f.summaryIndex
		v.SummaryIndex = &idx
	}
	return v
}

func newIngestCmd(withApp appWrapper) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "ingest <audio-or-json-file>",
		Short: "Transcribe an audio file (or load utterance JSON) and store it as a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			path := args[0]
			if strings.EqualFold(filepath.Ext(path), ".json") {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read utterances: %w", err)
				}
				raw, err := normalize.ParseUtterances(data)
				if err != nil {
					return err
				}
				res, err := a.processor.Ingest(cmd.Context(), raw, filepath.Base(path), title)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			}

			if err := a.cfg.RequireGemini(); err != nil {
				return err
			}
			res, err := a.processor.ProcessAudio(cmd.Context(), path, title)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "meeting title (defaults to the file name)")
	return cmd
}

func newSummarizeCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <meeting-id>",
		Short: "Generate the topic summary of a meeting and index its subtopics",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.cfg.RequireGemini(); err != nil {
				return err
			}
			res, err := a.processor.Summarize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}),
	}
}

func newSearchCmd(withApp appWrapper) *cobra.Command {
	var (
		collection string
		strategy   string
		k          int
		filter     filterFlags
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search meeting transcripts or subtopics",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if strategy == "" {
				strategy = a.cfg.Retrieval.DefaultStrategy
			}
			docs, err := a.engine.Search(cmd.Context(), collection, strings.Join(args, " "), k, strategy, filter.vector())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), docs)
		}),
	}
	cmd.Flags().StringVar(&collection, "collection", string(models.CollectionSubtopic), "chunks or subtopic")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "similarity, mmr or self_query (default from config)")
	cmd.Flags().IntVar(&k, "k", 0, "number of results (default from config)")
	filter.bindVector(cmd)
	return cmd
}

func newListCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored meetings, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			meetings, err := a.transcripts.ListMeetings(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(meetings) == 0 {
				fmt.Fprintln(out, "No meetings stored.")
				return nil
			}
			for _, m := range meetings {
				fmt.Fprintf(out, "%s  %s  %-30s  %3d segments  %s\n", m.ID, m.DateString(), m.Title, m.SegmentCount, m.AudioFile)
			}
			return nil
		}),
	}
}

func newShowCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "show <meeting-id>",
		Short: "Print a meeting transcript and its stored subtopics",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			meeting, segments, summary, err := loadMeeting(cmd, a, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s  |  %s\n\n", meeting.Title, meeting.DateString(), meeting.AudioFile)
			fmt.Fprintln(out, normalize.NumberedTranscript(segments))
			if summary == "" {
				a.logger.Debug(ctx, "Meeting %s has no stored subtopics", meeting.ID)
				return nil
			}
			fmt.Fprintf(out, "\n%s\n", summary)
			return nil
		}),
	}
}

func newDeleteCmd(withApp appWrapper) *cobra.Command {
	var (
		collection string
		all        bool
		filter     filterFlags
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete meetings from the transcript store and a vector collection",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			kind, err := models.ParseCollection(collection)
			if err != nil {
				return err
			}

			if all {
				if !filter.meeting().IsEmpty() {
					return fmt.Errorf("%w: --all cannot be combined with filters", models.ErrInvalidArgument)
				}
				res, err := a.deleter.DeleteEverywhereAll(cmd.Context(), kind)
				if perr := printJSON(cmd.OutOrStdout(), res); perr != nil && err == nil {
					err = perr
				}
				return err
			}

			res, err := a.deleter.DeleteEverywhere(cmd.Context(), kind, filter.meeting())
			if perr := printJSON(cmd.OutOrStdout(), res); perr != nil && err == nil {
				err = perr
			}
			return err
		}),
	}
	cmd.Flags().StringVar(&collection, "collection", string(models.CollectionTranscript), "vector collection to delete from: chunks or subtopic")
	cmd.Flags().BoolVar(&all, "all", false, "delete every meeting")
	filter.bindMeeting(cmd)
	return cmd
}

func newReindexCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <meeting-id>",
		Short: "Rebuild a meeting's transcript vector from its stored segments",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.processor.Reindex(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reindexed %s\n", args[0])
			return nil
		}),
	}
}

func newExportCmd(withApp appWrapper) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <meeting-id>",
		Short: "Write a meeting's summary and transcript to a .docx file",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			meeting, segments, summary, err := loadMeeting(cmd, a, args[0])
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = filepath.Join(a.cfg.Paths.Output, meeting.ID+".docx")
			}
			if err := summarizer.ExportDocx(*meeting, segments, summary, outPath); err != nil {
				return err
			}
			a.logger.Info(cmd.Context(), "Exported meeting %s to %s", meeting.ID, outPath)
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default <output dir>/<meeting-id>.docx)")
	return cmd
}

func newMCPCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve meeting search and lookup as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			a.logger.Info(cmd.Context(), "MCP server starting (strategies: %s)", strings.Join(a.engine.Strategies(), ", "))
			srv := mcpserver.New(version, a.engine, a.transcripts, a.vectors, a.cfg.Retrieval.DefaultStrategy, a.logger)
			return srv.ServeStdio()
		}),
	}
}

// loadMeeting reads a meeting, its segments and its stored subtopics joined
// in summary order.
func loadMeeting(cmd *cobra.Command, a *app, meetingID string) (*models.Meeting, []models.Segment, string, error) {
	ctx := cmd.Context()
	meeting, err := a.transcripts.MeetingInfo(ctx, meetingID)
	if err != nil {
		return nil, nil, "", err
	}
	if meeting == nil {
		return nil, nil, "", fmt.Errorf("%w: %s", models.ErrMeetingNotFound, meetingID)
	}
	segments, err := a.transcripts.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, nil, "", err
	}

	topics, err := a.vectors.List(ctx, models.CollectionSubtopic,
		models.VectorFilter{MeetingFilter: models.MeetingFilter{MeetingID: meetingID}})
	if err != nil {
		return nil, nil, "", err
	}
	parts := make([]string, 0, len(topics))
	for _, t := range topics {
		parts = append(parts, t.Text)
	}
	return meeting, segments, strings.Join(parts, "\n\n"), nil
}
