package vectorstore

import (
	"fmt"
	"strings"

	"github.com/SYH0213/genminute-ai/internal/models"
)

// buildWhere translates a filter into a WHERE clause for the collection's
// table. The clause is empty when the filter is.
func buildWhere(kind models.CollectionKind, f models.VectorFilter) (string, []any, error) {
	if _, err := models.ParseCollection(string(kind)); err != nil {
		return "", nil, err
	}
	if err := f.Validate(kind); err != nil {
		return "", nil, err
	}

	titleColumn := "title"
	if kind == models.CollectionSubtopic {
		titleColumn = "meeting_title"
	}

	var conditions []string
	var params []any
	add := func(cond string, value any) {
		conditions = append(conditions, cond)
		params = append(params, value)
	}

	if f.MeetingID != "" {
		add("meeting_id = ?", f.MeetingID)
	}
	if f.AudioFile != "" {
		add("audio_file = ?", f.AudioFile)
	}
	if f.Title != "" {
		add(titleColumn+" = ?", f.Title)
	}
	if f.Date != "" {
		add("substr(meeting_date, 1, 10) = ?", f.Date)
	}
	if f.DateFrom != "" {
		add("substr(meeting_date, 1, 10) >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		add("substr(meeting_date, 1, 10) <= ?", f.DateTo)
	}
	if f.MainTopic != "" {
		add("main_topic = ?", f.MainTopic)
	}
	if f.SummaryIndex != nil {
		if *f.SummaryIndex < 0 {
			return "", nil, fmt.Errorf("%w: summary_index must be non-negative", models.ErrInvalidArgument)
		}
		add("summary_index = ?", *f.SummaryIndex)
	}

	if len(conditions) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), params, nil
}
