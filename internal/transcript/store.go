// Package transcript provides SQLite persistence for meeting dialogue rows.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/SYH0213/genminute-ai/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS meeting_dialogues (
	meeting_id TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	meeting_date TEXT NOT NULL,
	speaker_label TEXT NOT NULL,
	start_time REAL NOT NULL,
	segment TEXT NOT NULL,
	confidence REAL NOT NULL,
	audio_file TEXT NOT NULL,
	title TEXT NOT NULL,
	PRIMARY KEY (meeting_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_dialogues_start ON meeting_dialogues(meeting_id, start_time);
CREATE INDEX IF NOT EXISTS idx_dialogues_date ON meeting_dialogues(meeting_date);
`

// Store provides access to the meeting dialogue table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path. ":memory:" is supported
// and pinned to a single connection.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(db)
}

// New wraps an open database and ensures the schema exists.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("%w: create schema: %v", models.ErrStorage, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateMeeting stores all segments under a fresh meeting id in a single
// transaction and returns the id.
func (s *Store) CreateMeeting(ctx context.Context, segments []models.Segment, audioFile, title string) (string, error) {
	meetingID := uuid.NewString()
	meetingDate := s.now().Format(models.DateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: begin transaction: %v", models.ErrStorage, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO meeting_dialogues
		(meeting_id, ordinal, meeting_date, speaker_label, start_time, segment, confidence, audio_file, title)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("%w: prepare insert: %v", models.ErrStorage, err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		if _, err := stmt.ExecContext(ctx, meetingID, seg.Ordinal, meetingDate, seg.Speaker,
			seg.StartSeconds, seg.Text, seg.Confidence, audioFile, title); err != nil {
			return "", fmt.Errorf("%w: insert segment %d: %v", models.ErrStorage, seg.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: commit: %v", models.ErrStorage, err)
	}
	return meetingID, nil
}

// GetMeeting returns the segments of a meeting ordered by start time.
// An unknown id yields an empty slice.
func (s *Store) GetMeeting(ctx context.Context, meetingID string) ([]models.Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, speaker_label, start_time, confidence, segment
		FROM meeting_dialogues
		WHERE meeting_id = ?
		ORDER BY start_time ASC, ordinal ASC
	`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("%w: query segments: %v", models.ErrStorage, err)
	}
	defer rows.Close()

	segments := []models.Segment{}
	for rows.Next() {
		var seg models.Segment
		if err := rows.Scan(&seg.Ordinal, &seg.Speaker, &seg.StartSeconds, &seg.Confidence, &seg.Text); err != nil {
			return nil, fmt.Errorf("%w: scan segment: %v", models.ErrStorage, err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read segments: %v", models.ErrStorage, err)
	}
	return segments, nil
}

// MeetingInfo returns the meeting header, or nil if the id is unknown.
func (s *Store) MeetingInfo(ctx context.Context, meetingID string) (*models.Meeting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT meeting_id, title, MAX(meeting_date), audio_file, COUNT(*)
		FROM meeting_dialogues
		WHERE meeting_id = ?
		GROUP BY meeting_id
	`, meetingID)

	m, err := scanMeeting(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMeetings returns one entry per meeting, newest first. Meetings stored
// within the same second are ordered by insertion, latest first.
func (s *Store) ListMeetings(ctx context.Context) ([]models.Meeting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT meeting_id, title, MAX(meeting_date) AS date, audio_file, COUNT(*)
		FROM meeting_dialogues
		GROUP BY meeting_id
		ORDER BY date DESC, MAX(rowid) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query meetings: %v", models.ErrStorage, err)
	}
	defer rows.Close()

	var meetings []models.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read meetings: %v", models.ErrStorage, err)
	}
	return meetings, nil
}

// DeleteMatching deletes the rows matching every non-empty filter field.
// An empty filter is rejected; use DeleteAll to clear the table.
func (s *Store) DeleteMatching(ctx context.Context, filter models.MeetingFilter) (int64, error) {
	if filter.IsEmpty() {
		return 0, fmt.Errorf("%w: empty filter, use DeleteAll to remove every meeting", models.ErrInvalidArgument)
	}

	var conditions []string
	var params []any
	if filter.MeetingID != "" {
		conditions = append(conditions, "meeting_id = ?")
		params = append(params, filter.MeetingID)
	}
	if filter.AudioFile != "" {
		conditions = append(conditions, "audio_file = ?")
		params = append(params, filter.AudioFile)
	}
	if filter.Title != "" {
		conditions = append(conditions, "title = ?")
		params = append(params, filter.Title)
	}

	query := "DELETE FROM meeting_dialogues WHERE " + strings.Join(conditions, " AND ")
	return s.exec(ctx, query, params...)
}

// DeleteAll removes every dialogue row.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	return s.exec(ctx, "DELETE FROM meeting_dialogues")
}

func (s *Store) exec(ctx context.Context, query string, params ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("%w: delete: %v", models.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", models.ErrStorage, err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row scanner) (*models.Meeting, error) {
	var m models.Meeting
	var date string
	if err := row.Scan(&m.ID, &m.Title, &date, &m.AudioFile, &m.SegmentCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan meeting: %v", models.ErrStorage, err)
	}

	t, err := time.ParseInLocation(models.DateLayout, date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: parse meeting date %q: %v", models.ErrStorage, date, err)
	}
	m.Date = t
	return &m, nil
}
