// Package vectorstore keeps the embedded meeting collections in SQLite and
// ranks them by cosine similarity.
package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/SYH0213/genminute-ai/internal/embedding"
	"github.com/SYH0213/genminute-ai/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS meeting_chunks (
	id TEXT PRIMARY KEY,
	meeting_id TEXT NOT NULL,
	dialogue_id TEXT NOT NULL,
	title TEXT NOT NULL,
	meeting_date TEXT NOT NULL,
	audio_file TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS meeting_subtopic (
	id TEXT PRIMARY KEY,
	meeting_id TEXT NOT NULL,
	meeting_title TEXT NOT NULL,
	meeting_date TEXT NOT NULL,
	audio_file TEXT NOT NULL,
	main_topic TEXT NOT NULL,
	summary_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_meeting ON meeting_chunks(meeting_id);
CREATE INDEX IF NOT EXISTS idx_subtopic_meeting ON meeting_subtopic(meeting_id, summary_index);
`

var columns = map[models.CollectionKind]string{
	models.CollectionTranscript: "id, meeting_id, dialogue_id, title, meeting_date, audio_file, content, embedding",
	models.CollectionSubtopic:   "id, meeting_id, meeting_title, meeting_date, audio_file, main_topic, summary_index, content, embedding",
}

// Hit is a search result with the stored vector attached.
type Hit struct {
	Document  models.Document
	Embedding []float32
}

// Store holds both vector collections.
type Store struct {
	db       *sql.DB
	embedder embedding.Embedder
}

// Open opens (or creates) the vector database at path.
func Open(path string, embedder embedding.Embedder) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open vector database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping vector database: %w", err)
	}

	return New(db, embedder)
}

// New wraps an open database and ensures both collection tables exist.
func New(db *sql.DB, embedder embedding.Embedder) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("%w: create vector schema: %v", models.ErrStorage, err)
	}
	return &Store{db: db, embedder: embedder}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Embed exposes the store's embedder so queries and documents share one
// vector space.
func (s *Store) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return s.embedder.Embed(ctx, texts)
}

// UpsertTranscript stores the whole-meeting vector under the meeting id,
// replacing any previous version.
func (s *Store) UpsertTranscript(ctx context.Context, meta models.TranscriptMetadata, text string) error {
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed transcript %s: %w", meta.MeetingID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meeting_chunks (id, meeting_id, dialogue_id, title, meeting_date, audio_file, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			meeting_id = excluded.meeting_id,
			dialogue_id = excluded.dialogue_id,
			title = excluded.title,
			meeting_date = excluded.meeting_date,
			audio_file = excluded.audio_file,
			content = excluded.content,
			embedding = excluded.embedding
	`, meta.MeetingID, meta.MeetingID, meta.DialogueID, meta.Title, meta.MeetingDate, meta.AudioFile,
		text, encodeVector(vecs[0]))
	if err != nil {
		return fmt.Errorf("%w: upsert transcript %s: %v", models.ErrStorage, meta.MeetingID, err)
	}
	return nil
}

// UpsertSubtopics replaces the summary chunks of a meeting. All chunks are
// embedded before anything is written; the old rows are removed and the
// new ones inserted in one transaction.
func (s *Store) UpsertSubtopics(ctx context.Context, meeting models.Meeting, chunks []models.SubtopicChunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vecs [][]float32
	if len(texts) > 0 {
		var err error
		vecs, err = s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed subtopics of %s: %w", meeting.ID, err)
		}
		if len(vecs) != len(chunks) {
			return fmt.Errorf("embed subtopics of %s: got %d vectors for %d chunks", meeting.ID, len(vecs), len(chunks))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", models.ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM meeting_subtopic WHERE meeting_id = ?", meeting.ID); err != nil {
		return fmt.Errorf("%w: clear subtopics of %s: %v", models.ErrStorage, meeting.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO meeting_subtopic
		(id, meeting_id, meeting_title, meeting_date, audio_file, main_topic, summary_index, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", models.ErrStorage, err)
	}
	defer stmt.Close()

	date := meeting.DateString()
	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, models.SubtopicID(meeting.ID, i), meeting.ID, meeting.Title, date,
			meeting.AudioFile, c.MainTopic, i, c.Text, encodeVector(vecs[i])); err != nil {
			return fmt.Errorf("%w: insert subtopic %d: %v", models.ErrStorage, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", models.ErrStorage, err)
	}
	return nil
}

// Search returns the k rows of the collection most similar to vec among
// those matching filter, best first.
func (s *Store) Search(ctx context.Context, kind models.CollectionKind, vec []float32, k int, filter models.VectorFilter) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidArgument, k)
	}

	hits, err := s.scan(ctx, kind, filter, "")
	if err != nil {
		return nil, err
	}

	for i := range hits {
		if len(hits[i].Embedding) != len(vec) {
			return nil, fmt.Errorf("%w: %s has %d-dimensional vectors, query has %d (reindex after changing the embedding provider)",
				models.ErrStorage, hits[i].Document.ID, len(hits[i].Embedding), len(vec))
		}
		hits[i].Document.Score = Cosine(vec, hits[i].Embedding)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Document.Score > hits[j].Document.Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// List returns every document of the collection matching filter, ordered
// by meeting and position.
func (s *Store) List(ctx context.Context, kind models.CollectionKind, filter models.VectorFilter) ([]models.Document, error) {
	order := "ORDER BY meeting_date DESC, meeting_id ASC"
	if kind == models.CollectionSubtopic {
		order += ", summary_index ASC"
	}

	hits, err := s.scan(ctx, kind, filter, order)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
	}
	return docs, nil
}

// Get returns one document by id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, kind models.CollectionKind, id string) (*models.Document, error) {
	if _, err := models.ParseCollection(string(kind)); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", columns[kind], kind.TableName())
	hit, err := scanHit(kind, s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hit.Document, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context, kind models.CollectionKind) (int, error) {
	if _, err := models.ParseCollection(string(kind)); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+kind.TableName()).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count %s: %v", models.ErrStorage, kind, err)
	}
	return n, nil
}

// DeleteMatching removes the documents matching filter. An empty filter is
// rejected; use DeleteAll to clear a collection.
func (s *Store) DeleteMatching(ctx context.Context, kind models.CollectionKind, filter models.VectorFilter) (int64, error) {
	if filter.IsEmpty() {
		return 0, fmt.Errorf("%w: empty filter, use DeleteAll to clear %s", models.ErrInvalidArgument, kind)
	}

	where, params, err := buildWhere(kind, filter)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "DELETE FROM "+kind.TableName()+where, params...)
}

// DeleteAll removes every document of the collection.
func (s *Store) DeleteAll(ctx context.Context, kind models.CollectionKind) (int64, error) {
	if _, err := models.ParseCollection(string(kind)); err != nil {
		return 0, err
	}
	return s.exec(ctx, "DELETE FROM "+kind.TableName())
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

func (s *Store) scan(ctx context.Context, kind models.CollectionKind, filter models.VectorFilter, order string) ([]Hit, error) {
	where, params, err := buildWhere(kind, filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s %s", columns[kind], kind.TableName(), where, order)
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", models.ErrStorage, kind, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		hit, err := scanHit(kind, rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrStorage, kind, err)
	}
	return hits, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHit(kind models.CollectionKind, row scanner) (Hit, error) {
	var (
		hit  Hit
		blob []byte
		err  error
	)

	switch kind {
	case models.CollectionSubtopic:
		var meta models.SubtopicMetadata
		err = row.Scan(&hit.Document.ID, &meta.MeetingID, &meta.MeetingTitle, &meta.MeetingDate,
			&meta.AudioFile, &meta.MainTopic, &meta.SummaryIndex, &hit.Document.Text, &blob)
		hit.Document.Metadata = meta
	default:
		var meta models.TranscriptMetadata
		err = row.Scan(&hit.Document.ID, &meta.MeetingID, &meta.DialogueID, &meta.Title,
			&meta.MeetingDate, &meta.AudioFile, &hit.Document.Text, &blob)
		hit.Document.Metadata = meta
	}
	if err == sql.ErrNoRows {
		return Hit{}, err
	}
	if err != nil {
		return Hit{}, fmt.Errorf("%w: scan %s row: %v", models.ErrStorage, kind, err)
	}

	hit.Embedding, err = decodeVector(blob)
	if err != nil {
		return Hit{}, fmt.Errorf("%w: %s: %v", models.ErrStorage, hit.Document.ID, err)
	}
	return hit, nil
}
