// Package deletion removes meetings from the transcript store and a vector
// collection with the same filter.
package deletion

import (
	"context"
	"errors"
	"fmt"

	"github.com/SYH0213/genminute-ai/internal/logger"
	"github.com/SYH0213/genminute-ai/internal/models"
)

// TranscriptDeleter is the relational side of a delete.
type TranscriptDeleter interface {
	DeleteMatching(ctx context.Context, filter models.MeetingFilter) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// VectorDeleter is the vector side of a delete.
type VectorDeleter interface {
	DeleteMatching(ctx context.Context, kind models.CollectionKind, filter models.VectorFilter) (int64, error)
	DeleteAll(ctx context.Context, kind models.CollectionKind) (int64, error)
}

// Result reports how many rows each store removed.
type Result struct {
	Collection     models.CollectionKind `json:"collection"`
	TranscriptRows int64                 `json:"transcript_rows"`
	VectorRows     int64                 `json:"vector_rows"`
}

// Coordinator runs both deletes. There is no cross-store transaction; a
// partial failure is repaired by running the same delete again.
type Coordinator struct {
	transcripts TranscriptDeleter
	vectors     VectorDeleter
	logger      logger.Logger
}

// New creates a Coordinator.
func New(transcripts TranscriptDeleter, vectors VectorDeleter, log logger.Logger) *Coordinator {
	return &Coordinator{transcripts: transcripts, vectors: vectors, logger: log}
}

// DeleteEverywhere removes the meetings matching filter from the transcript
// store and from the kind collection. Both deletes always run; their errors
// are joined.
func (c *Coordinator) DeleteEverywhere(ctx context.Context, kind models.CollectionKind, filter models.MeetingFilter) (Result, error) {
	if _, err := models.ParseCollection(string(kind)); err != nil {
		return Result{}, err
	}
	if filter.IsEmpty() {
		return Result{}, fmt.Errorf("%w: empty filter, use DeleteEverywhereAll to remove everything", models.ErrInvalidArgument)
	}

	res := Result{Collection: kind}
	var errs []error

	n, err := c.transcripts.DeleteMatching(ctx, filter)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete transcripts: %w", err))
	}
	res.TranscriptRows = n

	n, err = c.vectors.DeleteMatching(ctx, kind, models.VectorFilter{MeetingFilter: filter})
	if err != nil {
		errs = append(errs, fmt.Errorf("delete %s vectors: %w", kind, err))
	}
	res.VectorRows = n

	c.logger.Info(ctx, "Deleted %+v: %d transcript rows, %d %s vectors", filter, res.TranscriptRows, res.VectorRows, kind)
	return res, errors.Join(errs...)
}

// DeleteEverywhereAll clears the transcript store and the kind collection.
func (c *Coordinator) DeleteEverywhereAll(ctx context.Context, kind models.CollectionKind) (Result, error) {
	if _, err := models.ParseCollection(string(kind)); err != nil {
		return Result{}, err
	}

	res := Result{Collection: kind}
	var errs []error

	n, err := c.transcripts.DeleteAll(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete transcripts: %w", err))
	}
	res.TranscriptRows = n

	n, err = c.vectors.DeleteAll(ctx, kind)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete %s vectors: %w", kind, err))
	}
	res.VectorRows = n

	c.logger.Warn(ctx, "Deleted everything: %d transcript rows, %d %s vectors", res.TranscriptRows, res.VectorRows, kind)
	return res, errors.Join(errs...)
}
