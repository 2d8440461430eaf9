package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	defaultStuckBatchSize = 200
	stuckFailureMessage   = "generation timed out"
)

// StuckGenerationJobParams configure the stuck generation reaper.
type StuckGenerationJobParams struct {
	Logger      *logger.Logger
	Items       stuckItemStore
	PollCeiling time.Duration
	Grace       time.Duration
	BatchSize   int
}

type stuckItemStore interface {
	FindStuck(ctx context.Context, cutoff time.Time, limit int) ([]models.MediaItem, error)
	Fail(ctx context.Context, id uuid.UUID, version int, failed models.MediaItemFailure) (bool, error)
}

// NewStuckGenerationJob builds the reaper that fails jobs whose worker never
// reached a terminal write.
func NewStuckGenerationJob(params StuckGenerationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("media item store required")
	}
	if params.PollCeiling <= 0 {
		return nil, fmt.Errorf("poll ceiling must be positive")
	}
	grace := params.Grace
	if grace < 0 {
		grace = 0
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStuckBatchSize
	}
	return &stuckGenerationJob{
		logg:      params.Logger,
		items:     params.Items,
		maxAge:    params.PollCeiling + grace,
		batchSize: batch,
		now:       time.Now,
	}, nil
}

type stuckGenerationJob struct {
	logg      *logger.Logger
	items     stuckItemStore
	maxAge    time.Duration
	batchSize int
	now       func() time.Time
}

func (j *stuckGenerationJob) Name() string { return "stuck_generation_reaper" }

func (j *stuckGenerationJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-j.maxAge)
	rows, err := j.items.FindStuck(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query stuck items: %w", err)
	}

	var (
		reaped     int
		superseded int
		errs       error
	)
	for _, item := range rows {
		elapsed := now.Sub(item.CreatedAt).Seconds()
		ok, err := j.items.Fail(ctx, item.ID, item.Version, models.MediaItemFailure{
			ErrorMessage:   stuckFailureMessage,
			GenerationTime: elapsed,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("fail media item %s: %w", item.ID, err))
			continue
		}
		if !ok {
			// a worker finished it between the read and the write
			superseded++
			continue
		}
		reaped++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(rows),
		"reaped":     reaped,
		"superseded": superseded,
	})
	j.logg.Info(logCtx, "stuck generation sweep complete")
	return errs
}
