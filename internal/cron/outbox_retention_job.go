package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	defaultRetentionDays = 30
	defaultParkedAfter   = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttempts int) (int64, error)
}

// OutboxRetentionJobParams configure the outbox cleanup. Rows published more
// than RetentionDays ago are removed, as are unpublished rows of the same age
// that the publisher parked after ParkedAfter attempts.
type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    outboxPurger
	Metrics       *metrics.CronJobMetrics
	RetentionDays int
	ParkedAfter   int
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Repository == nil:
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		metrics:     params.Metrics,
		retention:   defaultRetentionDays,
		parkedAfter: defaultParkedAfter,
		now:         time.Now,
	}
	if params.RetentionDays > 0 {
		job.retention = params.RetentionDays
	}
	if params.ParkedAfter > 0 {
		job.parkedAfter = params.ParkedAfter
	}
	return job, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        outboxPurger
	metrics     *metrics.CronJobMetrics
	retention   int
	parkedAfter int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) cutoff() time.Time {
	return j.now().UTC().AddDate(0, 0, -j.retention)
}

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	var deleted int64
	if err := j.db.WithTx(ctx, func(tx *gorm.DB) (err error) {
		deleted, err = j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.parkedAfter)
		return err
	}); err != nil {
		return fmt.Errorf("purge outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	j.metrics.AddItems(j.Name(), deleted)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"parked_after": j.parkedAfter,
		"deleted":      deleted,
	}), "outbox purge complete")
	return nil
}
