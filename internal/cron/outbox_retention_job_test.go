package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

func seedOutboxRow(t *testing.T, conn *gorm.DB, created time.Time, published *time.Time, attempts int) uuid.UUID {
	t.Helper()
	row := models.OutboxEvent{
		EventType:     enums.EventLowStockDetected,
		AggregateType: enums.AggregateProduct,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		CreatedAt:     created,
		PublishedAt:   published,
		AttemptCount:  attempts,
	}
	require.NoError(t, conn.Create(&row).Error)
	return row.ID
}

func TestOutboxRetentionPurgesOldPublishedAndParkedRows(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -45)
	recent := now.AddDate(0, 0, -2)

	seedOutboxRow(t, conn, old, &old, 1)
	seedOutboxRow(t, conn, old, nil, 10)
	keepPending := seedOutboxRow(t, conn, old, nil, 3)
	keepRecent := seedOutboxRow(t, conn, recent, &recent, 1)

	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:            db.NewFromGorm(conn),
		Repository:    outbox.NewRepository(conn),
		RetentionDays: 30,
		ParkedAfter:   10,
	})
	require.NoError(t, err)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	var remaining []models.OutboxEvent
	require.NoError(t, conn.Order("created_at").Find(&remaining).Error)
	ids := []uuid.UUID{}
	for _, row := range remaining {
		ids = append(ids, row.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{keepPending, keepRecent}, ids)
}

type brokenPurger struct{ cutoff time.Time }

func (b *brokenPurger) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, _ int) (int64, error) {
	b.cutoff = cutoff
	return 0, errors.New("disk full")
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func TestOutboxRetentionDefaultsAndErrors(t *testing.T) {
	purger := &brokenPurger{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:         passthroughTx{},
		Repository: purger,
	})
	require.NoError(t, err)
	impl := job.(*outboxRetentionJob)
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return now }

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, now.AddDate(0, 0, -defaultRetentionDays), purger.cutoff)
	assert.Equal(t, defaultParkedAfter, impl.parkedAfter)
}
