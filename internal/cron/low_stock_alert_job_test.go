package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type memoryAlerts struct {
	keys   map[string]bool
	setErr error
}

func newMemoryAlerts() *memoryAlerts { return &memoryAlerts{keys: map[string]bool{}} }

func (m *memoryAlerts) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryAlerts) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func (m *memoryAlerts) AlertKey(kind, subject, day string) string {
	return "alert:" + kind + ":" + subject + ":" + day
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox down")
}

func newLowStockJob(t *testing.T, conn *gorm.DB, alerts alertStore, emitter outboxEmitter, threshold int) *lowStockAlertJob {
	t.Helper()
	job, err := NewLowStockAlertJob(LowStockAlertJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		DB:        db.NewFromGorm(conn),
		Products:  products.NewRepository(conn),
		Outbox:    emitter,
		Alerts:    alerts,
		Threshold: threshold,
	})
	require.NoError(t, err)
	impl := job.(*lowStockAlertJob)
	impl.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return impl
}

func TestLowStockAlertEmitsOncePerDay(t *testing.T) {
	conn := dbtest.Open(t)
	low := dbtest.SeedProduct(t, conn, "Low", "1.00", dbtest.WithStock(2))
	dbtest.SeedProduct(t, conn, "Plenty", "1.00", dbtest.WithStock(50))
	alerts := newMemoryAlerts()
	job := newLowStockJob(t, conn, alerts, outbox.NewService(outbox.NewRepository(conn), nil), 0)

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventLowStockDetected, events[0].EventType)
	assert.Equal(t, low.ID, events[0].AggregateID)

	var envelope outbox.Envelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var payload payloads.LowStockDetectedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, 2, payload.Stock)
	assert.Equal(t, 5, payload.Threshold)

	job.now = func() time.Time { return time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC) }
	require.NoError(t, job.Run(context.Background()))
	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestLowStockAlertExplicitThreshold(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.SeedProduct(t, conn, "Twenty", "1.00", dbtest.WithStock(20))
	dbtest.SeedProduct(t, conn, "Forty", "1.00", dbtest.WithStock(40))
	job := newLowStockJob(t, conn, newMemoryAlerts(), outbox.NewService(outbox.NewRepository(conn), nil), 25)

	require.NoError(t, job.Run(context.Background()))
	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLowStockAlertReleasesClaimOnEmitFailure(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.SeedProduct(t, conn, "A", "1.00", dbtest.WithStock(1))
	dbtest.SeedProduct(t, conn, "B", "1.00", dbtest.WithStock(0))
	alerts := newMemoryAlerts()
	job := newLowStockJob(t, conn, alerts, failingEmitter{}, 0)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Empty(t, alerts.keys)
}
