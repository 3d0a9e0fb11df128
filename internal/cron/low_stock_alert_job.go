package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const (
	lowStockAlertKind = "low_stock"
	lowStockAlertTTL  = 48 * time.Hour
)

type lowStockSource interface {
	LowStock(ctx context.Context, threshold *int) ([]models.Product, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// alertStore dedupes alerts so a product is reported at most once per day.
type alertStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	AlertKey(kind, subject, day string) string
}

// LowStockAlertJobParams configure the low-stock scan. A zero Threshold uses
// each product's own low_stock_threshold.
type LowStockAlertJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Products  lowStockSource
	Outbox    outboxEmitter
	Alerts    alertStore
	Metrics   *metrics.CronJobMetrics
	Threshold int
}

func NewLowStockAlertJob(params LowStockAlertJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Products == nil:
		return nil, fmt.Errorf("product source required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Alerts == nil:
		return nil, fmt.Errorf("alert store required")
	}
	var threshold *int
	if params.Threshold > 0 {
		t := params.Threshold
		threshold = &t
	}
	return &lowStockAlertJob{
		logg:      params.Logger,
		db:        params.DB,
		products:  params.Products,
		outbox:    params.Outbox,
		alerts:    params.Alerts,
		metrics:   params.Metrics,
		threshold: threshold,
		now:       time.Now,
	}, nil
}

type lowStockAlertJob struct {
	logg      *logger.Logger
	db        txRunner
	products  lowStockSource
	outbox    outboxEmitter
	alerts    alertStore
	metrics   *metrics.CronJobMetrics
	threshold *int
	now       func() time.Time
}

func (j *lowStockAlertJob) Name() string { return "low-stock-alert" }

func (j *lowStockAlertJob) Run(ctx context.Context) error {
	products, err := j.products.LowStock(ctx, j.threshold)
	if err != nil {
		return fmt.Errorf("load low stock products: %w", err)
	}

	now := j.now().UTC()
	day := now.Format("2006-01-02")
	var (
		errs    error
		emitted int64
		skipped int
	)
	for _, product := range products {
		key := j.alerts.AlertKey(lowStockAlertKind, product.ID.String(), day)
		fresh, err := j.alerts.SetNX(ctx, key, now.Unix(), lowStockAlertTTL)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("claim alert %s: %w", product.ID, err))
			continue
		}
		if !fresh {
			skipped++
			continue
		}

		event := lowStockEvent(product, j.threshold, now)
		if err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			return j.outbox.Emit(ctx, tx, event)
		}); err != nil {
			// Release the claim so the next run retries this product.
			if delErr := j.alerts.Del(ctx, key); delErr != nil {
				err = multierr.Append(err, delErr)
			}
			errs = multierr.Append(errs, fmt.Errorf("emit low stock %s: %w", product.ID, err))
			continue
		}
		emitted++
	}

	j.metrics.AddItems(j.Name(), emitted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(products),
		"emitted":    emitted,
		"deduped":    skipped,
	})
	j.logg.Info(logCtx, "low stock scan complete")
	return errs
}

func lowStockEvent(product models.Product, threshold *int, at time.Time) outbox.DomainEvent {
	limit := product.LowStockThreshold
	if threshold != nil {
		limit = *threshold
	}
	return outbox.DomainEvent{
		EventType:     enums.EventLowStockDetected,
		AggregateType: enums.AggregateProduct,
		AggregateID:   product.ID,
		Data: payloads.LowStockDetectedEvent{
			ProductID:  product.ID,
			Name:       product.Name,
			SKU:        product.SKU,
			Stock:      product.Stock,
			Threshold:  limit,
			DetectedAt: at,
		},
	}
}
