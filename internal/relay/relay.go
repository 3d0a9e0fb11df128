// Package relay moves committed outbox rows onto the message broker. Each
// batch is claimed under a row lock, published, and marked in the same
// transaction, so concurrent publishers never double-send a row.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
)

type TxRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

// Broker is satisfied by both the Pub/Sub client and the Kafka publisher.
type Broker interface {
	Ping(context.Context) error
	Publish(ctx context.Context, topic string, msg outbox.Message) error
}

type Store interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type Resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// Params wires a Relay. Outbox carries batch size, poll interval and the
// attempt budget; zero values fall back to defaults.
type Params struct {
	Logger     *logger.Logger
	DB         TxRunner
	Broker     Broker
	BrokerName string
	Store      Store
	Resolver   Resolver
	Metrics    *metrics.OutboxMetrics
	Outbox     config.OutboxConfig
}

type Relay struct {
	logg        *logger.Logger
	db          TxRunner
	broker      Broker
	brokerName  string
	store       Store
	resolver    Resolver
	metrics     *metrics.OutboxMetrics
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func New(p Params) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("relay: logger is required")
	case p.DB == nil:
		return nil, errors.New("relay: database is required")
	case p.Broker == nil:
		return nil, errors.New("relay: broker is required")
	case p.Store == nil:
		return nil, errors.New("relay: outbox store is required")
	case p.Resolver == nil:
		return nil, errors.New("relay: event resolver is required")
	}

	r := &Relay{
		logg:        p.Logger,
		db:          p.DB,
		broker:      p.Broker,
		brokerName:  p.BrokerName,
		store:       p.Store,
		resolver:    p.Resolver,
		metrics:     p.Metrics,
		batchSize:   p.Outbox.BatchSize,
		maxAttempts: p.Outbox.MaxAttempts,
		poll:        time.Duration(p.Outbox.PollIntervalMS) * time.Millisecond,
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.poll <= 0 {
		r.poll = defaultPollInterval
	}
	if r.brokerName == "" {
		r.brokerName = "broker"
	}
	return r, nil
}

// Run drains the outbox until ctx is cancelled. A fully published batch is
// followed immediately by another drain. A batch with any failed row backs
// off so a broker outage cannot burn through the attempt budget; an empty
// batch waits one poll interval.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	if err := r.broker.Ping(ctx); err != nil {
		return fmt.Errorf("%s not reachable: %w", r.brokerName, err)
	}

	delay := newBackoff(r.poll)
	for ctx.Err() == nil {
		batch, err := r.Drain(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox drain failed", err)
			wait = delay.fail()
		case batch.Failed() > 0:
			wait = delay.fail()
		case batch.Published > 0:
			delay.reset()
			continue
		default:
			delay.reset()
			wait = r.poll
		}
		if err := sleep(ctx, jitter(wait)); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Batch counts what one drain did with each row.
type Batch struct {
	Published int
	Retried   int
	Parked    int
}

// Failed counts rows that were not published.
func (b Batch) Failed() int { return b.Retried + b.Parked }

func (b Batch) Handled() int { return b.Published + b.Failed() }

// Drain relays one batch. An error means the transaction was rolled back and
// the rows will be retried as they were.
func (r *Relay) Drain(ctx context.Context) (Batch, error) {
	var batch Batch
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		batch = Batch{}
		rows, err := r.store.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		for _, row := range rows {
			v, err := r.relayRow(ctx, tx, row)
			if err != nil {
				return err
			}
			switch v {
			case published:
				batch.Published++
			case retryLater:
				batch.Retried++
			case park:
				batch.Parked++
			}
		}
		return nil
	})
	if err != nil {
		return Batch{}, err
	}
	return batch, nil
}

// verdict is what happens to a row after one publish attempt.
type verdict int

const (
	published verdict = iota
	retryLater
	park
)

// judge decides the fate of a row given the publish error and the attempts
// already spent on it.
func judge(publishErr error, priorAttempts, maxAttempts int) verdict {
	var fatal registry.NonRetryableError
	switch {
	case publishErr == nil:
		return published
	case errors.As(publishErr, &fatal):
		return park
	case priorAttempts+1 >= maxAttempts:
		return park
	default:
		return retryLater
	}
}

// relayRow only returns an error when the row's new state could not be saved.
func (r *Relay) relayRow(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) (verdict, error) {
	eventType := string(row.EventType)
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    eventType,
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
		"broker":        r.brokerName,
	})

	resolved, err := r.resolver.Resolve(row)
	if err == nil {
		logCtx = r.logg.WithFields(logCtx, map[string]any{"event_id": resolved.Envelope.EventID, "topic": resolved.Descriptor.Topic})
		err = r.publish(ctx, row, resolved)
	}

	v := judge(err, row.AttemptCount, r.maxAttempts)
	switch v {
	case published:
		if markErr := r.store.MarkPublishedTx(tx, row.ID); markErr != nil {
			return v, fmt.Errorf("mark %s published: %w", row.ID, markErr)
		}
		r.metrics.IncPublished(eventType)
		r.logg.Info(logCtx, "outbox event published")
	case retryLater:
		if markErr := r.store.MarkFailedTx(tx, row.ID, err); markErr != nil {
			return v, fmt.Errorf("mark %s failed: %w", row.ID, markErr)
		}
		r.metrics.IncFailed(eventType, metrics.OutboxRetry)
		r.logg.Warn(r.logg.WithField(logCtx, "error", err.Error()), "outbox publish failed, will retry")
	case park:
		// parked rows sit at maxAttempts so the fetch skips them; retention deletes them
		if markErr := r.store.MarkTerminalTx(tx, row.ID, err, r.maxAttempts); markErr != nil {
			return v, fmt.Errorf("park %s: %w", row.ID, markErr)
		}
		r.metrics.IncFailed(eventType, metrics.OutboxTerminal)
		r.logg.Warn(r.logg.WithField(logCtx, "error", err.Error()), "outbox event parked")
	}
	return v, nil
}

func (r *Relay) publish(ctx context.Context, row models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	if topic == "" {
		return registry.NewNonRetryableError(fmt.Errorf("no topic configured for %s", row.EventType))
	}
	ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	return r.broker.Publish(ctx, topic, outbox.NewMessage(row, resolved.Envelope.EventID))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
