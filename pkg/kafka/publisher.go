// Package kafka relays outbox messages to Kafka with segmentio/kafka-go.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

type dialFunc func(ctx context.Context, network, address string) (*kafkaGo.Conn, error)

// Publisher writes to any topic through one shared writer. Messages with the
// same key land on the same partition.
type Publisher struct {
	writer  messageWriter
	brokers []string
	dial    dialFunc
}

// NewPublisher builds a publisher for the configured brokers.
func NewPublisher(ctx context.Context, cfg config.KafkaConfig, logg *logger.Logger) (*Publisher, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}

	writer := &kafkaGo.Writer{
		Addr:         kafkaGo.TCP(brokers...),
		Balancer:     &kafkaGo.Hash{},
		RequiredAcks: kafkaGo.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "brokers", brokers), "kafka publisher initialized")
	}
	return &Publisher{writer: writer, brokers: brokers, dial: kafkaGo.DialContext}, nil
}

// Publish writes msg to topic and waits for the broker acks.
func (p *Publisher) Publish(ctx context.Context, topic string, msg outbox.Message) error {
	if p == nil || p.writer == nil {
		return errors.New("kafka publisher not initialized")
	}
	if topic == "" {
		return errors.New("kafka topic is required")
	}
	return p.writer.WriteMessages(ctx, toKafkaMessage(topic, msg))
}

// Ping dials the first reachable broker.
func (p *Publisher) Ping(ctx context.Context) error {
	if p == nil {
		return errors.New("kafka publisher not initialized")
	}
	var errs []error
	for _, broker := range p.brokers {
		conn, err := p.dial(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", broker, err))
			continue
		}
		_ = conn.Close()
		return nil
	}
	return fmt.Errorf("no kafka broker reachable: %w", errors.Join(errs...))
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func toKafkaMessage(topic string, msg outbox.Message) kafkaGo.Message {
	keys := make([]string, 0, len(msg.Attributes))
	for k := range msg.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkaGo.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkaGo.Header{Key: k, Value: []byte(msg.Attributes[k])})
	}

	return kafkaGo.Message{
		Topic:   topic,
		Key:     []byte(msg.Key),
		Value:   msg.Data,
		Headers: headers,
	}
}
