package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// EnvelopeVersion is written into every new envelope. Consumers switch on it
// when the Data shape of an event changes.
const EnvelopeVersion = 1

// ActorRef identifies who produced the event. Nil for system jobs.
type ActorRef struct {
	UserID uuid.UUID      `json:"userId"`
	Role   enums.UserRole `json:"role,omitempty"`
}

// Envelope is the JSON stored in outbox_events.payload and sent verbatim as
// the broker message body.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

var errEmptyData = errors.New("envelope has no data")

// DecodeEnvelope parses a stored payload and rejects envelopes whose data is
// missing or null.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return env, errEmptyData
	}
	return env, nil
}

// Message is the broker-neutral form of an outbox row.
type Message struct {
	// Key groups messages for ordering (Pub/Sub ordering key, Kafka partition key).
	Key        string
	Data       []byte
	Attributes map[string]string
}

// NewMessage builds the relay message for an outbox row.
func NewMessage(event models.OutboxEvent, eventID string) Message {
	aggregateID := event.AggregateID.String()
	return Message{
		Key:  aggregateID,
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       eventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   aggregateID,
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}
