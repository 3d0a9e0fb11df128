package enums

// OutboxAggregateType names the aggregate an outbox row belongs to. It is
// also the message ordering key prefix on the broker.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateProduct OutboxAggregateType = "product"
)

var aggregateTypes = []OutboxAggregateType{AggregateOrder, AggregateProduct}

func (a OutboxAggregateType) IsValid() bool { return isOneOf(a, aggregateTypes) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parseOneOf("aggregate type", value, aggregateTypes)
}

// OutboxEventType names a domain event relayed by the outbox publisher.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderCancelled     OutboxEventType = "order_cancelled"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventLowStockDetected   OutboxEventType = "low_stock_detected"
)

var outboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderCancelled,
	EventOrderStatusChanged,
	EventLowStockDetected,
}

func (e OutboxEventType) IsValid() bool { return isOneOf(e, outboxEventTypes) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parseOneOf("event type", value, outboxEventTypes)
}
