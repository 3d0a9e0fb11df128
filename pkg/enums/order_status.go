package enums

// OrderStatus is the fulfilment state of an order. The admin transition
// table lives in internal/orders.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// lifecycle order; reports iterate it so zero-count statuses still appear
var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

func (v OrderStatus) String() string { return string(v) }
func (v OrderStatus) IsValid() bool  { return isOneOf(v, orderStatuses) }

// IsTerminal reports whether no further transitions leave this status.
func (v OrderStatus) IsTerminal() bool {
	return v == OrderStatusCancelled || v == OrderStatusRefunded
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	return parseOneOf("order status", value, orderStatuses)
}

// OrderStatuses returns every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}
