package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ItemQuantity is a product and a unit count.
type ItemQuantity struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// OrderCreatedEvent is emitted in the placement transaction.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	UserID        uuid.UUID           `json:"userId"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Subtotal      string              `json:"subtotal"`
	TotalAmount   string              `json:"totalAmount"`
	CouponCode    *string             `json:"couponCode,omitempty"`
	Items         []ItemQuantity      `json:"items"`
}

// OrderCancelledEvent lists the stock returned to the catalog.
type OrderCancelledEvent struct {
	OrderID       uuid.UUID         `json:"orderId"`
	OrderNumber   string            `json:"orderNumber"`
	UserID        uuid.UUID         `json:"userId"`
	PreviousState enums.OrderStatus `json:"previousStatus"`
	Reason        string            `json:"reason,omitempty"`
	RestoredItems []ItemQuantity    `json:"restoredItems"`
	CancelledAt   time.Time         `json:"cancelledAt"`
}

// OrderStatusChangedEvent is emitted by the admin status path.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID           `json:"orderId"`
	OrderNumber    string              `json:"orderNumber"`
	UserID         uuid.UUID           `json:"userId"`
	From           enums.OrderStatus   `json:"from"`
	To             enums.OrderStatus   `json:"to"`
	PaymentStatus  enums.PaymentStatus `json:"paymentStatus"`
	Comment        string              `json:"comment,omitempty"`
	NotifyCustomer bool                `json:"notifyCustomer"`
	ChangedBy      uuid.UUID           `json:"changedBy"`
}

// LowStockDetectedEvent is emitted by the low-stock scan.
type LowStockDetectedEvent struct {
	ProductID  uuid.UUID `json:"productId"`
	Name       string    `json:"name"`
	SKU        *string   `json:"sku,omitempty"`
	Stock      int       `json:"stock"`
	Threshold  int       `json:"threshold"`
	DetectedAt time.Time `json:"detectedAt"`
}
