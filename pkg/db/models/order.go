package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is a placed purchase. Address columns hold immutable snapshots.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string                `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	Status          enums.OrderStatus     `gorm:"column:status;not null"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;not null"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;not null"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal       `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	ShippingAmount  decimal.Decimal       `gorm:"column:shipping_amount;type:numeric(12,2);not null"`
	DiscountAmount  decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CouponCode      *string               `gorm:"column:coupon_code"`
	ShippingAddress types.AddressSnapshot `gorm:"column:shipping_address;type:jsonb;not null"`
	BillingAddress  types.AddressSnapshot `gorm:"column:billing_address;type:jsonb;not null"`
	CustomerNotes   *string               `gorm:"column:customer_notes"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem snapshots the product at placement time.
type OrderItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ProductID        *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	ProductName      string          `gorm:"column:product_name;not null"`
	ProductSKU       *string         `gorm:"column:product_sku"`
	ProductImage     *string         `gorm:"column:product_image"`
	Quantity         int             `gorm:"column:quantity;not null"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice       decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	StockDecremented bool            `gorm:"column:stock_decremented;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// OrderStatusHistory is an append-only audit row of a status change.
type OrderStatusHistory struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index:order_status_history_order_id_idx"`
	Status         enums.OrderStatus `gorm:"column:status;not null"`
	Comment        *string           `gorm:"column:comment"`
	NotifyCustomer bool              `gorm:"column:notify_customer;not null"`
	CreatedBy      *uuid.UUID        `gorm:"column:created_by;type:uuid"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

func (h *OrderStatusHistory) BeforeCreate(*gorm.DB) error {
	assignID(&h.ID)
	return nil
}
