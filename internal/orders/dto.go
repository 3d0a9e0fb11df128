package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderDTO is the API shape of an order with its lines.
type OrderDTO struct {
	ID                 uuid.UUID             `json:"id"`
	OrderNumber        string                `json:"orderNumber"`
	UserID             uuid.UUID             `json:"userId"`
	Status             enums.OrderStatus     `json:"status"`
	PaymentStatus      enums.PaymentStatus   `json:"paymentStatus"`
	PaymentMethod      enums.PaymentMethod   `json:"paymentMethod"`
	Subtotal           types.Money           `json:"subtotal"`
	TaxAmount          types.Money           `json:"taxAmount"`
	ShippingAmount     types.Money           `json:"shippingAmount"`
	DiscountAmount     types.Money           `json:"discountAmount"`
	TotalAmount        types.Money           `json:"totalAmount"`
	CouponCode         *string               `json:"couponCode,omitempty"`
	ShippingAddress    types.AddressSnapshot `json:"shippingAddress"`
	BillingAddress     types.AddressSnapshot `json:"billingAddress"`
	CustomerNotes      *string               `json:"customerNotes,omitempty"`
	Items              []ItemDTO             `json:"items"`
	ItemCount          int                   `json:"itemCount"`
	AllowedTransitions []enums.OrderStatus   `json:"allowedTransitions"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

type ItemDTO struct {
	ID           uuid.UUID   `json:"id"`
	ProductID    *uuid.UUID  `json:"productId,omitempty"`
	ProductName  string      `json:"productName"`
	ProductSKU   *string     `json:"productSku,omitempty"`
	ProductImage *string     `json:"productImage,omitempty"`
	Quantity     int         `json:"quantity"`
	UnitPrice    types.Money `json:"unitPrice"`
	TotalPrice   types.Money `json:"totalPrice"`
}

type HistoryDTO struct {
	ID             uuid.UUID         `json:"id"`
	Status         enums.OrderStatus `json:"status"`
	Comment        *string           `json:"comment,omitempty"`
	NotifyCustomer bool              `json:"notifyCustomer"`
	CreatedBy      *uuid.UUID        `json:"createdBy,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// ToDTO maps an order model loaded with its items.
func ToDTO(o models.Order) OrderDTO {
	items := make([]ItemDTO, 0, len(o.Items))
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
		items = append(items, ItemDTO{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductSKU:   item.ProductSKU,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			UnitPrice:    types.NewMoney(item.UnitPrice),
			TotalPrice:   types.NewMoney(item.TotalPrice),
		})
	}
	allowed := AllowedTransitions(o.Status)
	if allowed == nil {
		allowed = []enums.OrderStatus{}
	}
	return OrderDTO{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		UserID:             o.UserID,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		PaymentMethod:      o.PaymentMethod,
		Subtotal:           types.NewMoney(o.Subtotal),
		TaxAmount:          types.NewMoney(o.TaxAmount),
		ShippingAmount:     types.NewMoney(o.ShippingAmount),
		DiscountAmount:     types.NewMoney(o.DiscountAmount),
		TotalAmount:        types.NewMoney(o.TotalAmount),
		CouponCode:         o.CouponCode,
		ShippingAddress:    o.ShippingAddress,
		BillingAddress:     o.BillingAddress,
		CustomerNotes:      o.CustomerNotes,
		Items:              items,
		ItemCount:          count,
		AllowedTransitions: allowed,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toHistoryDTOs(rows []models.OrderStatusHistory) []HistoryDTO {
	out := make([]HistoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, HistoryDTO{
			ID:             row.ID,
			Status:         row.Status,
			Comment:        row.Comment,
			NotifyCustomer: row.NotifyCustomer,
			CreatedBy:      row.CreatedBy,
			CreatedAt:      row.CreatedAt,
		})
	}
	return out
}
