package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// ItemDTO is one cart line with the product it points at.
type ItemDTO struct {
	ID        uuid.UUID   `json:"id"`
	ProductID uuid.UUID   `json:"productId"`
	Quantity  int         `json:"quantity"`
	LineTotal types.Money `json:"lineTotal"`
	Product   ProductView `json:"product"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ProductView is the slice of product data a cart line needs.
type ProductView struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Price         types.Money  `json:"price"`
	OriginalPrice *types.Money `json:"originalPrice,omitempty"`
	Stock         int          `json:"stock"`
	TrackQuantity bool         `json:"trackQuantity"`
	IsActive      bool         `json:"isActive"`
	Image         *string      `json:"image,omitempty"`
}

// Summary aggregates the resolvable lines of a cart.
type Summary struct {
	ItemCount int         `json:"itemCount"`
	Subtotal  types.Money `json:"subtotal"`
	Savings   types.Money `json:"savings"`
}

func toItemDTO(item models.CartItem, product models.Product) ItemDTO {
	qty := decimal.NewFromInt(int64(item.Quantity))
	return ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		LineTotal: types.NewMoney(product.Price.Mul(qty)),
		Product: ProductView{
			ID:            product.ID,
			Name:          product.Name,
			Slug:          product.Slug,
			Price:         types.NewMoney(product.Price),
			OriginalPrice: types.MoneyPtr(product.OriginalPrice),
			Stock:         product.Stock,
			TrackQuantity: product.TrackQuantity,
			IsActive:      product.IsActive,
			Image:         product.PrimaryImageURL(),
		},
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
