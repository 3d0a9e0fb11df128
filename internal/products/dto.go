package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// ProductDTO is the API shape of a product.
type ProductDTO struct {
	ID                uuid.UUID    `json:"id"`
	CategoryID        *uuid.UUID   `json:"categoryId,omitempty"`
	Name              string       `json:"name"`
	Slug              string       `json:"slug"`
	SKU               *string      `json:"sku,omitempty"`
	Description       *string      `json:"description,omitempty"`
	ShortDescription  *string      `json:"shortDescription,omitempty"`
	Price             types.Money  `json:"price"`
	OriginalPrice     *types.Money `json:"originalPrice,omitempty"`
	Stock             int          `json:"stock"`
	LowStockThreshold int          `json:"lowStockThreshold"`
	TrackQuantity     bool         `json:"trackQuantity"`
	InStock           bool         `json:"inStock"`
	IsActive          bool         `json:"isActive"`
	IsFeatured        bool         `json:"isFeatured"`
	PrimaryImage      *string      `json:"primaryImage,omitempty"`
	Images            []ImageDTO   `json:"images"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

type ImageDTO struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	AltText   *string   `json:"altText,omitempty"`
	SortOrder int       `json:"sortOrder"`
	IsPrimary bool      `json:"isPrimary"`
}

// ImageInput describes one gallery image on create or update.
type ImageInput struct {
	URL       string  `json:"url" validate:"required,url,max=2048"`
	AltText   *string `json:"altText,omitempty" validate:"omitempty,max=255"`
	SortOrder int     `json:"sortOrder" validate:"gte=0"`
	IsPrimary bool    `json:"isPrimary"`
}

// ToDTO maps a product model; other packages reuse it for embedded products.
func ToDTO(p models.Product) ProductDTO {
	images := make([]ImageDTO, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageDTO{
			ID:        img.ID,
			URL:       img.URL,
			AltText:   img.AltText,
			SortOrder: img.SortOrder,
			IsPrimary: img.IsPrimary,
		})
	}
	return ProductDTO{
		ID:                p.ID,
		CategoryID:        p.CategoryID,
		Name:              p.Name,
		Slug:              p.Slug,
		SKU:               p.SKU,
		Description:       p.Description,
		ShortDescription:  p.ShortDescription,
		Price:             types.NewMoney(p.Price),
		OriginalPrice:     types.MoneyPtr(p.OriginalPrice),
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		TrackQuantity:     p.TrackQuantity,
		InStock:           !p.TrackQuantity || p.Stock > 0,
		IsActive:          p.IsActive,
		IsFeatured:        p.IsFeatured,
		PrimaryImage:      p.PrimaryImageURL(),
		Images:            images,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toImages(inputs []ImageInput) []models.ProductImage {
	images := make([]models.ProductImage, 0, len(inputs))
	hasPrimary := false
	for _, in := range inputs {
		primary := in.IsPrimary && !hasPrimary
		hasPrimary = hasPrimary || primary
		images = append(images, models.ProductImage{
			URL:       in.URL,
			AltText:   in.AltText,
			SortOrder: in.SortOrder,
			IsPrimary: primary,
		})
	}
	return images
}
