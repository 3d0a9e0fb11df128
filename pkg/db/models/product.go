package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry. Stock only moves through guarded
// relative updates issued by order placement and cancellation.
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID        *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	Name              string           `gorm:"column:name;not null"`
	Slug              string           `gorm:"column:slug;not null;uniqueIndex:products_slug_key"`
	SKU               *string          `gorm:"column:sku;uniqueIndex:products_sku_key"`
	Description       *string          `gorm:"column:description"`
	ShortDescription  *string          `gorm:"column:short_description"`
	Price             decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice     *decimal.Decimal `gorm:"column:original_price;type:numeric(12,2)"`
	Stock             int              `gorm:"column:stock;not null"`
	LowStockThreshold int              `gorm:"column:low_stock_threshold;not null"`
	TrackQuantity     bool             `gorm:"column:track_quantity;not null"`
	IsActive          bool             `gorm:"column:is_active;not null"`
	IsFeatured        bool             `gorm:"column:is_featured;not null"`
	Images            []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PrimaryImageURL returns the primary image, falling back to the first by sort order.
func (p Product) PrimaryImageURL() *string {
	var first *ProductImage
	for i := range p.Images {
		img := &p.Images[i]
		if img.IsPrimary {
			return &img.URL
		}
		if first == nil || img.SortOrder < first.SortOrder {
			first = img
		}
	}
	if first == nil {
		return nil
	}
	return &first.URL
}

// ProductImage is one gallery entry of a product.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_images_product_id_idx"`
	URL       string    `gorm:"column:url;not null"`
	AltText   *string   `gorm:"column:alt_text"`
	SortOrder int       `gorm:"column:sort_order;not null"`
	IsPrimary bool      `gorm:"column:is_primary;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
