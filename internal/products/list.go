package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ListFilter narrows a product listing.
type ListFilter struct {
	CategoryID      *uuid.UUID
	Search          string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	InStock         *bool
	Featured        *bool
	IncludeInactive bool
	Sort            sortOrder
	Page            pagination.Page
}

type sortOrder enums.ProductSort

func (s sortOrder) orderClause() string {
	switch enums.ProductSort(s) {
	case enums.ProductSortPriceAsc:
		return "products.price ASC"
	case enums.ProductSortPriceDesc:
		return "products.price DESC"
	case enums.ProductSortNameAsc:
		return "products.name ASC"
	case enums.ProductSortNameDesc:
		return "products.name DESC"
	default:
		return "products.created_at DESC"
	}
}

func (f ListFilter) apply(q *gorm.DB, base repo.Base) *gorm.DB {
	if !f.IncludeInactive {
		q = q.Where("products.is_active = ?", true)
	}
	if f.CategoryID != nil {
		q = q.Where("products.category_id = ?", *f.CategoryID)
	}
	q = base.MatchAny(q, f.Search, "products.name", "products.description")
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.InStock != nil {
		if *f.InStock {
			q = q.Where("(products.track_quantity = ? OR products.stock > 0)", false)
		} else {
			q = q.Where("products.track_quantity = ? AND products.stock <= 0", true)
		}
	}
	if f.Featured != nil {
		q = q.Where("products.is_featured = ?", *f.Featured)
	}
	return q
}
