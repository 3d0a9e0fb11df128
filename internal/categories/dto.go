package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CategoryDTO is the API shape of a category.
type CategoryDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  *string    `json:"description,omitempty"`
	ImageURL     *string    `json:"imageUrl,omitempty"`
	ParentID     *uuid.UUID `json:"parentId,omitempty"`
	IsFeatured   bool       `json:"isFeatured"`
	IsActive     bool       `json:"isActive"`
	SortOrder    int        `json:"sortOrder"`
	ProductCount int64      `json:"productCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func fromRow(row categoryRow) CategoryDTO {
	return CategoryDTO{
		ID:           row.ID,
		Name:         row.Name,
		Slug:         row.Slug,
		Description:  row.Description,
		ImageURL:     row.ImageURL,
		ParentID:     row.ParentID,
		IsFeatured:   row.IsFeatured,
		IsActive:     row.IsActive,
		SortOrder:    row.SortOrder,
		ProductCount: row.ProductCount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func fromModel(c models.Category, productCount int64) CategoryDTO {
	return fromRow(categoryRow{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ImageURL:     c.ImageURL,
		ParentID:     c.ParentID,
		IsFeatured:   c.IsFeatured,
		IsActive:     c.IsActive,
		SortOrder:    c.SortOrder,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		ProductCount: productCount,
	})
}
