package categories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists categories.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

type categoryRow struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Description  *string
	ImageURL     *string
	ParentID     *uuid.UUID
	IsFeatured   bool
	IsActive     bool
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProductCount int64
}

const productCountColumn = "(SELECT COUNT(*) FROM products p WHERE p.category_id = categories.id AND p.is_active = ?) AS product_count"

func (r *Repository) listWithCounts(ctx context.Context, featuredOnly bool) ([]categoryRow, error) {
	q := r.base.DB(ctx).
		Model(&models.Category{}).
		Select("categories.*, "+productCountColumn, true).
		Where("categories.is_active = ?", true)
	if featuredOnly {
		q = q.Where("categories.is_featured = ?", true)
	}

	var rows []categoryRow
	err := q.Order("categories.sort_order ASC").Order("categories.name ASC").Scan(&rows).Error
	return rows, err
}

// ListActive returns active categories ordered by sort order then name.
func (r *Repository) ListActive(ctx context.Context) ([]categoryRow, error) {
	return r.listWithCounts(ctx, false)
}

// ListFeatured returns active featured categories.
func (r *Repository) ListFeatured(ctx context.Context) ([]categoryRow, error) {
	return r.listWithCounts(ctx, true)
}

// FindByID returns the category with its active product count.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*categoryRow, error) {
	var rows []categoryRow
	err := r.base.DB(ctx).
		Model(&models.Category{}).
		Select("categories.*, "+productCountColumn, true).
		Where("categories.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// Get loads the bare model for updates.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.base.DB(ctx).Where("id = ?", id).Take(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindBySlug resolves a category id from its slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.base.DB(ctx).Where("slug = ?", slug).Take(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := r.base.DB(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	return r.base.DB(ctx).Create(category).Error
}

func (r *Repository) Save(ctx context.Context, category *models.Category) error {
	return r.base.DB(ctx).Save(category).Error
}

// Delete removes the row and reports how many rows were affected.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.base.DB(ctx).Where("id = ?", id).Delete(&models.Category{})
	return res.RowsAffected, res.Error
}

// CountProducts counts products of any state still assigned to the category.
func (r *Repository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// CountChildren counts categories nested under id.
func (r *Repository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&count).Error
	return count, err
}
