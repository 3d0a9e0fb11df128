package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists products and their images.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("created_at ASC")
}

// FindByID loads a product with its images.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.base.DB(ctx).
		Preload("Images", orderedImages).
		Where("id = ?", id).
		Take(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by its unique slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.base.DB(ctx).
		Preload("Images", orderedImages).
		Where("slug = ?", slug).
		Take(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs batch-loads products keyed by id. Missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.base.DB(ctx).
		Preload("Images", orderedImages).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// List applies the filter and returns one page plus the total match count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	q := filter.apply(r.base.DB(ctx).Model(&models.Product{}), r.base)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var rows []models.Product
	err := q.
		Preload("Images", orderedImages).
		Order(filter.Sort.orderClause()).
		Order("products.id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Create inserts the product and any attached images.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.base.DB(ctx).Create(product).Error
}

// Update writes the product's columns except images and stock. Stock only
// moves through SetStock or the guarded relative updates in inventory.go, so
// a decrement committed after the row was read is never overwritten.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.base.DB(ctx).Omit("Images", "Stock").Save(product).Error
}

// SetStock overwrites the stock count with an admin-supplied absolute value.
func (r *Repository) SetStock(ctx context.Context, productID uuid.UUID, stock int) error {
	return r.base.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", stock).Error
}

// ReplaceImages swaps the full image set of a product.
func (r *Repository) ReplaceImages(ctx context.Context, productID uuid.UUID, images []models.ProductImage) error {
	db := r.base.DB(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ProductID = productID
	}
	return db.Create(&images).Error
}

// Delete removes the product and its images, returning affected product rows.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	db := r.base.DB(ctx)
	if err := db.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// SlugTaken reports whether another product already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	return r.exists(ctx, "slug = ?", slug, exclude)
}

// SKUTaken reports whether another product already uses sku.
func (r *Repository) SKUTaken(ctx context.Context, sku string, exclude uuid.UUID) (bool, error) {
	return r.exists(ctx, "sku = ?", strings.TrimSpace(sku), exclude)
}

func (r *Repository) exists(ctx context.Context, clause string, value any, exclude uuid.UUID) (bool, error) {
	var count int64
	q := r.base.DB(ctx).Model(&models.Product{}).Where(clause, value)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// CategoryIDBySlug resolves a category slug for list filtering.
func (r *Repository) CategoryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	var category models.Category
	if err := r.base.DB(ctx).Select("id").Where("slug = ?", slug).Take(&category).Error; err != nil {
		return uuid.Nil, err
	}
	return category.ID, nil
}

// CategoryExists reports whether a category row exists.
func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
