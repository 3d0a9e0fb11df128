package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// Add inserts the (user, product) pair. created is false when the pair was
// already stored; the existing row is returned either way.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) (item *models.WishlistItem, created bool, err error) {
	row := models.WishlistItem{UserID: userID, ProductID: productID}
	res := r.base.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	item, err = r.FindByProduct(ctx, userID, productID)
	if err != nil {
		return nil, false, err
	}
	return item, res.RowsAffected == 1, nil
}

func (r *Repository) FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := r.base.DB(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Take(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns one keyset page, newest first, fetching one extra row to detect
// the next page.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.WishlistItem, error) {
	q := r.base.DB(ctx).Where("user_id = ?", userID)
	var rows []models.WishlistItem
	err := q.Scopes(pagination.NewestFirst(cursor, limit)).Find(&rows).Error
	return rows, err
}

// DeleteOwned removes one item by id; returns affected rows.
func (r *Repository) DeleteOwned(ctx context.Context, userID, itemID uuid.UUID) (int64, error) {
	res := r.base.DB(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.WishlistItem{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteByProduct(ctx context.Context, userID, productID uuid.UUID) error {
	return r.base.DB(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).Error
}

func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.base.DB(ctx).Where("user_id = ?", userID).Delete(&models.WishlistItem{}).Error
}

// Count counts items whose product still exists.
func (r *Repository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.WishlistItem{}).
		Where("wishlist_items.user_id = ?", userID).
		Where("EXISTS (SELECT 1 FROM products p WHERE p.id = wishlist_items.product_id)").
		Count(&count).Error
	return count, err
}
