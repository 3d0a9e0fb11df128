package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists cart lines keyed by (user, product).
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

// ListByUser returns the user's lines, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.base.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// FindByProduct returns the user's line for product or gorm.ErrRecordNotFound.
func (r *Repository) FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.base.DB(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Take(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindOwned returns an item only when it belongs to userID.
func (r *Repository) FindOwned(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.base.DB(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Take(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.base.DB(ctx).Create(item).Error
}

// SetQuantity overwrites the quantity of one line.
func (r *Repository) SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.base.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

// DeleteOwned removes a line if it exists; missing rows are not an error.
func (r *Repository) DeleteOwned(ctx context.Context, userID, itemID uuid.UUID) error {
	return r.base.DB(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{}).Error
}

// DeleteByUser empties the cart.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.base.DB(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}
