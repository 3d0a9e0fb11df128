package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists the address book.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

// ListByUser returns the default address first, then newest.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.base.DB(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindOwned returns gorm.ErrRecordNotFound for addresses of other users.
func (r *Repository) FindOwned(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.base.DB(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	return r.base.DB(ctx).Create(address).Error
}

func (r *Repository) Save(ctx context.Context, address *models.Address) error {
	return r.base.DB(ctx).Save(address).Error
}

func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	res := r.base.DB(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	return res.RowsAffected, res.Error
}

// ClearDefault unsets the default flag on every address of userID.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.base.DB(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

// SetDefault flags one address.
func (r *Repository) SetDefault(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Model(&models.Address{}).Where("id = ?", id).Update("is_default", true).Error
}

// Newest returns the most recently created address of userID.
func (r *Repository) Newest(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.base.DB(ctx).Where("user_id = ?", userID).Order("created_at DESC").Take(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}
