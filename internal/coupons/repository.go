package coupons

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository reads coupons. Coupons are managed by migrations or out of band.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

// FindActiveByCode matches code case-insensitively against active coupons.
func (r *Repository) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.base.DB(ctx).
		Where("UPPER(code) = ? AND is_active = ?", strings.ToUpper(strings.TrimSpace(code)), true).
		Take(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}
