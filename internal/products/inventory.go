package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// DecrementStock removes qty units only while enough stock remains. It reports
// false when the guard rejected the update.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock adds qty units back. A deleted product reports false.
func (r *Repository) RestoreStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// LowStock lists active tracked products at or below threshold, or their own
// low_stock_threshold when threshold is nil.
func (r *Repository) LowStock(ctx context.Context, threshold *int) ([]models.Product, error) {
	q := r.base.DB(ctx).Where("is_active = ? AND track_quantity = ?", true, true)
	if threshold != nil {
		q = q.Where("stock <= ?", *threshold)
	} else {
		q = q.Where("stock <= low_stock_threshold")
	}
	var rows []models.Product
	err := q.Order("stock ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}
