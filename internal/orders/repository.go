package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository persists orders, their items and the status history.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Create(order).Error
}

// FindByID loads an order with items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).Preload("Items", orderedItems).Where("id = ?", id).Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOwned loads an order only when it belongs to userID.
func (r *Repository) FindOwned(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Preload("Items", orderedItems).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns a keyset page of the user's orders, newest first, with
// one extra row for next-page detection.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.base.DB(ctx).Preload("Items", orderedItems).Where("user_id = ?", userID)
	var rows []models.Order
	err := q.Scopes(pagination.NewestFirst(cursor, limit)).Find(&rows).Error
	return rows, err
}

// AdminFilter narrows the back-office order listing.
type AdminFilter struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
	Search string
	Page   pagination.Page
}

// ListAll returns an offset page across all users and the total count.
func (r *Repository) ListAll(ctx context.Context, filter AdminFilter) ([]models.Order, int64, error) {
	q := r.base.DB(ctx).Model(&models.Order{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	q = r.base.MatchAny(q, filter.Search, "order_number")

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page := filter.Page.Normalize()
	var rows []models.Order
	err := q.Preload("Items", orderedItems).
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	return rows, total, err
}

// TransitionStatus moves an order out of from, guarded by the current status.
// It reports false when another writer changed the status first.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, payment enums.PaymentStatus) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "payment_status": payment})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClearStockDecremented records that an item's stock has been returned.
func (r *Repository) ClearStockDecremented(ctx context.Context, itemID uuid.UUID) error {
	return r.base.DB(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Update("stock_decremented", false).Error
}

// AppendHistory inserts one audit row. History rows are never updated.
func (r *Repository) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.base.DB(ctx).Create(entry).Error
}

// ListHistory returns the audit trail oldest first.
func (r *Repository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
