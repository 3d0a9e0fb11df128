// Package reports serves the admin rollups: low stock and order statistics.
package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service computes admin reports on every call; nothing is cached.
type Service interface {
	LowStock(ctx context.Context, threshold *int) ([]LowStockItem, error)
	OrderStats(ctx context.Context) (*OrderStats, error)
}

type LowStockItem struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	Slug              string      `json:"slug"`
	SKU               *string     `json:"sku,omitempty"`
	Stock             int         `json:"stock"`
	LowStockThreshold int         `json:"lowStockThreshold"`
	Price             types.Money `json:"price"`
}

type StatusStats struct {
	Status      enums.OrderStatus `json:"status"`
	Count       int64             `json:"count"`
	TotalAmount types.Money       `json:"totalAmount"`
}

// OrderStats lists every status, including those with no orders.
type OrderStats struct {
	ByStatus    []StatusStats `json:"byStatus"`
	TotalOrders int64         `json:"totalOrders"`
	TotalAmount types.Money   `json:"totalAmount"`
}

type service struct {
	repo     *Repository
	products *products.Repository
}

func NewService(repository *Repository, productRepo *products.Repository) (Service, error) {
	if repository == nil {
		return nil, errors.New("reports repository required")
	}
	if productRepo == nil {
		return nil, errors.New("product repository required")
	}
	return &service{repo: repository, products: productRepo}, nil
}

// LowStock falls back to each product's own threshold when threshold is nil.
func (s *service) LowStock(ctx context.Context, threshold *int) ([]LowStockItem, error) {
	if threshold != nil && *threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must be zero or greater")
	}
	rows, err := s.products.LowStock(ctx, threshold)
	if err != nil {
		return nil, repo.Classify(err, "", "load low stock products")
	}
	out := make([]LowStockItem, 0, len(rows))
	for _, p := range rows {
		out = append(out, LowStockItem{
			ID:                p.ID,
			Name:              p.Name,
			Slug:              p.Slug,
			SKU:               p.SKU,
			Stock:             p.Stock,
			LowStockThreshold: p.LowStockThreshold,
			Price:             types.NewMoney(p.Price),
		})
	}
	return out, nil
}

func (s *service) OrderStats(ctx context.Context) (*OrderStats, error) {
	rows, err := s.repo.OrderTotalsByStatus(ctx)
	if err != nil {
		return nil, repo.Classify(err, "", "aggregate orders")
	}
	byStatus := make(map[enums.OrderStatus]StatusTotal, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row
	}

	stats := &OrderStats{ByStatus: make([]StatusStats, 0, len(enums.OrderStatuses()))}
	overall := decimal.Zero
	for _, status := range enums.OrderStatuses() {
		row := byStatus[status]
		stats.ByStatus = append(stats.ByStatus, StatusStats{
			Status:      status,
			Count:       row.Count,
			TotalAmount: types.NewMoney(row.Total),
		})
		stats.TotalOrders += row.Count
		overall = overall.Add(row.Total)
	}
	stats.TotalAmount = types.NewMoney(overall)
	return stats, nil
}
