package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ProductOption mutates a product fixture before insert.
type ProductOption func(*models.Product)

func WithStock(stock int) ProductOption {
	return func(p *models.Product) { p.Stock = stock }
}

func WithOriginalPrice(price string) ProductOption {
	return func(p *models.Product) {
		value := decimal.RequireFromString(price)
		p.OriginalPrice = &value
	}
}

func Inactive() ProductOption {
	return func(p *models.Product) { p.IsActive = false }
}

func Untracked() ProductOption {
	return func(p *models.Product) { p.TrackQuantity = false }
}

func InCategory(id uuid.UUID) ProductOption {
	return func(p *models.Product) { p.CategoryID = &id }
}

func WithLowStockThreshold(threshold int) ProductOption {
	return func(p *models.Product) { p.LowStockThreshold = threshold }
}

// SeedProduct inserts an active, stock-tracked product.
func SeedProduct(t testing.TB, conn *gorm.DB, name, price string, opts ...ProductOption) models.Product {
	t.Helper()
	product := models.Product{
		Name:              name,
		Slug:              "p-" + uuid.NewString(),
		Price:             decimal.RequireFromString(price),
		Stock:             10,
		LowStockThreshold: 5,
		TrackQuantity:     true,
		IsActive:          true,
	}
	for _, opt := range opts {
		opt(&product)
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedCategory inserts an active category.
func SeedCategory(t testing.TB, conn *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name, Slug: "c-" + uuid.NewString(), IsActive: true}
	if err := conn.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category
}

// SeedUser inserts a customer (or the given role).
func SeedUser(t testing.TB, conn *gorm.DB, role enums.UserRole) models.User {
	t.Helper()
	user := models.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         role,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedCoupon inserts an active coupon.
func SeedCoupon(t testing.TB, conn *gorm.DB, code string, kind enums.CouponType, value string) models.Coupon {
	t.Helper()
	coupon := models.Coupon{Code: code, Type: kind, Value: decimal.RequireFromString(value), IsActive: true}
	if err := conn.Create(&coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return coupon
}
