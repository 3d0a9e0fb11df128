package reports

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), products.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestLowStockExplicitThreshold(t *testing.T) {
	svc, conn := newTestService(t)
	dbtest.SeedProduct(t, conn, "Ten", "1.00", dbtest.WithStock(10))
	dbtest.SeedProduct(t, conn, "Fifteen", "1.00", dbtest.WithStock(15))
	dbtest.SeedProduct(t, conn, "Five", "1.00", dbtest.WithStock(5))
	dbtest.SeedProduct(t, conn, "Hidden", "1.00", dbtest.WithStock(1), dbtest.Inactive())
	dbtest.SeedProduct(t, conn, "Untracked", "1.00", dbtest.WithStock(0), dbtest.Untracked())

	threshold := 10
	items, err := svc.LowStock(context.Background(), &threshold)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Five", items[0].Name)
	assert.Equal(t, "Ten", items[1].Name)
}

func TestLowStockFallsBackToProductThreshold(t *testing.T) {
	svc, conn := newTestService(t)
	dbtest.SeedProduct(t, conn, "AtDefault", "1.00", dbtest.WithStock(5))
	dbtest.SeedProduct(t, conn, "Custom", "1.00", dbtest.WithStock(8), dbtest.WithLowStockThreshold(8))
	dbtest.SeedProduct(t, conn, "Plenty", "1.00", dbtest.WithStock(6))

	items, err := svc.LowStock(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "AtDefault", items[0].Name)
	assert.Equal(t, "Custom", items[1].Name)

	negative := -1
	_, err = svc.LowStock(context.Background(), &negative)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestOrderStatsGroupsByStatus(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, enums.UserRoleCustomer)
	seedOrder(t, conn, user.ID, enums.OrderStatusPending, "10.50")
	seedOrder(t, conn, user.ID, enums.OrderStatusPending, "4.25")
	seedOrder(t, conn, user.ID, enums.OrderStatusDelivered, "100.00")

	stats, err := svc.OrderStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalOrders)
	assert.Equal(t, "114.75", stats.TotalAmount.StringFixed(2))
	require.Len(t, stats.ByStatus, len(enums.OrderStatuses()))

	got := map[enums.OrderStatus]StatusStats{}
	for _, s := range stats.ByStatus {
		got[s.Status] = s
	}
	assert.EqualValues(t, 2, got[enums.OrderStatusPending].Count)
	assert.Equal(t, "14.75", got[enums.OrderStatusPending].TotalAmount.StringFixed(2))
	assert.EqualValues(t, 0, got[enums.OrderStatusCancelled].Count)
	assert.Equal(t, "0.00", got[enums.OrderStatusCancelled].TotalAmount.StringFixed(2))
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.OrderStatus, total string) {
	t.Helper()
	address := types.AddressSnapshot{FullName: "Ada", Line1: "1 Main", City: "Springfield", PostalCode: "12345", Country: "US"}
	amount := decimal.RequireFromString(total)
	order := models.Order{
		OrderNumber:     "ORD-" + uuid.NewString()[:8],
		UserID:          userID,
		Status:          status,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   enums.PaymentMethodCard,
		Subtotal:        amount,
		TotalAmount:     amount,
		ShippingAddress: address,
		BillingAddress:  address,
	}
	require.NoError(t, conn.Create(&order).Error)
}
