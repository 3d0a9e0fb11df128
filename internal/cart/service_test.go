package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB, uuid.UUID) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(db.NewFromGorm(conn), NewRepository(conn), products.NewRepository(conn))
	require.NoError(t, err)
	user := dbtest.SeedUser(t, conn, enums.UserRoleCustomer)
	return svc, conn, user.ID
}

func TestAddItemMergesAndGuardsStock(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, conn, "Kettle", "30.00", dbtest.WithStock(3))

	first, err := svc.AddItem(ctx, userID, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Quantity)

	merged, err := svc.AddItem(ctx, userID, product.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 3, merged.Quantity)
	assert.Equal(t, "90.00", merged.LineTotal.StringFixed(2))

	_, err = svc.AddItem(ctx, userID, product.ID, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))

	items, err := svc.GetItems(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.LessOrEqual(t, items[0].Quantity, product.Stock)
}

func TestAddItemRejections(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()
	inactive := dbtest.SeedProduct(t, conn, "Retired", "5.00", dbtest.Inactive())
	untracked := dbtest.SeedProduct(t, conn, "Gift Card", "25.00", dbtest.Untracked(), dbtest.WithStock(0))

	cases := []struct {
		name      string
		productID uuid.UUID
		quantity  int
		code      pkgerrors.Code
	}{
		{name: "zero quantity", productID: untracked.ID, quantity: 0, code: pkgerrors.CodeValidation},
		{name: "too many", productID: untracked.ID, quantity: 100, code: pkgerrors.CodeValidation},
		{name: "missing product", productID: uuid.New(), quantity: 1, code: pkgerrors.CodeNotFound},
		{name: "inactive product", productID: inactive.ID, quantity: 1, code: pkgerrors.CodeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, userID, tc.productID, tc.quantity)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	_, err := svc.AddItem(ctx, userID, untracked.ID, 60)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, untracked.ID, 40)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateQuantityInsufficientStock(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, conn, "A", "500.00", dbtest.WithStock(10))
	b := dbtest.SeedProduct(t, conn, "B", "250.00", dbtest.WithStock(1))

	_, err := svc.AddItem(ctx, userID, a.ID, 1)
	require.NoError(t, err)
	lineB, err := svc.AddItem(ctx, userID, b.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, userID, lineB.ID, 2)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 400, pkgerrors.MetadataFor(pkgerrors.As(err).Code()).HTTPStatus)
}

func TestUpdateQuantityOwnershipAndRemoval(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()
	other := dbtest.SeedUser(t, conn, enums.UserRoleCustomer)
	product := dbtest.SeedProduct(t, conn, "Pan", "20.00")

	line, err := svc.AddItem(ctx, userID, product.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, other.ID, line.ID, 2)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	updated, err := svc.UpdateQuantity(ctx, userID, line.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	removed, err := svc.UpdateQuantity(ctx, userID, line.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, removed)

	items, err := svc.GetItems(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClearIsIdempotent(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, conn, "Cup", "4.00")
	_, err := svc.AddItem(ctx, userID, product.ID, 2)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Clear(ctx, userID))
		items, err := svc.GetItems(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, items)
	}
	require.NoError(t, svc.RemoveItem(ctx, userID, uuid.New()))
}

func TestSummarySkipsDanglingItems(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()
	sale := dbtest.SeedProduct(t, conn, "Sale", "80.00", dbtest.WithOriginalPrice("100.00"))
	plain := dbtest.SeedProduct(t, conn, "Plain", "15.50")
	gone := dbtest.SeedProduct(t, conn, "Gone", "999.00")

	_, err := svc.AddItem(ctx, userID, sale.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, plain.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, gone.ID, 1)
	require.NoError(t, err)
	require.NoError(t, conn.Delete(&models.Product{}, "id = ?", gone.ID).Error)

	summary, err := svc.GetSummary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ItemCount)
	assert.Equal(t, "175.50", summary.Subtotal.StringFixed(2))
	assert.Equal(t, "40.00", summary.Savings.StringFixed(2))

	items, err := svc.GetItems(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
