package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB, uuid.UUID) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), products.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn, dbtest.SeedUser(t, conn, enums.UserRoleCustomer).ID
}

func TestAddItemRejectsDuplicate(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, conn, "Lamp", "30.00")

	_, err := svc.AddItem(ctx, userID, product.ID)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, product.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	count, err := svc.GetCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	in, err := svc.IsInWishlist(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.True(t, in)
}

func TestAddItemRejectsMissingProduct(t *testing.T) {
	svc, conn, userID := newTestService(t)
	inactive := dbtest.SeedProduct(t, conn, "Old", "1.00", dbtest.Inactive())

	for _, id := range []uuid.UUID{uuid.New(), inactive.ID} {
		_, err := svc.AddItem(context.Background(), userID, id)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	}
}

func TestRemoveVariants(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, conn, "A", "1.00")
	b := dbtest.SeedProduct(t, conn, "B", "1.00")
	c := dbtest.SeedProduct(t, conn, "C", "1.00")

	itemA, err := svc.AddItem(ctx, userID, a.ID)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, b.ID)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, c.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, userID, itemA.ID))
	err = svc.RemoveItem(ctx, userID, itemA.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.RemoveByProductID(ctx, userID, b.ID))
	in, err := svc.IsInWishlist(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.False(t, in)

	require.NoError(t, svc.Clear(ctx, userID))
	require.NoError(t, svc.Clear(ctx, userID))
	count, err := svc.GetCount(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetItemsPagesNewestFirst(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var names []string
	for i, name := range []string{"first", "second", "third"} {
		product := dbtest.SeedProduct(t, conn, name, "2.00")
		item := models.WishlistItem{UserID: userID, ProductID: product.ID, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, conn.Create(&item).Error)
		names = append(names, name)
	}

	page, err := svc.GetItems(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, names[2], page.Items[0].Product.Name)
	assert.Equal(t, names[1], page.Items[1].Product.Name)
	require.NotEmpty(t, page.NextCursor)

	next, err := svc.GetItems(ctx, userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, names[0], next.Items[0].Product.Name)
	assert.Empty(t, next.NextCursor)

	_, err = svc.GetItems(ctx, userID, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewServiceRequiresRepositories(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := NewService(nil, products.NewRepository(conn))
	require.Error(t, err)
	assert.Nil(t, pkgerrors.As(err))

	_, err = NewService(NewRepository(conn), nil)
	assert.Error(t, err)
}
