package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(db.NewFromGorm(conn), NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCreateGeneratesSlugAndStoresImages(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sku := " MUG-01 "
	created, err := svc.Create(ctx, CreateInput{
		Name:  "Crème Mug",
		SKU:   &sku,
		Price: price("12.5"),
		Stock: 4,
		Images: []ImageInput{
			{URL: "https://cdn.example.com/b.jpg", SortOrder: 2},
			{URL: "https://cdn.example.com/a.jpg", SortOrder: 1, IsPrimary: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "creme-mug", created.Slug)
	assert.Equal(t, "MUG-01", *created.SKU)
	assert.Equal(t, "12.50", created.Price.StringFixed(2))
	assert.Equal(t, defaultLowStockThreshold, created.LowStockThreshold)
	require.Len(t, created.Images, 2)
	assert.Equal(t, "https://cdn.example.com/a.jpg", created.Images[0].URL)
	require.NotNil(t, created.PrimaryImage)
	assert.Equal(t, "https://cdn.example.com/a.jpg", *created.PrimaryImage)
}

func TestCreateRejectsDuplicateSlugAndSKU(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sku := "SKU-1"
	_, err := svc.Create(ctx, CreateInput{Name: "Lamp", SKU: &sku, Price: price("10")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Name: "Lamp", Price: price("11")})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, CreateInput{Name: "Desk Lamp", SKU: &sku, Price: price("11")})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc, _ := newTestService(t)
	missing := uuid.New()
	_, err := svc.Create(context.Background(), CreateInput{Name: "Orphan", Price: price("1"), CategoryID: &missing})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListFiltersAndSorts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	shoes := dbtest.SeedCategory(t, conn, "Shoes")
	dbtest.SeedProduct(t, conn, "Trail Runner", "120.00", dbtest.InCategory(shoes.ID))
	dbtest.SeedProduct(t, conn, "Road Runner", "90.00", dbtest.InCategory(shoes.ID), dbtest.WithStock(0))
	dbtest.SeedProduct(t, conn, "Sandal", "30.00", dbtest.InCategory(shoes.ID), dbtest.Inactive())
	dbtest.SeedProduct(t, conn, "Socks", "5.00")

	all, err := svc.List(ctx, ListInput{Sort: enums.ProductSortPriceAsc})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, int64(3), all.Total)
	assert.Equal(t, "Socks", all.Items[0].Name)
	assert.Equal(t, "Trail Runner", all.Items[2].Name)

	inStock := true
	res, err := svc.List(ctx, ListInput{CategorySlug: shoes.Slug, InStock: &inStock})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Trail Runner", res.Items[0].Name)

	res, err = svc.List(ctx, ListInput{Search: "RUNNER", Sort: enums.ProductSortNameAsc})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Road Runner", res.Items[0].Name)

	minPrice, maxPrice := price("10"), price("100")
	res, err = svc.List(ctx, ListInput{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Road Runner", res.Items[0].Name)

	res, err = svc.List(ctx, ListInput{IncludeInactive: true, CategoryID: &shoes.ID})
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)

	res, err = svc.List(ctx, ListInput{CategorySlug: "nope"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, int64(0), res.Total)
}

func TestListPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		dbtest.SeedProduct(t, conn, name, "1.00")
	}

	res, err := svc.List(ctx, ListInput{Sort: enums.ProductSortNameAsc, Page: pagination.Page{Page: 2, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "C", res.Items[0].Name)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, int64(5), res.Total)
}

func TestListRejectsInvertedPriceRange(t *testing.T) {
	svc, _ := newTestService(t)
	minPrice, maxPrice := price("50"), price("10")
	_, err := svc.List(context.Background(), ListInput{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetHidesInactiveFromShoppers(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	hidden := dbtest.SeedProduct(t, conn, "Hidden", "3.00", dbtest.Inactive())

	_, err := svc.GetByID(ctx, hidden.ID, false)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := svc.GetBySlug(ctx, hidden.Slug, true)
	require.NoError(t, err)
	assert.Equal(t, hidden.ID, got.ID)
}

func TestUpdateReplacesImagesAndFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Name:   "Chair",
		Price:  price("40"),
		Images: []ImageInput{{URL: "https://cdn.example.com/old.jpg"}},
	})
	require.NoError(t, err)

	newName := "Oak Chair"
	newPrice := price("45.5")
	images := []ImageInput{{URL: "https://cdn.example.com/new.jpg", IsPrimary: true}}
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Name: &newName, Price: &newPrice, Images: &images})
	require.NoError(t, err)
	assert.Equal(t, "Oak Chair", updated.Name)
	assert.Equal(t, "chair", updated.Slug)
	assert.Equal(t, "45.50", updated.Price.StringFixed(2))
	require.Len(t, updated.Images, 1)
	assert.Equal(t, "https://cdn.example.com/new.jpg", updated.Images[0].URL)

	negative := -1
	_, err = svc.Update(ctx, created.ID, UpdateInput{Stock: &negative})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteRemovesImages(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Name:   "Vase",
		Price:  price("15"),
		Images: []ImageInput{{URL: "https://cdn.example.com/vase.jpg"}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	var images int64
	require.NoError(t, conn.Model(&models.ProductImage{}).Where("product_id = ?", created.ID).Count(&images).Error)
	assert.Zero(t, images)

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

// A checkout decrement that commits between Update's read and its write must
// survive a price-only edit.
func TestUpdateKeepsConcurrentStockDecrement(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, conn, "Kettle", "20.00", dbtest.WithStock(10))

	fired := false
	require.NoError(t, conn.Callback().Update().Before("gorm:update").Register("test:checkout_decrement", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "products" {
			return
		}
		fired = true
		err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET stock = stock - 3 WHERE id = ?", product.ID).Error
		require.NoError(t, err)
	}))
	t.Cleanup(func() { _ = conn.Callback().Update().Remove("test:checkout_decrement") })

	newPrice := price("12")
	updated, err := svc.Update(ctx, product.ID, UpdateInput{Price: &newPrice})
	require.NoError(t, err)
	require.True(t, fired)
	assert.Equal(t, "12.00", updated.Price.StringFixed(2))
	assert.Equal(t, 7, updated.Stock)
}

func TestUpdateSetsExplicitStock(t *testing.T) {
	svc, conn := newTestService(t)
	product := dbtest.SeedProduct(t, conn, "Teapot", "20.00", dbtest.WithStock(2))

	stock := 40
	updated, err := svc.Update(context.Background(), product.ID, UpdateInput{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Stock)
}
