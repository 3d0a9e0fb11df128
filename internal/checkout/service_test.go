package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type fixture struct {
	svc       Service
	conn      *gorm.DB
	addresses address.Service
	user      models.User
}

func newFixture(t *testing.T, calc pricing.Calculator) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.NewFromGorm(conn)

	resolver, err := coupons.NewResolver(coupons.NewRepository(conn))
	require.NoError(t, err)
	addresses, err := address.NewService(client, address.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Tx:         client,
		Products:   products.NewRepository(conn),
		Orders:     orders.NewRepository(conn),
		Cart:       cart.NewRepository(conn),
		Coupons:    resolver,
		Addresses:  addresses,
		Outbox:     outbox.NewService(outbox.NewRepository(conn), nil),
		Calculator: calc,
		Clock:      func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, addresses: addresses, user: dbtest.SeedUser(t, conn, enums.UserRoleCustomer)}
}

func inlineAddress() *types.AddressSnapshot {
	return &types.AddressSnapshot{FullName: "Ada Lovelace", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
}

func orderInput(coupon string, lines ...pkgcheckout.LineInput) Input {
	return Input{
		QuoteInput:      QuoteInput{Items: lines, CouponCode: coupon},
		PaymentMethod:   enums.PaymentMethodCard,
		ShippingAddress: inlineAddress(),
	}
}

func line(id uuid.UUID, qty int) pkgcheckout.LineInput {
	return pkgcheckout.LineInput{ProductID: id, Quantity: qty}
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, conn.First(&product, "id = ?", id).Error)
	return product.Stock
}

func TestCreatePricesServerSideAndDecrementsStock(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.conn, "Lamp", "19.99", dbtest.WithStock(5))
	b := dbtest.SeedProduct(t, f.conn, "Shade", "5.50", dbtest.Untracked())

	order, err := f.svc.Create(ctx, f.user.ID, orderInput("", line(a.ID, 2), line(b.ID, 3), line(a.ID, 1)))
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(item.TotalPrice.Decimal)
	}
	assert.True(t, sum.Equal(order.TotalAmount.Decimal), "items %s total %s", sum, order.TotalAmount)
	assert.Equal(t, "76.47", order.TotalAmount.StringFixed(2))
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Contains(t, order.OrderNumber, "ORD-1772366400000-")

	assert.Equal(t, 2, stockOf(t, f.conn, a.ID))
	assert.Equal(t, 10, stockOf(t, f.conn, b.ID))

	var history []models.OrderStatusHistory
	require.NoError(t, f.conn.Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, enums.OrderStatusPending, history[0].Status)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("aggregate_id = ?", order.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderCreated, events[0].EventType)
}

func TestCreateAppliesTaxAndShipping(t *testing.T) {
	f := newFixture(t, pricing.Calculator{
		TaxRate:               decimal.RequireFromString("0.1"),
		FlatShipping:          decimal.RequireFromString("4.99"),
		FreeShippingThreshold: decimal.RequireFromString("100"),
	})
	a := dbtest.SeedProduct(t, f.conn, "Mug", "12.00")

	order, err := f.svc.Create(context.Background(), f.user.ID, orderInput("", line(a.ID, 2)))
	require.NoError(t, err)
	assert.Equal(t, "24.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "2.40", order.TaxAmount.StringFixed(2))
	assert.Equal(t, "4.99", order.ShippingAmount.StringFixed(2))
	assert.Equal(t, "31.39", order.TotalAmount.StringFixed(2))
}

func TestCreateUnknownProductWritesNothing(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	a := dbtest.SeedProduct(t, f.conn, "Lamp", "10.00")

	_, err := f.svc.Create(context.Background(), f.user.ID, orderInput("", line(a.ID, 1), line(uuid.New(), 1)))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Zero(t, count(t, f.conn, &models.Order{}))
	assert.Equal(t, 10, stockOf(t, f.conn, a.ID))
}

func TestCreateInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	a := dbtest.SeedProduct(t, f.conn, "Lamp", "10.00", dbtest.WithStock(3))
	b := dbtest.SeedProduct(t, f.conn, "Bulb", "2.00", dbtest.WithStock(1))

	_, err := f.svc.Create(context.Background(), f.user.ID, orderInput("", line(a.ID, 2), line(b.ID, 2)))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 3, stockOf(t, f.conn, a.ID))
	assert.Equal(t, 1, stockOf(t, f.conn, b.ID))
	assert.Zero(t, count(t, f.conn, &models.Order{}))
	assert.Zero(t, count(t, f.conn, &models.OutboxEvent{}))
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	a := dbtest.SeedProduct(t, f.conn, "Old", "10.00", dbtest.Inactive())

	_, err := f.svc.Create(context.Background(), f.user.ID, orderInput("", line(a.ID, 1)))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnavailable))
}

func TestCreateRejectsMissingAddressAndBadMethod(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	a := dbtest.SeedProduct(t, f.conn, "Lamp", "10.00")

	input := orderInput("", line(a.ID, 1))
	input.ShippingAddress = nil
	_, err := f.svc.Create(context.Background(), f.user.ID, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	input = orderInput("", line(a.ID, 1))
	input.PaymentMethod = "barter"
	_, err = f.svc.Create(context.Background(), f.user.ID, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateCoupons(t *testing.T) {
	cases := []struct {
		name         string
		kind         enums.CouponType
		value        string
		wantDiscount string
		wantShipping string
		wantTotal    string
	}{
		{name: "percentage", kind: enums.CouponTypePercentage, value: "10", wantDiscount: "5.00", wantShipping: "5.00", wantTotal: "50.00"},
		{name: "fixed clamps to subtotal", kind: enums.CouponTypeFixed, value: "80", wantDiscount: "50.00", wantShipping: "5.00", wantTotal: "5.00"},
		{name: "free shipping", kind: enums.CouponTypeFreeShipping, value: "0", wantDiscount: "0.00", wantShipping: "0.00", wantTotal: "50.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, pricing.Calculator{FlatShipping: decimal.RequireFromString("5")})
			dbtest.SeedCoupon(t, f.conn, "SAVE", tc.kind, tc.value)
			a := dbtest.SeedProduct(t, f.conn, "Chair", "25.00")

			order, err := f.svc.Create(context.Background(), f.user.ID, orderInput(" save ", line(a.ID, 2)))
			require.NoError(t, err)
			assert.Equal(t, tc.wantDiscount, order.DiscountAmount.StringFixed(2))
			assert.Equal(t, tc.wantShipping, order.ShippingAmount.StringFixed(2))
			assert.Equal(t, tc.wantTotal, order.TotalAmount.StringFixed(2))
			require.NotNil(t, order.CouponCode)
			assert.Equal(t, "SAVE", *order.CouponCode)
		})
	}
}

func TestCreateUnknownCoupon(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	a := dbtest.SeedProduct(t, f.conn, "Chair", "25.00")

	_, err := f.svc.Create(context.Background(), f.user.ID, orderInput("NOPE", line(a.ID, 1)))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 10, stockOf(t, f.conn, a.ID))
}

func TestCreateClearsCartWhenAsked(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	a := dbtest.SeedProduct(t, f.conn, "Chair", "25.00")
	require.NoError(t, f.conn.Create(&models.CartItem{UserID: f.user.ID, ProductID: a.ID, Quantity: 1}).Error)

	_, err := f.svc.Create(context.Background(), f.user.ID, orderInput("", line(a.ID, 1)))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count(t, f.conn, &models.CartItem{}))

	input := orderInput("", line(a.ID, 1))
	input.ClearCart = true
	_, err = f.svc.Create(context.Background(), f.user.ID, input)
	require.NoError(t, err)
	assert.Zero(t, count(t, f.conn, &models.CartItem{}))
}

func TestCreateUsesSavedAddress(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.conn, "Chair", "25.00")

	saved, err := f.addresses.Create(ctx, f.user.ID, address.Input{AddressSnapshot: *inlineAddress()})
	require.NoError(t, err)

	input := orderInput("", line(a.ID, 1))
	input.ShippingAddress = nil
	input.ShippingAddressID = &saved.ID
	order, err := f.svc.Create(ctx, f.user.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", order.ShippingAddress.FullName)
	assert.Equal(t, order.ShippingAddress, order.BillingAddress)

	other := dbtest.SeedUser(t, f.conn, enums.UserRoleCustomer)
	_, err = f.svc.Create(ctx, other.ID, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestQuoteWritesNothing(t *testing.T) {
	f := newFixture(t, pricing.Calculator{TaxRate: decimal.RequireFromString("0.2")})
	a := dbtest.SeedProduct(t, f.conn, "Chair", "25.00", dbtest.WithStock(4))

	quote, err := f.svc.Quote(context.Background(), f.user.ID, QuoteInput{Items: []pkgcheckout.LineInput{line(a.ID, 2)}})
	require.NoError(t, err)
	assert.Equal(t, "50.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", quote.TaxAmount.StringFixed(2))
	assert.Equal(t, "60.00", quote.TotalAmount.StringFixed(2))
	require.Len(t, quote.Items, 1)
	assert.Equal(t, 2, quote.Items[0].Quantity)

	assert.Zero(t, count(t, f.conn, &models.Order{}))
	assert.Equal(t, 4, stockOf(t, f.conn, a.ID))
}

// hookOnce runs fn before the first create or update that hits table, and
// removes the callback when the test ends.
func hookOnce(t *testing.T, conn *gorm.DB, op, table string, fn func(tx *gorm.DB)) {
	t.Helper()
	name := "test:" + op + ":" + table
	fired := false
	hook := func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		fn(tx)
	}
	switch op {
	case "create":
		require.NoError(t, conn.Callback().Create().Before("gorm:create").Register(name, hook))
		t.Cleanup(func() { _ = conn.Callback().Create().Remove(name) })
	case "update":
		require.NoError(t, conn.Callback().Update().Before("gorm:update").Register(name, hook))
		t.Cleanup(func() { _ = conn.Callback().Update().Remove(name) })
	default:
		t.Fatalf("unknown callback op %q", op)
	}
}

func TestCreateRollsBackEverythingWhenALaterWriteFails(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	a := dbtest.SeedProduct(t, f.conn, "Lamp", "10.00", dbtest.WithStock(5))

	hookOnce(t, f.conn, "create", "order_status_history", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("disk full"))
	})

	_, err := f.svc.Create(context.Background(), f.user.ID, orderInput("", line(a.ID, 2)))
	require.Error(t, err)
	assert.Equal(t, 5, stockOf(t, f.conn, a.ID))
	assert.Zero(t, count(t, f.conn, &models.Order{}))
	assert.Zero(t, count(t, f.conn, &models.OrderItem{}))
	assert.Zero(t, count(t, f.conn, &models.OrderStatusHistory{}))
	assert.Zero(t, count(t, f.conn, &models.OutboxEvent{}))
}

// Stock sold by another checkout after pricing is caught by the guarded
// decrement inside the transaction.
func TestCreateGuardedDecrementCatchesStockSoldAfterPricing(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	a := dbtest.SeedProduct(t, f.conn, "Lamp", "10.00", dbtest.WithStock(2))

	hookOnce(t, f.conn, "update", "products", func(tx *gorm.DB) {
		err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET stock = 1 WHERE id = ?", a.ID).Error
		require.NoError(t, err)
	})

	_, err := f.svc.Create(context.Background(), f.user.ID, orderInput("", line(a.ID, 2)))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 2, stockOf(t, f.conn, a.ID), "the competing write rolls back with the transaction")
	assert.Zero(t, count(t, f.conn, &models.Order{}))
	assert.Zero(t, count(t, f.conn, &models.OutboxEvent{}))
}

func TestOrderAddressSnapshotSurvivesAddressEdit(t *testing.T) {
	f := newFixture(t, pricing.Calculator{})
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.conn, "Chair", "25.00")

	saved, err := f.addresses.Create(ctx, f.user.ID, address.Input{AddressSnapshot: *inlineAddress()})
	require.NoError(t, err)
	input := orderInput("", line(a.ID, 1))
	input.ShippingAddress = nil
	input.ShippingAddressID = &saved.ID
	placed, err := f.svc.Create(ctx, f.user.ID, input)
	require.NoError(t, err)

	name, street := "Grace Hopper", "99 Navy Yard"
	_, err = f.addresses.Update(ctx, f.user.ID, saved.ID, address.UpdateInput{FullName: &name, Line1: &street})
	require.NoError(t, err)

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, "id = ?", placed.ID).Error)
	assert.Equal(t, "Ada Lovelace", stored.ShippingAddress.FullName)
	assert.Equal(t, "1 Main St", stored.ShippingAddress.Line1)
	assert.Equal(t, "Ada Lovelace", stored.BillingAddress.FullName)
}
