package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type fixture struct {
	svc  Service
	conn *gorm.DB
	user models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Products:   products.NewRepository(conn),
		Tx:         db.NewFromGorm(conn),
		Outbox:     outbox.NewService(outbox.NewRepository(conn), nil),
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, user: dbtest.SeedUser(t, conn, enums.UserRoleCustomer)}
}

// placeOrder mimics checkout: stock is decremented and recorded per item.
func (f fixture) placeOrder(t *testing.T, userID uuid.UUID, method enums.PaymentMethod, lines map[*models.Product]int) models.Order {
	t.Helper()
	address := types.AddressSnapshot{FullName: "Ada", Line1: "1 Main", City: "Springfield", PostalCode: "12345", Country: "US"}
	order := models.Order{
		OrderNumber:     "ORD-" + uuid.NewString()[:8],
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   method,
		ShippingAddress: address,
		BillingAddress:  address,
	}
	total := decimal.Zero
	for product, qty := range lines {
		require.NoError(t, f.conn.Model(product).UpdateColumn("stock", gorm.Expr("stock - ?", qty)).Error)
		id := product.ID
		line := product.Price.Mul(decimal.NewFromInt(int64(qty)))
		total = total.Add(line)
		order.Items = append(order.Items, models.OrderItem{
			ProductID:        &id,
			ProductName:      product.Name,
			Quantity:         qty,
			UnitPrice:        product.Price,
			TotalPrice:       line,
			StockDecremented: true,
		})
	}
	order.Subtotal, order.TotalAmount = total, total
	require.NoError(t, f.conn.Create(&order).Error)
	return order
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.Select("stock").Where("id = ?", id).Take(&p).Error)
	return p.Stock
}

func TestCancelRestoresStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.conn, "A", "10.00", dbtest.WithStock(10))
	b := dbtest.SeedProduct(t, f.conn, "B", "5.00", dbtest.WithStock(4))
	order := f.placeOrder(t, f.user.ID, enums.PaymentMethodCard, map[*models.Product]int{&a: 3, &b: 4})
	require.Equal(t, 7, stockOf(t, f.conn, a.ID))
	require.Equal(t, 0, stockOf(t, f.conn, b.ID))

	cancelled, err := f.svc.Cancel(ctx, f.user.ID, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Empty(t, cancelled.AllowedTransitions)
	assert.Equal(t, 10, stockOf(t, f.conn, a.ID))
	assert.Equal(t, 4, stockOf(t, f.conn, b.ID))

	_, err = f.svc.Cancel(ctx, f.user.ID, order.ID, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, 10, stockOf(t, f.conn, a.ID))

	history, err := f.svc.GetHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enums.OrderStatusCancelled, history[0].Status)
	assert.Equal(t, "Cancelled by customer: changed my mind", *history[0].Comment)

	var event models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventOrderCancelled).Take(&event).Error)
	var envelope outbox.Envelope
	require.NoError(t, json.Unmarshal(event.Payload, &envelope))
	var data payloads.OrderCancelledEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Len(t, data.RestoredItems, 2)
	assert.Equal(t, enums.OrderStatusPending, data.PreviousState)
}

func TestCancelSkipsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	product := dbtest.SeedProduct(t, f.conn, "Gone", "10.00")
	order := f.placeOrder(t, f.user.ID, enums.PaymentMethodCard, map[*models.Product]int{&product: 1})
	require.NoError(t, f.conn.Delete(&models.Product{}, "id = ?", product.ID).Error)

	_, err := f.svc.Cancel(context.Background(), f.user.ID, order.ID, "")
	require.NoError(t, err)
}

func TestCancelOtherUsersOrderIsNotFound(t *testing.T) {
	f := newFixture(t)
	other := dbtest.SeedUser(t, f.conn, enums.UserRoleCustomer)
	product := dbtest.SeedProduct(t, f.conn, "A", "10.00")
	order := f.placeOrder(t, other.ID, enums.PaymentMethodCard, map[*models.Product]int{&product: 1})

	_, err := f.svc.Cancel(context.Background(), f.user.ID, order.ID, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.GetMine(context.Background(), f.user.ID, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCancelAfterShipmentIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := dbtest.SeedUser(t, f.conn, enums.UserRoleAdmin)
	product := dbtest.SeedProduct(t, f.conn, "A", "10.00")
	order := f.placeOrder(t, f.user.ID, enums.PaymentMethodCard, map[*models.Product]int{&product: 1})

	for _, status := range []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusShipped} {
		_, err := f.svc.UpdateStatus(ctx, UpdateStatusInput{AdminID: admin.ID, OrderID: order.ID, Status: status})
		require.NoError(t, err)
	}
	_, err := f.svc.Cancel(ctx, f.user.ID, order.ID, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateStatusLifecycleAndPaymentEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := dbtest.SeedUser(t, f.conn, enums.UserRoleAdmin)
	product := dbtest.SeedProduct(t, f.conn, "A", "10.00")
	order := f.placeOrder(t, f.user.ID, enums.PaymentMethodCashOnDelivery, map[*models.Product]int{&product: 2})

	var got *OrderDTO
	var err error
	for _, status := range []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusShipped, enums.OrderStatusDelivered} {
		got, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{AdminID: admin.ID, OrderID: order.ID, Status: status, NotifyCustomer: true})
		require.NoError(t, err)
	}
	assert.Equal(t, enums.PaymentStatusPaid, got.PaymentStatus)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{AdminID: admin.ID, OrderID: order.ID, Status: enums.OrderStatusPending})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, 400, pkgerrors.MetadataFor(pkgerrors.CodeStateConflict).HTTPStatus)

	got, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{AdminID: admin.ID, OrderID: order.ID, Status: enums.OrderStatusRefunded, Comment: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, got.PaymentStatus)

	history, err := f.svc.GetHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, enums.OrderStatusRefunded, history[3].Status)
	require.NotNil(t, history[3].CreatedBy)
	assert.Equal(t, admin.ID, *history[3].CreatedBy)

	var changed int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderStatusChanged).Count(&changed).Error)
	assert.Equal(t, int64(4), changed)
}

func TestAdminCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	admin := dbtest.SeedUser(t, f.conn, enums.UserRoleAdmin)
	product := dbtest.SeedProduct(t, f.conn, "A", "10.00", dbtest.WithStock(5))
	order := f.placeOrder(t, f.user.ID, enums.PaymentMethodCard, map[*models.Product]int{&product: 2})

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{AdminID: admin.ID, OrderID: order.ID, Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, f.conn, product.ID))
}

func TestListMinePagesWithCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, f.conn, "A", "1.00", dbtest.WithStock(50))
	other := dbtest.SeedUser(t, f.conn, enums.UserRoleCustomer)
	f.placeOrder(t, other.ID, enums.PaymentMethodCard, map[*models.Product]int{&product: 1})

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		order := f.placeOrder(t, f.user.ID, enums.PaymentMethodCard, map[*models.Product]int{&product: 1})
		require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", order.ID).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
		ids = append(ids, order.ID)
	}

	page, err := f.svc.ListMine(ctx, f.user.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)
	require.NotEmpty(t, page.NextCursor)

	rest, err := f.svc.ListMine(ctx, f.user.ID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, ids[0], rest.Items[0].ID)
	assert.Empty(t, rest.NextCursor)
}

func TestAdminListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, f.conn, "A", "1.00", dbtest.WithStock(50))
	first := f.placeOrder(t, f.user.ID, enums.PaymentMethodCard, map[*models.Product]int{&product: 1})
	f.placeOrder(t, f.user.ID, enums.PaymentMethodCard, map[*models.Product]int{&product: 1})
	_, err := f.svc.Cancel(ctx, f.user.ID, first.ID, "")
	require.NoError(t, err)

	status := enums.OrderStatusPending
	res, err := f.svc.AdminList(ctx, AdminListInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	all, err := f.svc.AdminList(ctx, AdminListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	bogus := enums.OrderStatus("lost")
	_, err = f.svc.AdminList(ctx, AdminListInput{Status: &bogus})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
