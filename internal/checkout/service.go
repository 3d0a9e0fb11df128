package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type addressResolver interface {
	SnapshotFor(ctx context.Context, userID, id uuid.UUID) (types.AddressSnapshot, error)
}

// Service places orders and previews their totals.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input Input) (*orders.OrderDTO, error)
	Quote(ctx context.Context, userID uuid.UUID, input QuoteInput) (*QuoteDTO, error)
}

// QuoteInput is the pricing-relevant part of an order request.
type QuoteInput struct {
	Items      []pkgcheckout.LineInput
	CouponCode string
}

// Input is a full order request. Exactly one of ShippingAddressID and
// ShippingAddress is expected; billing defaults to shipping.
type Input struct {
	QuoteInput
	PaymentMethod     enums.PaymentMethod
	ShippingAddressID *uuid.UUID
	ShippingAddress   *types.AddressSnapshot
	BillingAddress    *types.AddressSnapshot
	CustomerNotes     *string
	ClearCart         bool
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Tx         txRunner
	Products   *products.Repository
	Orders     *orders.Repository
	Cart       *cart.Repository
	Coupons    coupons.Resolver
	Addresses  addressResolver
	Outbox     outboxPublisher
	Calculator pricing.Calculator
	Logger     *logger.Logger
	Clock      func() time.Time
}

type service struct {
	tx         txRunner
	products   *products.Repository
	orders     *orders.Repository
	cart       *cart.Repository
	coupons    coupons.Resolver
	addresses  addressResolver
	outbox     outboxPublisher
	calculator pricing.Calculator
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Cart == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Coupons == nil:
		return nil, fmt.Errorf("coupon resolver required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address resolver required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:         params.Tx,
		products:   params.Products,
		orders:     params.Orders,
		cart:       params.Cart,
		coupons:    params.Coupons,
		addresses:  params.Addresses,
		outbox:     params.Outbox,
		calculator: params.Calculator,
		logg:       params.Logger,
		now:        now,
	}, nil
}

// Quote prices the request exactly as Create would, without writing.
func (s *service) Quote(ctx context.Context, _ uuid.UUID, input QuoteInput) (*QuoteDTO, error) {
	priced, err := s.price(ctx, input)
	if err != nil {
		return nil, err
	}
	dto := priced.dto()
	return &dto, nil
}

// Create validates and prices server-side, then writes the order, its items,
// the first history row, the guarded stock decrements and the order_created
// event in one transaction. The guarded decrement is the authoritative stock
// check; any failure rolls back every write.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*orders.OrderDTO, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	shipping, billing, err := s.resolveAddresses(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	orderNumber, err := pkgcheckout.NewOrderNumber(s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	priced, err := s.price(ctx, input.QuoteInput)
	if err != nil {
		return nil, err
	}

	order := priced.order(userID, orderNumber, input.PaymentMethod, shipping, billing, trimmedNotes(input.CustomerNotes))
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.products.WithTx(tx)
		for i := range order.Items {
			item := &order.Items[i]
			product := priced.lines[i].product
			if !product.TrackQuantity {
				continue
			}
			ok, err := productRepo.DecrementStock(ctx, product.ID, item.Quantity)
			if err != nil {
				return repo.Classify(err, "", "decrement stock")
			}
			if !ok {
				return insufficientStock(product, item.Quantity)
			}
			item.StockDecremented = true
		}

		orderRepo := s.orders.WithTx(tx)
		if err := orderRepo.Create(ctx, order); err != nil {
			return repo.Classify(err, "", "insert order")
		}
		comment := "Order created"
		if err := orderRepo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    enums.OrderStatusPending,
			Comment:   &comment,
			CreatedBy: &userID,
		}); err != nil {
			return repo.Classify(err, "", "insert order history")
		}

		if err := s.outbox.Emit(ctx, tx, createdEvent(order, userID)); err != nil {
			return err
		}

		if input.ClearCart {
			if err := s.cart.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
				return repo.Classify(err, "", "clear cart")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "order_number", order.OrderNumber), "order placed")
	}
	dto := orders.ToDTO(*order)
	return &dto, nil
}

func (s *service) resolveAddresses(ctx context.Context, userID uuid.UUID, input Input) (types.AddressSnapshot, types.AddressSnapshot, error) {
	var shipping types.AddressSnapshot
	switch {
	case input.ShippingAddressID != nil:
		snapshot, err := s.addresses.SnapshotFor(ctx, userID, *input.ShippingAddressID)
		if err != nil {
			return shipping, shipping, err
		}
		shipping = snapshot
	case input.ShippingAddress != nil:
		shipping = input.ShippingAddress.Normalize()
	default:
		return shipping, shipping, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if missing := shipping.Missing(); len(missing) > 0 {
		return shipping, shipping, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}

	billing := shipping
	if input.BillingAddress != nil {
		billing = input.BillingAddress.Normalize()
		if missing := billing.Missing(); len(missing) > 0 {
			return shipping, billing, pkgerrors.New(pkgerrors.CodeValidation, "billing address is incomplete").
				WithDetails(map[string]any{"missing": missing})
		}
	}
	return shipping, billing, nil
}

func createdEvent(order *models.Order, userID uuid.UUID) outbox.DomainEvent {
	items := make([]payloads.ItemQuantity, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payloads.ItemQuantity{ProductID: *item.ProductID, Quantity: item.Quantity})
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			UserID:        userID,
			PaymentMethod: order.PaymentMethod,
			Subtotal:      order.Subtotal.StringFixed(2),
			TotalAmount:   order.TotalAmount.StringFixed(2),
			CouponCode:    order.CouponCode,
			Items:         items,
		},
	}
}

func insufficientStock(product models.Product, requested int) error {
	return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "insufficient stock for %s", product.Name).
		WithDetails(map[string]any{"productId": product.ID, "available": product.Stock, "requested": requested})
}

func trimmedNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	out := strings.TrimSpace(*notes)
	if out == "" {
		return nil
	}
	return &out
}
