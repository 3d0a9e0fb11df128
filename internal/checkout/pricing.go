package checkout

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// QuoteDTO is the server-authoritative price preview of an order.
type QuoteDTO struct {
	Items          []QuoteLineDTO         `json:"items"`
	Subtotal       types.Money            `json:"subtotal"`
	TaxAmount      types.Money            `json:"taxAmount"`
	ShippingAmount types.Money            `json:"shippingAmount"`
	DiscountAmount types.Money            `json:"discountAmount"`
	TotalAmount    types.Money            `json:"totalAmount"`
	Coupon         *coupons.ResolutionDTO `json:"coupon,omitempty"`
}

type QuoteLineDTO struct {
	ProductID   uuid.UUID   `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	TotalPrice  types.Money `json:"totalPrice"`
}

type pricedLine struct {
	product  models.Product
	quantity int
	unit     decimal.Decimal
	total    decimal.Decimal
}

type pricedOrder struct {
	lines  []pricedLine
	totals pricing.Totals
	coupon *coupons.Resolution
}

// price validates lines against the catalog and prices them from the stored
// product price. All lines must pass.
func (s *service) price(ctx context.Context, input QuoteInput) (*pricedOrder, error) {
	lines, err := pkgcheckout.NormalizeLines(input.Items)
	if err != nil {
		return nil, err
	}
	catalog, err := s.products.FindByIDs(ctx, pkgcheckout.ProductIDs(lines))
	if err != nil {
		return nil, repo.Classify(err, "", "load products")
	}

	out := &pricedOrder{lines: make([]pricedLine, 0, len(lines))}
	subtotal := decimal.Zero
	for _, line := range lines {
		product, ok := catalog[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"productId": line.ProductID})
		}
		if !product.IsActive {
			return nil, pkgerrors.Newf(pkgerrors.CodeUnavailable, "%s is not available", product.Name).
				WithDetails(map[string]any{"productId": product.ID})
		}
		if product.TrackQuantity && product.Stock < line.Quantity {
			return nil, insufficientStock(product, line.Quantity)
		}
		unit := product.Price.Round(2)
		total := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(total)
		out.lines = append(out.lines, pricedLine{product: product, quantity: line.Quantity, unit: unit, total: total})
	}

	discount, freeShipping := decimal.Zero, false
	if code := strings.TrimSpace(input.CouponCode); code != "" {
		resolution, err := s.coupons.Resolve(ctx, code, subtotal)
		if err != nil {
			return nil, err
		}
		out.coupon = resolution
		discount, freeShipping = resolution.Discount, resolution.FreeShipping
	}
	out.totals = s.calculator.Compute(subtotal, discount, freeShipping)
	return out, nil
}

func (p *pricedOrder) dto() QuoteDTO {
	items := make([]QuoteLineDTO, 0, len(p.lines))
	for _, line := range p.lines {
		items = append(items, QuoteLineDTO{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			Quantity:    line.quantity,
			UnitPrice:   types.NewMoney(line.unit),
			TotalPrice:  types.NewMoney(line.total),
		})
	}
	dto := QuoteDTO{
		Items:          items,
		Subtotal:       types.NewMoney(p.totals.Subtotal),
		TaxAmount:      types.NewMoney(p.totals.Tax),
		ShippingAmount: types.NewMoney(p.totals.Shipping),
		DiscountAmount: types.NewMoney(p.totals.Discount),
		TotalAmount:    types.NewMoney(p.totals.Total),
	}
	if p.coupon != nil {
		c := p.coupon.DTO()
		dto.Coupon = &c
	}
	return dto
}

func (p *pricedOrder) order(userID uuid.UUID, number string, method enums.PaymentMethod, shipping, billing types.AddressSnapshot, notes *string) *models.Order {
	items := make([]models.OrderItem, 0, len(p.lines))
	for _, line := range p.lines {
		productID := line.product.ID
		items = append(items, models.OrderItem{
			ProductID:    &productID,
			ProductName:  line.product.Name,
			ProductSKU:   line.product.SKU,
			ProductImage: line.product.PrimaryImageURL(),
			Quantity:     line.quantity,
			UnitPrice:    line.unit,
			TotalPrice:   line.total,
		})
	}
	var couponCode *string
	if p.coupon != nil {
		code := p.coupon.Code
		couponCode = &code
	}
	return &models.Order{
		OrderNumber:     number,
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   method,
		Subtotal:        p.totals.Subtotal,
		TaxAmount:       p.totals.Tax,
		ShippingAmount:  p.totals.Shipping,
		DiscountAmount:  p.totals.Discount,
		TotalAmount:     p.totals.Total,
		CouponCode:      couponCode,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		CustomerNotes:   notes,
		Items:           items,
	}
}
