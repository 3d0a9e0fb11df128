// Package pricing computes order totals from a server-side subtotal.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// Totals is the priced breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Calculator applies tax and shipping rules. A zero free-shipping threshold
// disables the threshold.
type Calculator struct {
	TaxRate               decimal.Decimal
	FlatShipping          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func NewCalculator(cfg config.PricingConfig) Calculator {
	return Calculator{
		TaxRate:               cfg.TaxRateDecimal(),
		FlatShipping:          cfg.FlatShippingDecimal(),
		FreeShippingThreshold: cfg.FreeShippingThresholdDecimal(),
	}
}

// Compute prices subtotal with a resolved discount. The discount is clamped to
// the subtotal and the total never drops below zero.
func (c Calculator) Compute(subtotal, discount decimal.Decimal, freeShipping bool) Totals {
	subtotal = subtotal.Round(2)
	discount = decimal.Max(decimal.Min(discount, subtotal), decimal.Zero).Round(2)
	tax := subtotal.Mul(c.TaxRate).Round(2)

	shipping := c.FlatShipping.Round(2)
	if freeShipping || (c.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(c.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	total := subtotal.Sub(discount).Add(tax).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    total.Round(2),
	}
}
