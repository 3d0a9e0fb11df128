package coupons

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Resolution is the effect of a coupon on a subtotal.
type Resolution struct {
	Code         string
	Type         enums.CouponType
	Value        decimal.Decimal
	Description  *string
	Discount     decimal.Decimal
	FreeShipping bool
}

// ResolutionDTO is the public shape returned by coupon validation.
type ResolutionDTO struct {
	Code         string           `json:"code"`
	Type         enums.CouponType `json:"type"`
	Value        types.Money      `json:"value"`
	Description  *string          `json:"description,omitempty"`
	Discount     types.Money      `json:"discount"`
	FreeShipping bool             `json:"freeShipping"`
}

func (r Resolution) DTO() ResolutionDTO {
	return ResolutionDTO{
		Code:         r.Code,
		Type:         r.Type,
		Value:        types.NewMoney(r.Value),
		Description:  r.Description,
		Discount:     types.NewMoney(r.Discount),
		FreeShipping: r.FreeShipping,
	}
}

// Resolver looks up coupon codes and computes discounts.
type Resolver interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*Resolution, error)
}

type resolver struct {
	repo *Repository
}

func NewResolver(repository *Repository) (Resolver, error) {
	if repository == nil {
		return nil, errors.New("coupon repository required")
	}
	return &resolver{repo: repository}, nil
}

// Resolve returns NOT_FOUND for unknown or inactive codes.
func (r *resolver) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*Resolution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}
	coupon, err := r.repo.FindActiveByCode(ctx, code)
	if err != nil {
		return nil, repo.Classify(err, "coupon not found", "load coupon")
	}
	res := Apply(*coupon, subtotal)
	return &res, nil
}

// Apply computes the discount of coupon on subtotal. Fixed discounts are
// clamped to the subtotal so totals never go negative.
func Apply(coupon models.Coupon, subtotal decimal.Decimal) Resolution {
	res := Resolution{
		Code:        coupon.Code,
		Type:        coupon.Type,
		Value:       coupon.Value,
		Description: coupon.Description,
		Discount:    decimal.Zero,
	}
	switch coupon.Type {
	case enums.CouponTypePercentage:
		res.Discount = subtotal.Mul(coupon.Value).Div(hundred).Round(2)
	case enums.CouponTypeFixed:
		res.Discount = decimal.Min(coupon.Value, subtotal).Round(2)
	case enums.CouponTypeFreeShipping:
		res.FreeShipping = true
	}
	if res.Discount.GreaterThan(subtotal) {
		res.Discount = subtotal
	}
	if res.Discount.IsNegative() {
		res.Discount = decimal.Zero
	}
	return res
}
