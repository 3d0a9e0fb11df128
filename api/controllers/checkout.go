package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type quoteRequest struct {
	Items      []pkgcheckout.LineInput `json:"items" validate:"required,min=1,max=100,dive"`
	CouponCode string                  `json:"couponCode,omitempty" validate:"omitempty,max=64"`
}

func (q quoteRequest) toInput() checkout.QuoteInput {
	return checkout.QuoteInput{Items: q.Items, CouponCode: q.CouponCode}
}

// Prices are never accepted from the client; only product ids and quantities.
type createOrderRequest struct {
	quoteRequest
	PaymentMethod     string                 `json:"paymentMethod" validate:"required"`
	ShippingAddressID *uuid.UUID             `json:"shippingAddressId,omitempty"`
	ShippingAddress   *types.AddressSnapshot `json:"shippingAddress,omitempty"`
	BillingAddress    *types.AddressSnapshot `json:"billingAddress,omitempty"`
	CustomerNotes     *string                `json:"customerNotes,omitempty" validate:"omitempty,max=1000"`
	ClearCart         bool                   `json:"clearCart"`
}

func (c createOrderRequest) toInput() checkout.Input {
	return checkout.Input{
		QuoteInput:        c.quoteRequest.toInput(),
		PaymentMethod:     enums.PaymentMethod(c.PaymentMethod),
		ShippingAddressID: c.ShippingAddressID,
		ShippingAddress:   c.ShippingAddress,
		BillingAddress:    c.BillingAddress,
		CustomerNotes:     c.CustomerNotes,
		ClearCart:         c.ClearCart,
	}
}

// CheckoutQuote prices a prospective order without writing anything.
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout"))
			return
		}
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Quote(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// OrderCreate places an order. Replays are handled by middleware.Idempotency.
func OrderCreate(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout"))
			return
		}
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithOrderID(r.Context(), order.ID.String()), "order.placed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
