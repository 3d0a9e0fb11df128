package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCheckout struct {
	err     error
	created *ordersvc.OrderDTO
	input   checkout.Input
}

func (s *stubCheckout) Create(ctx context.Context, userID uuid.UUID, input checkout.Input) (*ordersvc.OrderDTO, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *stubCheckout) Quote(ctx context.Context, userID uuid.UUID, input checkout.QuoteInput) (*checkout.QuoteDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.QuoteDTO{}, nil
}

func orderBody(productID uuid.UUID) string {
	return fmt.Sprintf(`{
		"items":[{"productId":%q,"quantity":2}],
		"paymentMethod":"card",
		"shippingAddress":{"fullName":"Ada Lovelace","line1":"1 Main St","city":"Springfield","postalCode":"12345","country":"US"}
	}`, productID)
}

func TestOrderCreateMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   pkgerrors.Code
	}{
		{
			name:   "insufficient stock",
			err:    pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for Lamp").WithDetails(map[string]any{"available": 1}),
			status: http.StatusBadRequest,
			code:   pkgerrors.CodeInsufficientStock,
		},
		{
			name:   "unknown product",
			err:    pkgerrors.New(pkgerrors.CodeNotFound, "product not found"),
			status: http.StatusNotFound,
			code:   pkgerrors.CodeNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCheckout{err: tc.err}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(orderBody(uuid.New())))
			req = withCaller(req, uuid.New(), nil)

			resp := httptest.NewRecorder()
			OrderCreate(stub, nil).ServeHTTP(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
			if code := decodeErrorCode(t, resp); code != string(tc.code) {
				t.Fatalf("unexpected error code %q", code)
			}
		})
	}
}

func TestCheckoutQuoteMapsServiceErrors(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeInsufficientStock: http.StatusBadRequest,
		pkgerrors.CodeNotFound:          http.StatusNotFound,
	}
	for code, status := range cases {
		stub := &stubCheckout{err: pkgerrors.New(code, "rejected")}
		body := fmt.Sprintf(`{"items":[{"productId":%q,"quantity":1}]}`, uuid.New())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(body))
		req = withCaller(req, uuid.New(), nil)

		resp := httptest.NewRecorder()
		CheckoutQuote(stub, nil).ServeHTTP(resp, req)

		if resp.Code != status {
			t.Fatalf("%s: expected %d got %d", code, status, resp.Code)
		}
		if got := decodeErrorCode(t, resp); got != string(code) {
			t.Fatalf("%s: unexpected error code %q", code, got)
		}
	}
}

func TestOrderCreateReturnsCreated(t *testing.T) {
	orderID := uuid.New()
	stub := &stubCheckout{created: &ordersvc.OrderDTO{ID: orderID}}
	productID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(orderBody(productID)))
	req = withCaller(req, uuid.New(), nil)

	resp := httptest.NewRecorder()
	OrderCreate(stub, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(stub.input.Items) != 1 || stub.input.Items[0].ProductID != productID || stub.input.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", stub.input.Items)
	}
	if stub.input.ShippingAddress == nil || stub.input.ShippingAddress.FullName != "Ada Lovelace" {
		t.Fatalf("shipping address not forwarded: %+v", stub.input.ShippingAddress)
	}
}

func TestOrderCreateRejectsClientPrices(t *testing.T) {
	stub := &stubCheckout{created: &ordersvc.OrderDTO{ID: uuid.New()}}
	body := fmt.Sprintf(`{"items":[{"productId":%q,"quantity":1,"price":"0.01"}],"paymentMethod":"card"}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = withCaller(req, uuid.New(), nil)

	resp := httptest.NewRecorder()
	OrderCreate(stub, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
