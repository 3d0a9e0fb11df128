package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type lineRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=1,max=99"`
}

type orderRequest struct {
	Items []lineRequest `json:"items" validate:"required,min=1,dive"`
	Notes string        `json:"notes,omitempty" validate:"max=10"`
}

func decode(t *testing.T, body string) (orderRequest, error) {
	t.Helper()
	var dest orderRequest
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return dest, DecodeJSONBody(req, &dest)
}

func detailsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, _ := typed.Details().(map[string]string)
	return details
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	_, err := decode(t, `{"items":[{"productId":"nope","quantity":0}],"notes":"way too long for this"}`)
	details := detailsOf(t, err)

	assert.Equal(t, "must be a valid uuid", details["items[0].productId"])
	assert.Equal(t, "must be at least 1", details["items[0].quantity"])
	assert.Equal(t, "must be at most 10", details["notes"])
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"unknown":  `{"items":[],"coupon":"X"}`,
		"trailing": `{"items":[{"productId":"7f1c7f4e-4a43-4c62-9a0c-3f5c7d2b9a10","quantity":1}]} {}`,
		"oversize": `{"notes":"` + strings.Repeat("a", MaxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode(t, body)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	got, err := decode(t, `{"items":[{"productId":"7f1c7f4e-4a43-4c62-9a0c-3f5c7d2b9a10","quantity":3}]}`)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Items[0].Quantity)
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500&inStock=true&minPrice=-1&maxPrice=19.99&threshold=", nil)

	page, err := ParseQueryInt(req, "page", 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	_, err = ParseQueryInt(req, "limit", 20, 1, 100)
	assert.Error(t, err)

	inStock, err := ParseQueryBool(req, "inStock")
	require.NoError(t, err)
	require.NotNil(t, inStock)
	assert.True(t, *inStock)

	_, err = ParseQueryDecimal(req, "minPrice")
	assert.Error(t, err)
	maxPrice, err := ParseQueryDecimal(req, "maxPrice")
	require.NoError(t, err)
	assert.Equal(t, "19.99", maxPrice.String())

	threshold, err := ParseQueryIntPtr(req, "threshold", 0, 10)
	require.NoError(t, err)
	assert.Nil(t, threshold)
}

func TestURLParamUUID(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("orderId", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	_, err := URLParamUUID(withParam("not-a-uuid"), "orderId")
	assert.Equal(t, "orderId", detailsField(t, err))

	id, err := URLParamUUID(withParam("7f1c7f4e-4a43-4c62-9a0c-3f5c7d2b9a10"), "orderId")
	require.NoError(t, err)
	assert.Equal(t, "7f1c7f4e-4a43-4c62-9a0c-3f5c7d2b9a10", id.String())
}

func detailsField(t *testing.T, err error) any {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, _ := typed.Details().(map[string]any)
	return details["field"]
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hel\x00lo \n", 0))
	assert.Equal(t, "héll", SanitizeString("héllo", 4))
	assert.Equal(t, "", SanitizeString("   ", 10))
}
