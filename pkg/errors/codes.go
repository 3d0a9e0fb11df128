package errors

import "net/http"

// Code is the stable, machine readable error identifier sent to clients.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Catalog and stock failures surface to clients as bad requests.
	CodeOutOfStock        Code = "OUT_OF_STOCK"
	CodeUnavailable       Code = "PRODUCT_UNAVAILABLE"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
)

// Metadata is how a code is rendered over HTTP. PublicMessage is used when
// the error itself carries no message, and always for 5xx.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

type metaOpt func(*Metadata)

var (
	retryable   metaOpt = func(m *Metadata) { m.Retryable = true }
	withDetails metaOpt = func(m *Metadata) { m.DetailsAllowed = true }
)

func meta(status int, public string, opts ...metaOpt) Metadata {
	m := Metadata{HTTPStatus: status, PublicMessage: public}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        meta(http.StatusBadRequest, "validation failed", withDetails),
	CodeUnauthorized:      meta(http.StatusUnauthorized, "authentication required"),
	CodeForbidden:         meta(http.StatusForbidden, "access denied"),
	CodeNotFound:          meta(http.StatusNotFound, "resource not found"),
	CodeConflict:          meta(http.StatusConflict, "conflict detected"),
	CodeStateConflict:     meta(http.StatusBadRequest, "state transition disallowed", withDetails),
	CodeOutOfStock:        meta(http.StatusBadRequest, "product out of stock", withDetails),
	CodeUnavailable:       meta(http.StatusBadRequest, "product unavailable", withDetails),
	CodeInsufficientStock: meta(http.StatusBadRequest, "insufficient stock", withDetails),
	CodeIdempotency:       meta(http.StatusConflict, "idempotency key reused", withDetails),
	CodeRateLimit:         meta(http.StatusTooManyRequests, "rate limit exceeded"),
	CodeInternal:          meta(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:        meta(http.StatusServiceUnavailable, "dependency unavailable", retryable, withDetails),
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// IsClientError reports whether the code maps to a 4xx response.
func IsClientError(code Code) bool {
	status := MetadataFor(code).HTTPStatus
	return status >= 400 && status < 500
}
