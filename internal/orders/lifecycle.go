package orders

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// transitions is the only source of allowed status moves, shared by the
// customer cancel path and the admin update path.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered: {enums.OrderStatusRefunded},
	enums.OrderStatusCancelled: nil,
	enums.OrderStatusRefunded:  nil,
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the statuses reachable from status.
func AllowedTransitions(status enums.OrderStatus) []enums.OrderStatus {
	return append([]enums.OrderStatus(nil), transitions[status]...)
}

func checkTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", to)
	}
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, to).
		WithDetails(map[string]any{"from": from, "to": to, "allowed": AllowedTransitions(from)})
}

// paymentAfter derives the payment status side effect of entering status.
func paymentAfter(status enums.OrderStatus, method enums.PaymentMethod, current enums.PaymentStatus) enums.PaymentStatus {
	switch {
	case status == enums.OrderStatusRefunded:
		return enums.PaymentStatusRefunded
	case status == enums.OrderStatusDelivered && method == enums.PaymentMethodCashOnDelivery:
		return enums.PaymentStatusPaid
	default:
		return current
	}
}
