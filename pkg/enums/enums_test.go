package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("shipped")
	if err != nil || got != OrderStatusShipped {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range OrderStatuses() {
		want := status == OrderStatusCancelled || status == OrderStatusRefunded
		if status.IsTerminal() != want {
			t.Fatalf("%s terminal mismatch", status)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	if !CouponTypeFreeShipping.IsValid() || CouponType("bogo").IsValid() {
		t.Fatalf("coupon type validity mismatch")
	}
	if !PaymentMethodCashOnDelivery.IsValid() || PaymentMethod("crypto").IsValid() {
		t.Fatalf("payment method validity mismatch")
	}
	if !UserRoleAdmin.IsValid() || UserRole("root").IsValid() {
		t.Fatalf("user role validity mismatch")
	}
	if _, err := ParseProductSort("price_desc"); err != nil {
		t.Fatalf("expected price_desc to parse: %v", err)
	}
	if _, err := ParseOutboxEventType("order_created"); err != nil {
		t.Fatalf("expected order_created to parse: %v", err)
	}
}

func TestParseErrorsNameTheKind(t *testing.T) {
	_, err := ParsePaymentStatus("chargeback")
	if err == nil || err.Error() != `invalid payment status "chargeback"` {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := ParseOutboxAggregateType("cart"); err == nil {
		t.Fatalf("expected cart aggregate to be rejected")
	}
}

func TestOrderStatusesIsACopy(t *testing.T) {
	statuses := OrderStatuses()
	statuses[0] = "mutated"
	if OrderStatuses()[0] != OrderStatusPending {
		t.Fatalf("OrderStatuses leaked its backing slice")
	}
}
