package checkout

import (
	"regexp"
	"testing"
	"time"
)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.UnixMilli(1760000000123)
	got, err := NewOrderNumber(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !regexp.MustCompile(`^ORD-1760000000123-[0-9A-Z]{5}$`).MatchString(got) {
		t.Fatalf("unexpected order number %q", got)
	}
}
