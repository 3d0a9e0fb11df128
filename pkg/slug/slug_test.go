package slug

import (
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"Café Crème 2x", "cafe-creme-2x"},
		{"  Hello,   World!! ", "hello-world"},
		{"Über-Große Tasche", "uber-groe-tasche"},
		{"---", ""},
		{"USB-C Cable (2m)", "usb-c-cable-2m"},
		{"Deluxe_Mug/Set #3", "deluxe-mug-set-3"},
	}
	for _, tc := range cases {
		if got := Make(tc.in); got != tc.want {
			t.Errorf("Make(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMakeTruncates(t *testing.T) {
	t.Parallel()

	got := Make(strings.Repeat("ab ", 100))
	if len(got) > maxLen || strings.HasSuffix(got, "-") {
		t.Fatalf("unexpected truncation %q (%d)", got, len(got))
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	if !Valid("red-shoes") || Valid("Red Shoes") || Valid("") {
		t.Fatalf("unexpected validity results")
	}
}
