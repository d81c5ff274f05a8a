package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestSpecialPrice(t *testing.T) {
	cases := []struct {
		name       string
		priceMinor int64
		discount   float64
		want       int64
	}{
		{name: "no discount", priceMinor: 10000, discount: 0, want: 10000},
		{name: "ten percent", priceMinor: 10000, discount: 10, want: 9000},
		{name: "rounded to minor unit", priceMinor: 999, discount: 25, want: 749},
		{name: "full discount", priceMinor: 10000, discount: 100, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.SpecialPrice(tc.priceMinor, tc.discount)
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestProductValidate(t *testing.T) {
	product := domain.Product{ID: "p-1", Name: "Keyboard", AvailableQty: 5, PriceMinor: 10000, SpecialPriceMinor: 9000}
	if errs := product.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid product, got %v", errs)
	}

	product.AvailableQty = -1
	if errs := product.Validate(); len(errs) == 0 {
		t.Fatal("expected error for negative stock")
	}
}
