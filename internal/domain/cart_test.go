package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// helper для создания корзины с двумя позициями и сходящейся суммой.
func makeCart() domain.Cart {
	now := time.Now().UTC()
	return domain.Cart{
		ID:     "cart-1",
		UserID: "user-1",
		Email:  "user@example.com",
		Items: []domain.CartItem{
			{ID: "ci-1", ProductID: "p-1", ProductName: "Keyboard", Qty: 2, PriceMinor: 10000, AddedAt: now},
			{ID: "ci-2", ProductID: "p-2", ProductName: "Mouse", Qty: 1, PriceMinor: 5000, AddedAt: now},
		},
		TotalMinor: 25000,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCartValidateInvariants_Ok(t *testing.T) {
	cart := makeCart()
	if errs := cart.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestCartValidateInvariants_EmptyCartOk(t *testing.T) {
	// Пустая корзина с нулевой суммой — валидное состояние.
	cart := makeCart()
	cart.Items = nil
	cart.TotalMinor = 0
	if errs := cart.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected empty cart to be valid, got %v", errs)
	}
}

func TestCartValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(c *domain.Cart)
	}{
		{
			name: "no owner",
			mut: func(c *domain.Cart) {
				c.UserID = ""
			},
		},
		{
			name: "total drifted",
			mut: func(c *domain.Cart) {
				c.TotalMinor = 24999
			},
		},
		{
			name: "zero qty item",
			mut: func(c *domain.Cart) {
				c.Items[0].Qty = 0
			},
		},
		{
			name: "negative price",
			mut: func(c *domain.Cart) {
				c.Items[1].PriceMinor = -1
			},
		},
		{
			name: "duplicate product line",
			mut: func(c *domain.Cart) {
				c.Items[1].ProductID = c.Items[0].ProductID
			},
		},
		{
			name: "negative total",
			mut: func(c *domain.Cart) {
				c.TotalMinor = -100
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cart := makeCart()
			tc.mut(&cart)
			if len(cart.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestCartItemByProduct(t *testing.T) {
	cart := makeCart()

	item, ok := cart.ItemByProduct("p-2")
	if !ok {
		t.Fatal("expected item for p-2")
	}
	if item.Qty != 1 {
		t.Fatalf("expected qty 1, got %d", item.Qty)
	}

	if _, ok := cart.ItemByProduct("missing"); ok {
		t.Fatal("expected no item for unknown product")
	}
}

func TestCartItemsSum(t *testing.T) {
	cart := makeCart()
	if sum := cart.ItemsSum(); sum != 25000 {
		t.Fatalf("expected sum 25000, got %d", sum)
	}
}
