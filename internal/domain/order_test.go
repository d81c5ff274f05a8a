package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:         "order-1",
		Email:      "user@example.com",
		Status:     domain.OrderStatusAccepted,
		TotalMinor: 500,
		AddressID:  "addr-1",
		Payment: domain.Payment{
			ID:          "pay-1",
			OrderID:     "order-1",
			Method:      "card",
			GatewayName: "stripe",
		},
		Items: []domain.OrderItem{
			{
				ID:          "item-1",
				ProductID:   "p-1",
				ProductName: "Keyboard",
				Qty:         5,
				PriceMinor:  100,
				CreatedAt:   now,
			},
		},
		PlacedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no email",
			mut: func(o *domain.Order) {
				o.Email = ""
			},
		},
		{
			name: "no items",
			mut: func(o *domain.Order) {
				o.Items = nil
			},
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Items[0].Qty = 0
			},
		},
		{
			name: "price invalid",
			mut: func(o *domain.Order) {
				o.Items[0].PriceMinor = -5
			},
		},
		{
			name: "total mismatch",
			mut: func(o *domain.Order) {
				o.TotalMinor = 999
			},
		},
		{
			name: "payment without method",
			mut: func(o *domain.Order) {
				o.Payment.Method = ""
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			if len(order.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestPaymentValidate(t *testing.T) {
	payment := domain.Payment{OrderID: "order-1", Method: "card"}
	if errs := payment.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid payment, got %v", errs)
	}

	payment.OrderID = ""
	if errs := payment.Validate(); len(errs) == 0 {
		t.Fatal("expected error for payment without order")
	}
}
