package postgres

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func seedCheckoutFixture(t *testing.T, store *Store, qty int32) (domain.Cart, domain.Product) {
	t.Helper()

	product := seedProductForIntegrationTest(t, store, "prod-co", 10, 10000, 25)

	if err := NewAddressRepository(store).Create(domain.Address{
		ID:      "addr-co",
		Street:  "1 Main St",
		City:    "Springfield",
		State:   "IL",
		Country: "US",
		Pincode: "62701",
	}); err != nil {
		t.Fatalf("seed address: %v", err)
	}

	cart := domain.Cart{
		ID:     "cart-co",
		UserID: "user-co",
		Email:  "buyer@example.com",
		Items: []domain.CartItem{{
			ID:          "item-co",
			ProductID:   product.ID,
			ProductName: product.Name,
			Qty:         qty,
			PriceMinor:  product.SpecialPriceMinor,
			DiscountPct: product.DiscountPct,
			AddedAt:     time.Now().UTC(),
		}},
		TotalMinor: int64(qty) * product.SpecialPriceMinor,
	}
	if err := NewCartRepository(store).Create(cart); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	return cart, product
}

func buildCheckout(cart domain.Cart, orderID string) domain.Checkout {
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, domain.OrderItem{
			ID:          "oi-" + item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Qty:         item.Qty,
			DiscountPct: item.DiscountPct,
			PriceMinor:  item.PriceMinor,
		})
	}

	payload, _ := json.Marshal(map[string]any{"order_id": orderID, "email": cart.Email})

	return domain.Checkout{
		Order: domain.Order{
			ID:         orderID,
			Email:      cart.Email,
			Status:     domain.OrderStatusAccepted,
			TotalMinor: cart.TotalMinor,
			AddressID:  "addr-co",
			Items:      items,
			Payment: domain.Payment{
				ID:      "pay-" + orderID,
				OrderID: orderID,
				Method:  "card",
			},
			PlacedAt: time.Now().UTC(),
		},
		CartID:      cart.ID,
		CartVersion: cart.Version,
		Event: domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   orderID,
			EventType:     "order.placed",
			Payload:       payload,
		},
	}
}

func TestCheckoutStore_CommitPlacesOrderAtomically(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	cart, product := seedCheckoutFixture(t, store, 3)

	if err := NewCheckoutStore(store).Commit(buildCheckout(cart, "order-co-1")); err != nil {
		t.Fatalf("commit checkout: %v", err)
	}

	order, err := NewOrderRepository(store).Get("order-co-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.TotalMinor != cart.TotalMinor {
		t.Fatalf("expected order total %d, got %d", cart.TotalMinor, order.TotalMinor)
	}
	if len(order.Items) != 1 || order.Items[0].ProductID != product.ID {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if order.Payment.Method != "card" {
		t.Fatalf("expected payment loaded with order, got %+v", order.Payment)
	}

	stocked, err := NewProductRepository(store).Get(product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if stocked.AvailableQty != 7 {
		t.Fatalf("expected stock debited to 7, got %d", stocked.AvailableQty)
	}

	cleared, err := NewCartRepository(store).Get(cart.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(cleared.Items) != 0 || cleared.TotalMinor != 0 {
		t.Fatalf("expected cart cleared, got items=%d total=%d", len(cleared.Items), cleared.TotalMinor)
	}
	if cleared.Version != cart.Version+1 {
		t.Fatalf("expected cart version bumped to %d, got %d", cart.Version+1, cleared.Version)
	}

	pending, err := NewOutboxRepository(store).PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "order.placed" {
		t.Fatalf("expected one order.placed event, got %+v", pending)
	}
}

func TestCheckoutStore_InsufficientStockRollsBackEverything(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	cart, product := seedCheckoutFixture(t, store, 3)

	// Конкурент выкупает почти весь остаток до коммита.
	products := NewProductRepository(store)
	depleted, err := products.Get(product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	depleted.AvailableQty = 2
	if err := products.Save(depleted); err != nil {
		t.Fatalf("deplete stock: %v", err)
	}

	err = NewCheckoutStore(store).Commit(buildCheckout(cart, "order-co-2"))
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if _, err := NewOrderRepository(store).Get("order-co-2"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order rolled back, got %v", err)
	}

	untouched, err := NewCartRepository(store).Get(cart.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(untouched.Items) != 1 || untouched.Version != cart.Version {
		t.Fatalf("expected cart untouched, got items=%d version=%d", len(untouched.Items), untouched.Version)
	}

	pending, err := NewOutboxRepository(store).PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no outbox events, got %d", len(pending))
	}
}

func TestCheckoutStore_StaleCartVersionConflicts(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	cart, _ := seedCheckoutFixture(t, store, 2)

	checkout := buildCheckout(cart, "order-co-3")
	checkout.CartVersion = cart.Version + 5

	err := NewCheckoutStore(store).Commit(checkout)
	if !errors.Is(err, domain.ErrCartVersionConflict) {
		t.Fatalf("expected ErrCartVersionConflict, got %v", err)
	}

	if _, err := NewOrderRepository(store).Get("order-co-3"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order rolled back, got %v", err)
	}
}

func TestCheckoutStore_UnknownCartFails(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	cart, _ := seedCheckoutFixture(t, store, 1)

	checkout := buildCheckout(cart, "order-co-4")
	checkout.CartID = "cart-missing"

	err := NewCheckoutStore(store).Commit(checkout)
	if !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestOrderRepository_ListByEmail(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	cart, product := seedCheckoutFixture(t, store, 1)
	checkoutStore := NewCheckoutStore(store)

	if err := checkoutStore.Commit(buildCheckout(cart, "order-list-1")); err != nil {
		t.Fatalf("commit first order: %v", err)
	}

	// Корзина после оформления очищена, но жива: наполняем её заново
	// для второго заказа того же покупателя.
	carts := NewCartRepository(store)
	second, err := carts.Get(cart.ID)
	if err != nil {
		t.Fatalf("get cleared cart: %v", err)
	}
	second.Items = []domain.CartItem{{
		ID:          "item-co-2",
		ProductID:   product.ID,
		ProductName: product.Name,
		Qty:         2,
		PriceMinor:  product.SpecialPriceMinor,
		DiscountPct: product.DiscountPct,
		AddedAt:     time.Now().UTC(),
	}}
	second.TotalMinor = 2 * product.SpecialPriceMinor
	if err := carts.Save(second); err != nil {
		t.Fatalf("refill cart: %v", err)
	}
	second.Version++

	co := buildCheckout(second, "order-list-2")
	co.Order.PlacedAt = time.Now().UTC().Add(time.Second)
	if err := checkoutStore.Commit(co); err != nil {
		t.Fatalf("commit second order: %v", err)
	}

	orders, err := NewOrderRepository(store).ListByEmail(cart.Email, 0)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != "order-list-2" {
		t.Fatalf("expected newest order first, got %s", orders[0].ID)
	}

	limited, err := NewOrderRepository(store).ListByEmail(cart.Email, 1)
	if err != nil {
		t.Fatalf("list orders with limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "order-list-2" {
		t.Fatalf("unexpected limited listing: %+v", limited)
	}

	none, err := NewOrderRepository(store).ListByEmail("nobody@example.com", 0)
	if err != nil {
		t.Fatalf("list orders for unknown email: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty listing, got %d", len(none))
	}
}
