package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/checkout"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

const (
	testEmail   = "buyer@example.com"
	testUserID  = "buyer-1"
	testAddress = "addr-1"
)

var testPayment = checkout.PaymentDetails{
	Method:           "card",
	GatewayName:      "stripe",
	GatewayPaymentID: "pi_123",
	GatewayStatus:    "succeeded",
	GatewayMessage:   "ok",
}

type fixture struct {
	svc    *checkout.Service
	store  *memory.Store
	carts  domain.CartRepository
	outbox domain.OutboxRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	carts := memory.NewCartRepository(store)
	outbox := memory.NewOutboxRepository()

	if err := memory.NewAddressRepository(store).Create(domain.Address{
		ID: testAddress, Street: "1 Main St", City: "Springfield",
		State: "IL", Country: "US", Pincode: "62704",
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create address: %v", err)
	}

	svc := checkout.NewServiceWithoutMetrics(
		carts,
		memory.NewAddressRepository(store),
		memory.NewOrderRepository(store),
		memory.NewCheckoutStore(store, outbox),
		nil,
	)
	return &fixture{svc: svc, store: store, carts: carts, outbox: outbox}
}

// seedCartWithStock кладёт товар на склад и собирает корзину с одной позицией.
func (f *fixture) seedCartWithStock(t *testing.T, productID string, stock, qty int32, priceMinor int64) domain.Cart {
	t.Helper()

	now := time.Now().UTC()
	if err := memory.NewProductRepository(f.store).Create(domain.Product{
		ID: productID, Name: "product-" + productID,
		AvailableQty: stock, PriceMinor: priceMinor,
		SpecialPriceMinor: priceMinor,
		CreatedAt:         now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	cart := domain.Cart{
		ID:     "cart-" + productID,
		UserID: testUserID,
		Email:  testEmail,
		Items: []domain.CartItem{{
			ID: "item-" + productID, ProductID: productID,
			ProductName: "product-" + productID,
			Qty:         qty, PriceMinor: priceMinor, AddedAt: now,
		}},
		TotalMinor: int64(qty) * priceMinor,
		CreatedAt:  now, UpdatedAt: now,
	}
	if err := f.carts.Create(cart); err != nil {
		t.Fatalf("create cart: %v", err)
	}
	return cart
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	f.seedCartWithStock(t, "p1", 10, 3, 7500)

	order, err := f.svc.PlaceOrder(context.Background(), testEmail, testAddress, testPayment)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if order.Status != domain.OrderStatusAccepted {
		t.Errorf("status = %q, want %q", order.Status, domain.OrderStatusAccepted)
	}
	if order.TotalMinor != 22500 {
		t.Errorf("total = %d, want 22500", order.TotalMinor)
	}
	if len(order.Items) != 1 || order.Items[0].Qty != 3 {
		t.Fatalf("items = %+v, want one line of qty 3", order.Items)
	}
	if order.Payment.OrderID != order.ID {
		t.Errorf("payment order id = %q, want %q", order.Payment.OrderID, order.ID)
	}
	if order.Payment.GatewayPaymentID != "pi_123" {
		t.Errorf("gateway payment id = %q, want pi_123", order.Payment.GatewayPaymentID)
	}

	// Остаток списан.
	product, err := memory.NewProductRepository(f.store).Get("p1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.AvailableQty != 7 {
		t.Errorf("stock = %d, want 7", product.AvailableQty)
	}

	// Корзина очищена, но существует.
	cart, err := f.carts.GetByEmail(testEmail)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(cart.Items) != 0 || cart.TotalMinor != 0 {
		t.Errorf("cart not cleared: items=%d total=%d", len(cart.Items), cart.TotalMinor)
	}

	// Событие поставлено в outbox.
	pending, err := f.outbox.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending events = %d, want 1", len(pending))
	}
	if pending[0].EventType != checkout.EventOrderPlaced {
		t.Errorf("event type = %q, want %q", pending[0].EventType, checkout.EventOrderPlaced)
	}
	if pending[0].AggregateID != order.ID {
		t.Errorf("aggregate id = %q, want %q", pending[0].AggregateID, order.ID)
	}

	// Заказ читается обратно.
	got, err := f.svc.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.TotalMinor != order.TotalMinor {
		t.Errorf("stored total = %d, want %d", got.TotalMinor, order.TotalMinor)
	}
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		address string
		payment checkout.PaymentDetails
		seed    bool
		wantErr error
	}{
		{name: "empty email", email: "", address: testAddress, payment: testPayment, seed: true, wantErr: domain.ErrEmailRequired},
		{name: "missing payment method", email: testEmail, address: testAddress, payment: checkout.PaymentDetails{}, seed: true, wantErr: domain.ErrPaymentMethodRequired},
		{name: "unknown address", email: testEmail, address: "nope", payment: testPayment, seed: true, wantErr: domain.ErrAddressNotFound},
		{name: "no cart for email", email: "stranger@example.com", address: testAddress, payment: testPayment, seed: false, wantErr: domain.ErrCartNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.seed {
				f.seedCartWithStock(t, "p1", 10, 1, 1000)
			}

			_, err := f.svc.PlaceOrder(context.Background(), tt.email, tt.address, tt.payment)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PlaceOrder error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	if err := f.carts.Create(domain.Cart{
		ID: "cart-empty", UserID: testUserID, Email: testEmail,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create cart: %v", err)
	}

	_, err := f.svc.PlaceOrder(context.Background(), testEmail, testAddress, testPayment)
	if !errors.Is(err, domain.ErrCartEmpty) {
		t.Fatalf("PlaceOrder error = %v, want %v", err, domain.ErrCartEmpty)
	}
}

func TestPlaceOrder_InsufficientStockRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	// В корзине 5 единиц, но на складе осталось 2: конкурентное оформление
	// успело выкупить товар после наполнения корзины.
	f.seedCartWithStock(t, "p1", 2, 5, 1000)

	_, err := f.svc.PlaceOrder(context.Background(), testEmail, testAddress, testPayment)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("PlaceOrder error = %v, want %v", err, domain.ErrInsufficientStock)
	}

	// Ничего не изменилось: остаток, корзина, заказы, outbox.
	product, _ := memory.NewProductRepository(f.store).Get("p1")
	if product.AvailableQty != 2 {
		t.Errorf("stock = %d, want 2", product.AvailableQty)
	}
	cart, _ := f.carts.GetByEmail(testEmail)
	if len(cart.Items) != 1 || cart.TotalMinor != 5000 {
		t.Errorf("cart mutated: items=%d total=%d", len(cart.Items), cart.TotalMinor)
	}
	if orders, _ := f.svc.ListOrders(context.Background(), testEmail, 10); len(orders) != 0 {
		t.Errorf("orders = %d, want 0", len(orders))
	}
	if pending, _ := f.outbox.PullPending(10); len(pending) != 0 {
		t.Errorf("pending events = %d, want 0", len(pending))
	}
}

// failingStore всегда отклоняет коммит.
type failingStore struct{ err error }

func (f *failingStore) Commit(domain.Checkout) error { return f.err }

func TestPlaceOrder_CommitFailureReturnsError(t *testing.T) {
	store := memory.NewStore()
	carts := memory.NewCartRepository(store)
	if err := memory.NewAddressRepository(store).Create(domain.Address{ID: testAddress}); err != nil {
		t.Fatalf("create address: %v", err)
	}
	now := time.Now().UTC()
	if err := carts.Create(domain.Cart{
		ID: "c1", UserID: testUserID, Email: testEmail,
		Items: []domain.CartItem{{
			ID: "i1", ProductID: "p1", ProductName: "p", Qty: 1, PriceMinor: 100, AddedAt: now,
		}},
		TotalMinor: 100, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create cart: %v", err)
	}

	boom := errors.New("commit failed")
	svc := checkout.NewServiceWithoutMetrics(
		carts,
		memory.NewAddressRepository(store),
		memory.NewOrderRepository(store),
		&failingStore{err: boom},
		nil,
	)

	_, err := svc.PlaceOrder(context.Background(), testEmail, testAddress, testPayment)
	if !errors.Is(err, boom) {
		t.Fatalf("PlaceOrder error = %v, want %v", err, boom)
	}
}

func TestPlaceOrder_SnapshotImmutability(t *testing.T) {
	f := newFixture(t)
	f.seedCartWithStock(t, "p1", 10, 2, 5000)

	order, err := f.svc.PlaceOrder(context.Background(), testEmail, testAddress, testPayment)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	// Меняем цену товара после оформления.
	products := memory.NewProductRepository(f.store)
	product, err := products.Get("p1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	product.PriceMinor = 99999
	product.SpecialPriceMinor = 99999
	if err := products.Save(product); err != nil {
		t.Fatalf("save product: %v", err)
	}

	got, err := f.svc.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Items[0].PriceMinor != 5000 || got.TotalMinor != 10000 {
		t.Errorf("order snapshot changed: price=%d total=%d", got.Items[0].PriceMinor, got.TotalMinor)
	}
}

// conflictOnceStore возвращает конфликт версии на первом коммите,
// дальше делегирует реальному хранилищу.
type conflictOnceStore struct {
	inner domain.CheckoutStore
	fired bool
}

func (c *conflictOnceStore) Commit(ch domain.Checkout) error {
	if !c.fired {
		c.fired = true
		return domain.ErrCartVersionConflict
	}
	return c.inner.Commit(ch)
}

func TestPlaceOrder_RetriesOnVersionConflict(t *testing.T) {
	f := newFixture(t)
	f.seedCartWithStock(t, "p1", 10, 1, 1000)

	svc := checkout.NewServiceWithoutMetrics(
		f.carts,
		memory.NewAddressRepository(f.store),
		memory.NewOrderRepository(f.store),
		&conflictOnceStore{inner: memory.NewCheckoutStore(f.store, f.outbox)},
		nil,
	)

	order, err := svc.PlaceOrder(context.Background(), testEmail, testAddress, testPayment)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.TotalMinor != 1000 {
		t.Errorf("total = %d, want 1000", order.TotalMinor)
	}
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	f.seedCartWithStock(t, "p1", 10, 1, 1000)

	if _, err := f.svc.PlaceOrder(context.Background(), testEmail, testAddress, testPayment); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	orders, err := f.svc.ListOrders(context.Background(), testEmail, 10)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
	if orders[0].Email != testEmail {
		t.Errorf("email = %q, want %q", orders[0].Email, testEmail)
	}
}
