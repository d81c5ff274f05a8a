package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Store — общее in-memory состояние магазина для локальной разработки и тестов.
// Репозитории этого пакета являются представлениями поверх одного Store:
// коммит оформления заказа затрагивает товары, корзину и заказы разом,
// поэтому им нужен один mutex на всё состояние.
type Store struct {
	mu          sync.RWMutex
	products    map[string]domain.Product
	carts       map[string]domain.Cart
	cartByUser  map[string]string
	cartByEmail map[string]string
	orders      map[string]domain.Order
	addresses   map[string]domain.Address
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		products:    make(map[string]domain.Product),
		carts:       make(map[string]domain.Cart),
		cartByUser:  make(map[string]string),
		cartByEmail: make(map[string]string),
		orders:      make(map[string]domain.Order),
		addresses:   make(map[string]domain.Address),
	}
}

// cloneCart копирует корзину вместе со срезом позиций, чтобы избежать
// непредсказуемых мутаций извне.
func cloneCart(src domain.Cart) domain.Cart {
	dst := src
	dst.Items = append([]domain.CartItem(nil), src.Items...)
	return dst
}

// cloneOrder копирует заказ вместе с позициями.
func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Items = append([]domain.OrderItem(nil), src.Items...)
	return dst
}

// CommitCheckout атомарно фиксирует оформление заказа: все проверки идут
// до первой мутации, поэтому любой отказ оставляет состояние нетронутым.
// Остатки перепроверяются здесь же: конкурентное оформление, выкупившее
// товар после валидации в корзине, приводит к ErrInsufficientStock,
// а не к отрицательному остатку.
func (s *Store) CommitCheckout(c domain.Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[c.CartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	if cart.Version != c.CartVersion {
		return domain.ErrCartVersionConflict
	}
	if len(c.Order.Items) == 0 {
		return domain.ErrCartEmpty
	}
	if errs := c.Order.ValidateInvariants(); len(errs) > 0 {
		return errs[0]
	}
	if _, exists := s.orders[c.Order.ID]; exists {
		return domain.ErrCartVersionConflict
	}

	for _, item := range c.Order.Items {
		product, ok := s.products[item.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		if product.AvailableQty < item.Qty {
			return domain.ErrInsufficientStock
		}
	}

	// Все проверки пройдены — применяем.
	now := time.Now().UTC()
	for _, item := range c.Order.Items {
		product := s.products[item.ProductID]
		product.AvailableQty -= item.Qty
		product.UpdatedAt = now
		s.products[item.ProductID] = product
	}

	s.orders[c.Order.ID] = cloneOrder(c.Order)

	cart.Items = nil
	cart.TotalMinor = 0
	cart.Version++
	cart.UpdatedAt = now
	s.carts[cart.ID] = cart

	return nil
}

var _ domain.CheckoutStore = (*checkoutStore)(nil)

// checkoutStore связывает CommitCheckout с постановкой события в outbox.
type checkoutStore struct {
	store  *Store
	outbox domain.OutboxRepository
}

// NewCheckoutStore возвращает in-memory реализацию CheckoutStore.
// Репозиторий outbox опционален: без него события просто не ставятся.
func NewCheckoutStore(store *Store, outbox domain.OutboxRepository) domain.CheckoutStore {
	return &checkoutStore{store: store, outbox: outbox}
}

func (cs *checkoutStore) Commit(c domain.Checkout) error {
	if err := cs.store.CommitCheckout(c); err != nil {
		return err
	}
	if cs.outbox != nil && c.Event.EventType != "" {
		if _, err := cs.outbox.Enqueue(c.Event); err != nil {
			// Состояние уже зафиксировано; потерянное событие — проблема
			// доставки, а не целостности заказа.
			return nil
		}
	}
	return nil
}
