package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

const (
	// Параметры retry при конфликте версий корзины.
	maxRetries = 3
	baseDelay  = 10 * time.Millisecond
)

// Service реализует мутации корзины: добавление товара, изменение
// количества и удаление позиции. Каждая мутация меняет позиции и
// кешированную сумму в одной атомарной записи; конкурентные мутации
// одной корзины сериализуются через optimistic locking с повторами.
type Service struct {
	carts   domain.CartRepository
	catalog domain.CatalogService
	logger  *log.Entry
	metrics *metrics.ShopMetrics
}

// NewService конструирует сервис корзины с зависимостями.
func NewService(carts domain.CartRepository, catalog domain.CatalogService, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart-service")
	}
	return &Service{
		carts:   carts,
		catalog: catalog,
		logger:  logger,
		metrics: metrics.NewShopMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(carts domain.CartRepository, catalog domain.CatalogService, logger *log.Entry) *Service {
	svc := NewService(carts, catalog, logger)
	svc.metrics = nil
	return svc
}

// AddProduct добавляет товар в корзину пользователя, лениво создавая её.
// Добавление — строго первая вставка: повторное добавление того же товара
// возвращает конфликт, изменение количества идёт через UpdateQuantity.
// Цена и скидка фиксируются из текущего состояния каталога; остаток
// при этом не списывается — доступность проверяется, но не удерживается.
func (s *Service) AddProduct(ctx context.Context, user domain.Identity, productID string, qty int32) (domain.Cart, error) {
	start := time.Now()
	cart, err := s.addProduct(ctx, user, productID, qty)
	s.metrics.RecordCartMutation("add", err, time.Since(start))
	return cart, err
}

func (s *Service) addProduct(ctx context.Context, user domain.Identity, productID string, qty int32) (domain.Cart, error) {
	if qty <= 0 {
		return domain.Cart{}, domain.ErrQuantityInvalid
	}

	product, err := s.catalog.Resolve(ctx, productID)
	if err != nil {
		return domain.Cart{}, err
	}

	return s.mutate(
		func() (domain.Cart, error) { return s.loadOrCreateCart(user) },
		func(cart *domain.Cart) error {
			if _, exists := cart.ItemByProduct(product.ID); exists {
				return domain.ErrCartItemExists
			}
			if product.AvailableQty < qty {
				return domain.ErrInsufficientStock
			}

			now := time.Now().UTC()
			cart.Items = append(cart.Items, domain.CartItem{
				ID:          uuid.NewString(),
				ProductID:   product.ID,
				ProductName: product.Name,
				Qty:         qty,
				PriceMinor:  product.SpecialPriceMinor,
				DiscountPct: product.DiscountPct,
				AddedAt:     now,
			})
			cart.TotalMinor += int64(qty) * product.SpecialPriceMinor
			cart.UpdatedAt = now
			return nil
		},
	)
}

// UpdateQuantity меняет количество позиции на delta. Цена и скидка позиции
// пересчитываются из актуального состояния каталога, а сумма корзины
// корректируется так, чтобы старая строка была полностью снята и заново
// учтена по новой цене. Нулевое итоговое количество удаляет позицию.
func (s *Service) UpdateQuantity(ctx context.Context, user domain.Identity, productID string, delta int32) (domain.Cart, error) {
	start := time.Now()
	cart, err := s.updateQuantity(ctx, user, productID, delta)
	s.metrics.RecordCartMutation("update", err, time.Since(start))
	return cart, err
}

func (s *Service) updateQuantity(ctx context.Context, user domain.Identity, productID string, delta int32) (domain.Cart, error) {
	if _, err := s.carts.GetByUser(user.UserID); err != nil {
		return domain.Cart{}, err
	}

	product, err := s.catalog.Resolve(ctx, productID)
	if err != nil {
		return domain.Cart{}, err
	}
	if product.AvailableQty == 0 {
		return domain.Cart{}, domain.ErrProductUnavailable
	}
	if delta > product.AvailableQty {
		return domain.Cart{}, domain.ErrInsufficientStock
	}

	return s.mutate(
		func() (domain.Cart, error) { return s.carts.GetByUser(user.UserID) },
		func(cart *domain.Cart) error {
			item, ok := cart.ItemByProduct(product.ID)
			if !ok {
				return domain.ErrCartItemNotFound
			}

			newQty := item.Qty + delta
			if newQty < 0 {
				return domain.ErrQuantityNegative
			}
			if newQty == 0 {
				removeItem(cart, item)
				return nil
			}

			// Снимаем старую строку целиком и учитываем заново по свежей цене:
			// именно так относительная корректировка сохраняет инвариант суммы
			// даже при изменившейся между операциями цене.
			cart.TotalMinor -= int64(item.Qty) * item.PriceMinor
			cart.TotalMinor += int64(newQty) * product.SpecialPriceMinor

			for i := range cart.Items {
				if cart.Items[i].ProductID != product.ID {
					continue
				}
				cart.Items[i].Qty = newQty
				cart.Items[i].PriceMinor = product.SpecialPriceMinor
				cart.Items[i].DiscountPct = product.DiscountPct
			}
			cart.UpdatedAt = time.Now().UTC()
			return nil
		},
	)
}

// RemoveProduct удаляет позицию из корзины и возвращает подтверждение
// с именем удалённого товара. Остаток на складе не восстанавливается:
// при добавлении он и не удерживался.
func (s *Service) RemoveProduct(_ context.Context, cartID, productID string) (string, error) {
	start := time.Now()
	var removedName string

	_, err := s.mutate(
		func() (domain.Cart, error) { return s.carts.Get(cartID) },
		func(cart *domain.Cart) error {
			item, ok := cart.ItemByProduct(productID)
			if !ok {
				return domain.ErrCartItemNotFound
			}
			removedName = item.ProductName
			removeItem(cart, item)
			return nil
		},
	)
	s.metrics.RecordCartMutation("remove", err, time.Since(start))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Product %s removed from the cart", removedName), nil
}

// GetCart возвращает корзину пользователя.
func (s *Service) GetCart(_ context.Context, user domain.Identity) (domain.Cart, error) {
	return s.carts.GetByUser(user.UserID)
}

// ListCarts возвращает все корзины (служебный обзор).
func (s *Service) ListCarts(_ context.Context) ([]domain.Cart, error) {
	return s.carts.List()
}

// loadOrCreateCart возвращает корзину пользователя, создавая её при
// первом обращении с нулевой суммой.
func (s *Service) loadOrCreateCart(user domain.Identity) (domain.Cart, error) {
	cart, err := s.carts.GetByUser(user.UserID)
	if err == nil {
		return cart, nil
	}
	if !domain.IsNotFound(err) {
		return domain.Cart{}, err
	}

	now := time.Now().UTC()
	cart = domain.Cart{
		ID:         uuid.NewString(),
		UserID:     user.UserID,
		Email:      user.Email,
		TotalMinor: 0,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.carts.Create(cart); err != nil {
		// Конкурентное создание корзины тем же пользователем: перечитываем.
		if domain.IsVersionConflict(err) {
			return s.carts.GetByUser(user.UserID)
		}
		return domain.Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

// mutate применяет мутацию к свежей копии корзины и сохраняет её,
// повторяя попытку с exponential backoff при конфликте версий.
// Перед сохранением проверяются инварианты корзины: расхождение суммы
// с позициями — дефект, и наружу он уходит как IntegrityViolation.
func (s *Service) mutate(load func() (domain.Cart, error), apply func(*domain.Cart) error) (domain.Cart, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		cart, err := load()
		if err != nil {
			return domain.Cart{}, err
		}

		if err := apply(&cart); err != nil {
			return domain.Cart{}, err
		}

		if errs := cart.ValidateInvariants(); len(errs) > 0 {
			s.logger.WithFields(log.Fields{
				"cart_id": cart.ID,
				"errors":  fmt.Sprintf("%v", errs),
			}).Error("cart invariants violated after mutation")
			return domain.Cart{}, domain.ErrCartTotalMismatch
		}

		if err := s.carts.Save(cart); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxRetries-1 {
				s.logger.WithFields(log.Fields{
					"cart_id": cart.ID,
					"attempt": attempt + 1,
					"version": cart.Version,
				}).Warn("cart version conflict detected, retrying")
				time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
				continue
			}
			return domain.Cart{}, err
		}

		// Save инкрементирует версию в хранилище.
		cart.Version++
		return cart, nil
	}

	return domain.Cart{}, domain.ErrCartVersionConflict
}

// removeItem убирает позицию и снимает её стоимость с кешированной суммы.
func removeItem(cart *domain.Cart, item domain.CartItem) {
	cart.TotalMinor -= int64(item.Qty) * item.PriceMinor
	items := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ProductID != item.ProductID {
			items = append(items, it)
		}
	}
	cart.Items = items
	cart.UpdatedAt = time.Now().UTC()
}
