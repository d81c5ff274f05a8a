package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// cartRepositoryInMemory — реализация CartRepository поверх общего Store.
type cartRepositoryInMemory struct {
	store *Store
}

// NewCartRepository возвращает in-memory репозиторий корзин.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepositoryInMemory{store: store}
}

// Create сохраняет новую корзину, если ни ID, ни владелец ещё не заняты.
// Уникальность по владельцу реализует правило «одна корзина на пользователя».
func (r *cartRepositoryInMemory) Create(cart domain.Cart) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.carts[cart.ID]; exists {
		return domain.ErrCartVersionConflict
	}
	if _, exists := s.cartByUser[cart.UserID]; exists {
		return domain.ErrCartVersionConflict
	}

	s.carts[cart.ID] = cloneCart(cart)
	s.cartByUser[cart.UserID] = cart.ID
	if cart.Email != "" {
		s.cartByEmail[cart.Email] = cart.ID
	}
	return nil
}

// Get возвращает корзину или ErrCartNotFound.
func (r *cartRepositoryInMemory) Get(id string) (domain.Cart, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[id]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cloneCart(cart), nil
}

// GetByUser возвращает единственную корзину пользователя.
func (r *cartRepositoryInMemory) GetByUser(userID string) (domain.Cart, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.cartByUser[userID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cloneCart(s.carts[id]), nil
}

// GetByEmail возвращает корзину по email владельца.
func (r *cartRepositoryInMemory) GetByEmail(email string) (domain.Cart, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.cartByEmail[email]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cloneCart(s.carts[id]), nil
}

// List возвращает все корзины в стабильном порядке.
func (r *cartRepositoryInMemory) List() ([]domain.Cart, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Cart, 0, len(s.carts))
	for _, cart := range s.carts {
		result = append(result, cloneCart(cart))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Save перезаписывает корзину и её позиции, проверяя версию (optimistic locking).
func (r *cartRepositoryInMemory) Save(cart domain.Cart) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.carts[cart.ID]
	if !ok {
		return domain.ErrCartNotFound
	}
	if current.Version != cart.Version {
		return domain.ErrCartVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	cart.Version++
	s.carts[cart.ID] = cloneCart(cart)
	if cart.Email != "" {
		s.cartByEmail[cart.Email] = cart.ID
	}
	return nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
