package memory

import "github.com/vladislavdragonenkov/shop/internal/domain"

// addressRepositoryInMemory — реализация AddressRepository поверх общего Store.
type addressRepositoryInMemory struct {
	store *Store
}

// NewAddressRepository возвращает in-memory репозиторий адресов.
func NewAddressRepository(store *Store) domain.AddressRepository {
	return &addressRepositoryInMemory{store: store}
}

// Create сохраняет новый адрес.
func (r *addressRepositoryInMemory) Create(address domain.Address) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addresses[address.ID] = address
	return nil
}

// Get возвращает адрес или ErrAddressNotFound.
func (r *addressRepositoryInMemory) Get(id string) (domain.Address, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	address, ok := s.addresses[id]
	if !ok {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	return address, nil
}

var _ domain.AddressRepository = (*addressRepositoryInMemory)(nil)
