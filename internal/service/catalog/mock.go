package catalog

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// MockService — конфигурируемая заглушка CatalogService для тестов.
type MockService struct {
	mu       sync.Mutex
	products map[string]domain.Product

	ResolveErr   error
	ResolveCalls int
}

// NewMockService возвращает mock с пустым каталогом и успешным сценарием.
func NewMockService() *MockService {
	return &MockService{products: make(map[string]domain.Product)}
}

// SetProduct кладёт товар в каталог заглушки.
func (m *MockService) SetProduct(product domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
}

// Resolve возвращает заранее настроенную ошибку или товар из каталога.
func (m *MockService) Resolve(_ context.Context, productID string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ResolveCalls++
	if m.ResolveErr != nil {
		return domain.Product{}, m.ResolveErr
	}
	product, ok := m.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

var _ domain.CatalogService = (*MockService)(nil)
