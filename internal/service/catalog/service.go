package catalog

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Service резолвит товары каталога поверх ProductRepository.
// Производная специальная цена достраивается здесь, если запись
// в хранилище её не содержит.
type Service struct {
	products domain.ProductRepository
}

// NewService создаёт каталожный сервис.
func NewService(products domain.ProductRepository) *Service {
	return &Service{products: products}
}

// Resolve возвращает товар или ErrProductNotFound.
func (s *Service) Resolve(_ context.Context, productID string) (domain.Product, error) {
	product, err := s.products.Get(productID)
	if err != nil {
		return domain.Product{}, err
	}
	if product.SpecialPriceMinor == 0 && product.PriceMinor > 0 {
		product.SpecialPriceMinor = domain.SpecialPrice(product.PriceMinor, product.DiscountPct)
	}
	return product, nil
}

// Seed наполняет каталог товарами; дубликаты перезаписываются.
// Используется для демо-данных и тестов.
func (s *Service) Seed(products []domain.Product) error {
	for _, product := range products {
		if product.SpecialPriceMinor == 0 && product.PriceMinor > 0 {
			product.SpecialPriceMinor = domain.SpecialPrice(product.PriceMinor, product.DiscountPct)
		}
		if err := s.products.Create(product); err != nil {
			return fmt.Errorf("seed product %s: %w", product.ID, err)
		}
	}
	return nil
}

var _ domain.CatalogService = (*Service)(nil)
