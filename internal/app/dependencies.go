package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/catalog"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// Dependencies содержит хранилища и порты, из которых собирается приложение.
type Dependencies struct {
	Products      domain.ProductRepository
	Carts         domain.CartRepository
	Addresses     domain.AddressRepository
	Orders        domain.OrderRepository
	Outbox        domain.OutboxRepository
	Idempotency   domain.IdempotencyRepository
	CheckoutStore domain.CheckoutStore
	Catalog       domain.CatalogService
	Logger        *log.Entry

	// PostgresStore не nil только в postgres-режиме; используется
	// для health-check и закрытия пула при остановке.
	PostgresStore *postgres.Store
}

// NewMemoryDependencies собирает зависимости поверх in-memory хранилища.
// Подходит для разработки и тестов: данные живут до перезапуска процесса.
func NewMemoryDependencies(logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	store := memory.NewStore()
	outbox := memory.NewOutboxRepository()
	products := memory.NewProductRepository(store)

	return &Dependencies{
		Products:      products,
		Carts:         memory.NewCartRepository(store),
		Addresses:     memory.NewAddressRepository(store),
		Orders:        memory.NewOrderRepository(store),
		Outbox:        outbox,
		Idempotency:   memory.NewIdempotencyRepository(),
		CheckoutStore: memory.NewCheckoutStore(store, outbox),
		Catalog:       catalog.NewService(products),
		Logger:        logger,
	}
}

// NewPostgresDependencies собирает зависимости поверх PostgreSQL,
// применяя миграции при старте.
func NewPostgresDependencies(ctx context.Context, dsn string, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	products := postgres.NewProductRepository(store)

	return &Dependencies{
		Products:      products,
		Carts:         postgres.NewCartRepository(store),
		Addresses:     postgres.NewAddressRepository(store),
		Orders:        postgres.NewOrderRepository(store),
		Outbox:        postgres.NewOutboxRepository(store),
		Idempotency:   postgres.NewIdempotencyRepository(store),
		CheckoutStore: postgres.NewCheckoutStore(store),
		Catalog:       catalog.NewService(products),
		Logger:        logger,
		PostgresStore: store,
	}, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() {
	if d == nil || d.PostgresStore == nil {
		return
	}
	if err := d.PostgresStore.Close(); err != nil {
		d.Logger.WithError(err).Warn("failed to close postgres store")
	}
}
