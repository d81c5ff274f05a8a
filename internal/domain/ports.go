package domain

import (
	"context"
	"time"
)

// CatalogService резолвит товар в его текущее состояние: цену, скидку,
// специальную цену и остаток. Списание остатка в этот порт не входит —
// оно выполняется только внутри транзакции оформления (CheckoutStore).
type CatalogService interface {
	// Resolve возвращает товар или ErrProductNotFound.
	Resolve(ctx context.Context, productID string) (Product, error)
}

// Checkout описывает один атомарный коммит оформления заказа:
// вставку заказа с позициями и платежом, списание остатков по каждой
// позиции, очистку корзины и постановку события в outbox.
type Checkout struct {
	Order Order
	// CartID и CartVersion фиксируют корзину, из которой собран заказ;
	// несовпадение версии означает конкурентную мутацию и откат.
	CartID      string
	CartVersion int64
	Event       OutboxMessage
}

// CheckoutStore фиксирует оформление заказа целиком или не фиксирует ничего.
// Реализация обязана перепроверять остатки непосредственно перед списанием
// и возвращать ErrInsufficientStock, если конкурентное оформление успело
// выкупить товар: остаток никогда не уходит ниже нуля.
type CheckoutStore interface {
	Commit(c Checkout) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
