package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

const (
	maxRetries = 3
	baseDelay  = 10 * time.Millisecond

	// EventOrderPlaced — тип события, публикуемого через outbox при оформлении.
	EventOrderPlaced = "order.placed"

	aggregateOrder = "order"
)

// PaymentDetails — платёжные данные, переданные при оформлении заказа.
// Шлюз к этому моменту уже обработал платёж; здесь фиксируется результат.
type PaymentDetails struct {
	Method           string
	GatewayName      string
	GatewayPaymentID string
	GatewayStatus    string
	GatewayMessage   string
}

// OrderPlacedEvent — payload события order.placed.
type OrderPlacedEvent struct {
	OrderID    string    `json:"order_id"`
	Email      string    `json:"email"`
	TotalMinor int64     `json:"total_minor"`
	ItemCount  int       `json:"item_count"`
	PlacedAt   time.Time `json:"placed_at"`
}

// Service превращает корзину в неизменяемый заказ. Конвертация атомарна:
// вставка заказа, списание остатков, очистка корзины и событие в outbox
// фиксируются одним коммитом CheckoutStore или не фиксируются вовсе.
type Service struct {
	carts     domain.CartRepository
	addresses domain.AddressRepository
	orders    domain.OrderRepository
	store     domain.CheckoutStore
	logger    *log.Entry
	metrics   *metrics.ShopMetrics
}

// NewService конструирует сервис оформления заказов.
func NewService(
	carts domain.CartRepository,
	addresses domain.AddressRepository,
	orders domain.OrderRepository,
	store domain.CheckoutStore,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "checkout-service")
	}
	return &Service{
		carts:     carts,
		addresses: addresses,
		orders:    orders,
		store:     store,
		logger:    logger,
		metrics:   metrics.NewShopMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	carts domain.CartRepository,
	addresses domain.AddressRepository,
	orders domain.OrderRepository,
	store domain.CheckoutStore,
	logger *log.Entry,
) *Service {
	svc := NewService(carts, addresses, orders, store, logger)
	svc.metrics = nil
	return svc
}

// PlaceOrder оформляет заказ из корзины пользователя по email.
// Позиции и сумма заказа — снимок корзины на момент вызова; платёж
// записывается как есть. Конфликт версии корзины (конкурентная мутация
// между чтением и коммитом) прозрачно повторяется на свежем снимке.
func (s *Service) PlaceOrder(ctx context.Context, email, addressID string, payment PaymentDetails) (domain.Order, error) {
	start := time.Now()
	order, err := s.placeOrder(ctx, email, addressID, payment)
	if err != nil {
		s.metrics.RecordOrderFailed()
		return domain.Order{}, err
	}
	s.metrics.RecordOrderPlaced(order.TotalMinor, time.Since(start))
	return order, nil
}

func (s *Service) placeOrder(_ context.Context, email, addressID string, payment PaymentDetails) (domain.Order, error) {
	if email == "" {
		return domain.Order{}, domain.ErrEmailRequired
	}
	if payment.Method == "" {
		return domain.Order{}, domain.ErrPaymentMethodRequired
	}
	if _, err := s.addresses.Get(addressID); err != nil {
		return domain.Order{}, err
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		cart, err := s.carts.GetByEmail(email)
		if err != nil {
			return domain.Order{}, err
		}
		if len(cart.Items) == 0 {
			return domain.Order{}, domain.ErrCartEmpty
		}

		order, err := s.buildOrder(cart, addressID, payment)
		if err != nil {
			return domain.Order{}, err
		}

		event, err := s.buildEvent(order)
		if err != nil {
			return domain.Order{}, err
		}

		err = s.store.Commit(domain.Checkout{
			Order:       order,
			CartID:      cart.ID,
			CartVersion: cart.Version,
			Event:       event,
		})
		if err == nil {
			s.logger.WithFields(log.Fields{
				"order_id":    order.ID,
				"email":       order.Email,
				"total_minor": order.TotalMinor,
				"items":       len(order.Items),
			}).Info("order placed")
			return order, nil
		}

		if domain.IsVersionConflict(err) && attempt < maxRetries-1 {
			s.logger.WithFields(log.Fields{
				"cart_id": cart.ID,
				"attempt": attempt + 1,
			}).Warn("cart changed during checkout, retrying on fresh snapshot")
			time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
			continue
		}
		return domain.Order{}, err
	}

	return domain.Order{}, domain.ErrCartVersionConflict
}

// buildOrder собирает заказ-снимок из корзины: каждая позиция копирует
// имя, количество, скидку и зафиксированную цену; сумма переносится
// с корзины без пересчёта.
func (s *Service) buildOrder(cart domain.Cart, addressID string, payment PaymentDetails) (domain.Order, error) {
	now := time.Now().UTC()
	orderID := uuid.NewString()

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		items = append(items, domain.OrderItem{
			ID:          uuid.NewString(),
			ProductID:   ci.ProductID,
			ProductName: ci.ProductName,
			Qty:         ci.Qty,
			DiscountPct: ci.DiscountPct,
			PriceMinor:  ci.PriceMinor,
			CreatedAt:   now,
		})
	}

	order := domain.Order{
		ID:         orderID,
		Email:      cart.Email,
		Status:     domain.OrderStatusAccepted,
		TotalMinor: cart.TotalMinor,
		AddressID:  addressID,
		Payment: domain.Payment{
			ID:               uuid.NewString(),
			OrderID:          orderID,
			Method:           payment.Method,
			GatewayName:      payment.GatewayName,
			GatewayPaymentID: payment.GatewayPaymentID,
			GatewayStatus:    payment.GatewayStatus,
			GatewayMessage:   payment.GatewayMessage,
			CreatedAt:        now,
		},
		Items:    items,
		PlacedAt: now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"errors":   fmt.Sprintf("%v", errs),
		}).Error("order invariants violated before commit")
		return domain.Order{}, fmt.Errorf("order validation: %w", errs[0])
	}

	return order, nil
}

func (s *Service) buildEvent(order domain.Order) (domain.OutboxMessage, error) {
	payload, err := json.Marshal(OrderPlacedEvent{
		OrderID:    order.ID,
		Email:      order.Email,
		TotalMinor: order.TotalMinor,
		ItemCount:  len(order.Items),
		PlacedAt:   order.PlacedAt,
	})
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal order placed event: %w", err)
	}
	return domain.OutboxMessage{
		AggregateType: aggregateOrder,
		AggregateID:   order.ID,
		EventType:     EventOrderPlaced,
		Payload:       payload,
	}, nil
}

// GetOrder возвращает заказ по его идентификатору.
func (s *Service) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	return s.orders.Get(orderID)
}

// ListOrders возвращает последние заказы пользователя по email.
func (s *Service) ListOrders(_ context.Context, email string, limit int) ([]domain.Order, error) {
	return s.orders.ListByEmail(email, limit)
}
