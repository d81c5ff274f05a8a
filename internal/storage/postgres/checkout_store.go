package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type checkoutStore struct {
	db *sql.DB
}

// NewCheckoutStore создаёт PostgreSQL-реализацию CheckoutStore.
// Коммит оформления — одна транзакция: заказ, позиции, платёж, списание
// остатков, очистка корзины и событие outbox фиксируются вместе или
// откатываются вместе.
func NewCheckoutStore(store *Store) domain.CheckoutStore {
	return &checkoutStore{db: store.DB()}
}

func (s *checkoutStore) Commit(c domain.Checkout) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	if err = insertOrder(ctx, tx, c.Order, now); err != nil {
		return err
	}

	// Остатки перепроверяются прямо в списывающем UPDATE: условие
	// available_qty >= qty гарантирует, что конкурентное оформление
	// не уведёт остаток ниже нуля.
	for _, item := range c.Order.Items {
		if err = debitStock(ctx, tx, item.ProductID, item.Qty, now); err != nil {
			return err
		}
	}

	if err = clearCart(ctx, tx, c.CartID, c.CartVersion, now); err != nil {
		return err
	}

	if c.Event.EventType != "" {
		if err = enqueueEvent(ctx, tx, c.Event, now); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit checkout tx: %w", err)
	}

	return nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, order domain.Order, now time.Time) error {
	placedAt := order.PlacedAt
	if placedAt.IsZero() {
		placedAt = now
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, email, status, total_minor, address_id, placed_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		order.ID, order.Email, order.Status,
		order.TotalMinor, order.AddressID, placedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		itemID := item.ID
		if itemID == "" {
			itemID = uuid.NewString()
		}
		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, qty, discount_pct, price_minor, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			itemID, order.ID, item.ProductID, item.ProductName,
			item.Qty, item.DiscountPct, item.PriceMinor, createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert order item for product %s: %w", item.ProductID, err)
		}
	}

	payment := order.Payment
	paymentID := payment.ID
	if paymentID == "" {
		paymentID = uuid.NewString()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, method, gateway_name, gateway_payment_id, gateway_status, gateway_message, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		paymentID, order.ID, payment.Method,
		payment.GatewayName, payment.GatewayPaymentID,
		payment.GatewayStatus, payment.GatewayMessage, now,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

func debitStock(ctx context.Context, tx *sql.Tx, productID string, qty int32, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET available_qty = available_qty - $1,
		    updated_at = $3
		WHERE id = $2 AND available_qty >= $1
	`, qty, productID, now)
	if err != nil {
		return fmt.Errorf("debit stock for product %s: %w", productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("stock debit rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := productExistsTx(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrProductNotFound
		}
		return domain.ErrInsufficientStock
	}

	return nil
}

func clearCart(ctx context.Context, tx *sql.Tx, cartID string, version int64, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET total_minor = 0,
		    version = version + 1,
		    updated_at = $3
		WHERE id = $1 AND version = $2
	`, cartID, version, now)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cart clear rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := cartExistsTx(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrCartNotFound
		}
		return domain.ErrCartVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	return nil
}

func enqueueEvent(ctx context.Context, tx *sql.Tx, event domain.OutboxMessage, now time.Time) error {
	eventID := event.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_messages (
			id, aggregate_type, aggregate_id, event_type, payload,
			status, attempt_count, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,'pending',0,$6,$7)
	`,
		eventID, event.AggregateType, event.AggregateID,
		event.EventType, event.Payload, now, now,
	)
	if err != nil {
		return fmt.Errorf("enqueue checkout event: %w", err)
	}

	return nil
}

func productExistsTx(ctx context.Context, tx *sql.Tx, productID string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product existence: %w", err)
	}
	return exists, nil
}

var _ domain.CheckoutStore = (*checkoutStore)(nil)
