package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) Create(cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO carts (
			id, user_id, email, total_minor, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		cart.ID, cart.UserID, cart.Email, cart.TotalMinor,
		cart.Version, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		// Уникальные индексы обеспечивают одну живую корзину на владельца.
		if isUniqueViolation(err) {
			return domain.ErrCartVersionConflict
		}
		return fmt.Errorf("insert cart: %w", err)
	}

	if err = insertCartItems(ctx, tx, cart.ID, cart.Items); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create cart: %w", err)
	}

	return nil
}

func (r *cartRepository) Get(id string) (domain.Cart, error) {
	return r.getWhere(`id = $1`, id)
}

func (r *cartRepository) GetByUser(userID string) (domain.Cart, error) {
	return r.getWhere(`user_id = $1`, userID)
}

func (r *cartRepository) GetByEmail(email string) (domain.Cart, error) {
	return r.getWhere(`email = $1`, email)
}

func (r *cartRepository) getWhere(where string, arg any) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, email, total_minor, version, created_at, updated_at
		FROM carts
		WHERE `+where, arg).Scan(
		&cart.ID, &cart.UserID, &cart.Email, &cart.TotalMinor,
		&cart.Version, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	items, err := loadCartItems(ctx, r.db, cart.ID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Items = items

	return cart, nil
}

func (r *cartRepository) List() ([]domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, email, total_minor, version, created_at, updated_at
		FROM carts
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	defer rows.Close()

	carts := make([]domain.Cart, 0)
	for rows.Next() {
		var cart domain.Cart
		if err := rows.Scan(
			&cart.ID, &cart.UserID, &cart.Email, &cart.TotalMinor,
			&cart.Version, &cart.CreatedAt, &cart.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart row: %w", err)
		}
		carts = append(carts, cart)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart rows: %w", err)
	}

	for i := range carts {
		items, err := loadCartItems(ctx, r.db, carts[i].ID)
		if err != nil {
			return nil, err
		}
		carts[i].Items = items
	}

	return carts, nil
}

// Save перезаписывает корзину и её позиции в одной транзакции с проверкой
// версии. Позиции заменяются целиком: delete + insert проще и надёжнее
// diff-а при наших размерах корзин.
func (r *cartRepository) Save(cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET email = $1,
		    total_minor = $2,
		    version = version + 1,
		    updated_at = $3
		WHERE id = $4
		  AND version = $5
	`,
		cart.Email, cart.TotalMinor, time.Now().UTC(), cart.ID, cart.Version,
	)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, checkErr := cartExistsTx(ctx, tx, cart.ID)
		if checkErr != nil {
			err = checkErr
			return err
		}
		if !exists {
			err = domain.ErrCartNotFound
			return err
		}
		err = domain.ErrCartVersionConflict
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}
	if err = insertCartItems(ctx, tx, cart.ID, cart.Items); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}

	return nil
}

func insertCartItems(ctx context.Context, tx *sql.Tx, cartID string, items []domain.CartItem) error {
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (
				id, cart_id, product_id, product_name, qty, price_minor, discount_pct, added_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			item.ID, cartID, item.ProductID, item.ProductName,
			item.Qty, item.PriceMinor, item.DiscountPct, item.AddedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrCartItemExists
			}
			return fmt.Errorf("insert cart item: %w", err)
		}
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadCartItems(ctx context.Context, q queryer, cartID string) ([]domain.CartItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, product_id, product_name, qty, price_minor, discount_pct, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at, id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.ProductName,
			&item.Qty, &item.PriceMinor, &item.DiscountPct, &item.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, nil
}

func cartExistsTx(ctx context.Context, tx *sql.Tx, cartID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE id = $1`, cartID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check cart exists: %w", err)
}

var _ domain.CartRepository = (*cartRepository)(nil)
