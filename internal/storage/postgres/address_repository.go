package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository создаёт PostgreSQL-реализацию AddressRepository.
func NewAddressRepository(store *Store) domain.AddressRepository {
	return &addressRepository{db: store.DB()}
}

func (r *addressRepository) Create(address domain.Address) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if address.CreatedAt.IsZero() {
		address.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO addresses (id, street, city, state, country, pincode, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		address.ID, address.Street, address.City,
		address.State, address.Country, address.Pincode, address.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	return nil
}

func (r *addressRepository) Get(id string) (domain.Address, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var address domain.Address
	err := r.db.QueryRowContext(ctx, `
		SELECT id, street, city, state, country, pincode, created_at
		FROM addresses
		WHERE id = $1
	`, id).Scan(
		&address.ID, &address.Street, &address.City,
		&address.State, &address.Country, &address.Pincode, &address.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Address{}, domain.ErrAddressNotFound
		}
		return domain.Address{}, fmt.Errorf("select address: %w", err)
	}

	return address, nil
}

var _ domain.AddressRepository = (*addressRepository)(nil)
