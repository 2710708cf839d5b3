package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekalkan/pazaryeri/internal/domain/checkout"
	"github.com/ekalkan/pazaryeri/internal/domain/order"
)

const (
	getAddressSQL = `SELECT name, phone, line1, line2, city, postcode
		FROM addresses WHERE account_id = $1 AND id = $2`

	upsertAddressSQL = `INSERT INTO addresses (id, account_id, name, phone, line1, line2, city, postcode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, phone = EXCLUDED.phone,
			line1 = EXCLUDED.line1, line2 = EXCLUDED.line2,
			city = EXCLUDED.city, postcode = EXCLUDED.postcode`
)

var _ checkout.AddressRepository = (*AddressRepository)(nil)

// AddressRepository implements checkout.AddressRepository backed by
// PostgreSQL. Addresses belong to accounts; lookups are always scoped to the
// owner.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// GetByID returns the account's address as a checkout snapshot.
func (r *AddressRepository) GetByID(ctx context.Context, accountID, addressID string) (*order.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressSQL, accountID, addressID)
	if err != nil {
		return nil, fmt.Errorf("getting address %q: %w", addressID, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (order.Address, error) {
		var a order.Address
		err := row.Scan(&a.Name, &a.Phone, &a.Line1, &a.Line2, &a.City, &a.Postcode)
		return a, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, checkout.ErrAddressNotFound
		}
		return nil, fmt.Errorf("getting address %q: %w", addressID, err)
	}
	return &a, nil
}

// Upsert saves an address for the account.
func (r *AddressRepository) Upsert(ctx context.Context, id, accountID string, a order.Address) error {
	_, err := r.pool.Exec(ctx, upsertAddressSQL,
		id, accountID, a.Name, a.Phone, a.Line1, a.Line2, a.City, a.Postcode,
	)
	if err != nil {
		return fmt.Errorf("upserting address %q: %w", id, err)
	}
	return nil
}
