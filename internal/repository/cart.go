package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekalkan/pazaryeri/internal/domain/cart"
)

const (
	listCartSQL = `SELECT buyer_id, listing_id, quantity, selections
		FROM cart_lines WHERE buyer_id = $1 ORDER BY added_at`

	upsertCartLineSQL = `INSERT INTO cart_lines (buyer_id, listing_id, quantity, selections)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (buyer_id, listing_id, selections)
		DO UPDATE SET quantity = EXCLUDED.quantity`

	deleteCartLineSQL  = `DELETE FROM cart_lines WHERE buyer_id = $1 AND listing_id = $2`
	deleteCartLinesSQL = `DELETE FROM cart_lines WHERE buyer_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// ListByBuyer returns the buyer's lines in insertion order.
func (r *CartRepository) ListByBuyer(ctx context.Context, buyerID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartSQL, buyerID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// Upsert inserts the line or replaces the quantity of an identical one.
func (r *CartRepository) Upsert(ctx context.Context, line cart.Line) error {
	selections, err := marshalSelections(line.Selections)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, upsertCartLineSQL,
		line.BuyerID, line.ListingID, line.Quantity, selections,
	)
	if err != nil {
		return fmt.Errorf("upserting cart line: %w", err)
	}
	return nil
}

// Delete removes every line for the listing, regardless of selections.
func (r *CartRepository) Delete(ctx context.Context, buyerID, listingID string) error {
	if _, err := r.pool.Exec(ctx, deleteCartLineSQL, buyerID, listingID); err != nil {
		return fmt.Errorf("deleting cart line: %w", err)
	}
	return nil
}

// DeleteAll empties the buyer's cart.
func (r *CartRepository) DeleteAll(ctx context.Context, buyerID string) error {
	if _, err := r.pool.Exec(ctx, deleteCartLinesSQL, buyerID); err != nil {
		return fmt.Errorf("emptying cart: %w", err)
	}
	return nil
}

func marshalSelections(selections map[string]string) ([]byte, error) {
	if selections == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(selections)
	if err != nil {
		return nil, fmt.Errorf("marshaling selections: %w", err)
	}
	return data, nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var (
		l          cart.Line
		selections []byte
	)
	if err := row.Scan(&l.BuyerID, &l.ListingID, &l.Quantity, &selections); err != nil {
		return l, err
	}
	if err := json.Unmarshal(selections, &l.Selections); err != nil {
		return l, fmt.Errorf("unmarshaling selections: %w", err)
	}
	return l, nil
}
