package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekalkan/pazaryeri/internal/domain/checkout"
	"github.com/ekalkan/pazaryeri/internal/domain/coupon"
	"github.com/ekalkan/pazaryeri/internal/domain/order"
)

const (
	orderColumns = `id, checkout_id, buyer_id, buyer_email, seller_id, status, items, address,
		subtotal, discount, shipping_fee, total, coupon_code,
		carrier, tracking_code, invoice_file,
		return_state, return_reason, return_tracking,
		delivered_at, created_at, updated_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByBuyerSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE buyer_id = $1 ORDER BY created_at DESC`

	listOrdersBySellerSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE seller_id = $1 ORDER BY created_at DESC`

	insertOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22)`

	insertSellerOrderSQL = `INSERT INTO seller_orders
		(order_id, seller_id, buyer_id, buyer_email, status, items, address, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	saveOrderSQL = `UPDATE orders SET
		status = $2, carrier = $3, tracking_code = $4, invoice_file = $5,
		return_state = $6, return_reason = $7, return_tracking = $8,
		delivered_at = $9, updated_at = $10
		WHERE id = $1`

	saveSellerOrderSQL = `UPDATE seller_orders SET status = $2, updated_at = $3
		WHERE order_id = $1`

	deleteTerminalSQL = `DELETE FROM orders
		WHERE updated_at < $1 AND (
			status = 'cancelled'
			OR (status = 'delivered' AND return_state IN ('', 'return_rejected', 'return_completed')))`
)

var (
	_ order.Repository    = (*OrderRepository)(nil)
	_ checkout.Repository = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository and checkout.Repository backed
// by PostgreSQL. Every write keeps the seller_orders mirror in step with the
// buyer-facing row.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByBuyer returns the buyer's orders, newest first.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByBuyerSQL, buyerID)
	if err != nil {
		return nil, fmt.Errorf("listing buyer orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListBySeller returns the seller's queue, newest first.
func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersBySellerSQL, sellerID)
	if err != nil {
		return nil, fmt.Errorf("listing seller orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Save persists lifecycle fields to the order and its seller mirror in one
// transaction.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, saveOrderSQL,
		o.ID, o.Status, o.Carrier, o.TrackingCode, o.InvoiceFile,
		o.ReturnState, o.ReturnReason, o.ReturnTracking,
		o.DeliveredAt, o.UpdatedAt,
	); err != nil {
		return fmt.Errorf("saving order %q: %w", o.ID, err)
	}
	if _, err := tx.Exec(ctx, saveSellerOrderSQL, o.ID, o.Status, o.UpdatedAt); err != nil {
		return fmt.Errorf("saving seller order %q: %w", o.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// DeleteTerminalBefore removes terminal orders whose last update is older than
// cutoff. Mirrors go with them via the cascade.
func (r *OrderRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteTerminalSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting terminal orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CreateCheckout writes every order of a checkout, each seller mirror, the
// redemption row when present, and the cart wipe in one transaction.
func (r *OrderRepository) CreateCheckout(ctx context.Context, orders []*order.Order, redemption *coupon.Redemption, clearCartBuyerID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning checkout: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, o := range orders {
		if err := insertOrderTx(ctx, tx, o); err != nil {
			return err
		}
	}

	if redemption != nil {
		if _, err := tx.Exec(ctx, createRedemptionSQL,
			redemption.BuyerID, redemption.Code, redemption.OrderTotal, redemption.RedeemedAt,
		); err != nil {
			return fmt.Errorf("recording redemption: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, deleteCartLinesSQL, clearCartBuyerID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing checkout: %w", err)
	}
	return nil
}

func insertOrderTx(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	address, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("marshaling order address: %w", err)
	}

	if _, err := tx.Exec(ctx, insertOrderSQL,
		o.ID, o.CheckoutID, o.BuyerID, o.BuyerEmail, o.SellerID, o.Status,
		items, address,
		o.Subtotal, o.Discount, o.ShippingFee, o.Total, o.CouponCode,
		o.Carrier, o.TrackingCode, o.InvoiceFile,
		o.ReturnState, o.ReturnReason, o.ReturnTracking,
		o.DeliveredAt, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	if _, err := tx.Exec(ctx, insertSellerOrderSQL,
		o.ID, o.SellerID, o.BuyerID, o.BuyerEmail, o.Status,
		items, address, o.Total, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return fmt.Errorf("creating seller order %q: %w", o.ID, err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o              order.Order
		items, address []byte
	)
	err := row.Scan(
		&o.ID, &o.CheckoutID, &o.BuyerID, &o.BuyerEmail, &o.SellerID, &o.Status,
		&items, &address,
		&o.Subtotal, &o.Discount, &o.ShippingFee, &o.Total, &o.CouponCode,
		&o.Carrier, &o.TrackingCode, &o.InvoiceFile,
		&o.ReturnState, &o.ReturnReason, &o.ReturnTracking,
		&o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(address, &o.Address); err != nil {
		return o, fmt.Errorf("unmarshaling order address: %w", err)
	}
	return o, nil
}
