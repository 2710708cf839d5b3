package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
)

const (
	getShippingConfigSQL = `SELECT seller_id, flat_fee, free_shipping_enabled, free_threshold
		FROM shipping_configs WHERE seller_id = $1`

	getShippingConfigsSQL = `SELECT seller_id, flat_fee, free_shipping_enabled, free_threshold
		FROM shipping_configs WHERE seller_id = ANY($1)`

	upsertShippingConfigSQL = `INSERT INTO shipping_configs
		(seller_id, flat_fee, free_shipping_enabled, free_threshold)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (seller_id) DO UPDATE SET
			flat_fee = EXCLUDED.flat_fee,
			free_shipping_enabled = EXCLUDED.free_shipping_enabled,
			free_threshold = EXCLUDED.free_threshold`
)

var _ shipping.Repository = (*ShippingRepository)(nil)

// ShippingRepository implements shipping.Repository backed by PostgreSQL.
type ShippingRepository struct {
	pool *pgxpool.Pool
}

// NewShippingRepository returns a ShippingRepository that uses the given pool.
func NewShippingRepository(pool *pgxpool.Pool) *ShippingRepository {
	return &ShippingRepository{pool: pool}
}

// Get returns the seller's config, or a zero-fee config when none was saved.
func (r *ShippingRepository) Get(ctx context.Context, sellerID string) (shipping.SellerConfig, error) {
	rows, err := r.pool.Query(ctx, getShippingConfigSQL, sellerID)
	if err != nil {
		return shipping.SellerConfig{}, fmt.Errorf("getting shipping config: %w", err)
	}

	cfg, err := pgx.CollectExactlyOneRow(rows, scanShippingConfig)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shipping.SellerConfig{SellerID: sellerID}, nil
		}
		return shipping.SellerConfig{}, fmt.Errorf("getting shipping config: %w", err)
	}
	return cfg, nil
}

// GetBySellerIDs returns configs keyed by seller id. Sellers without a saved
// config are absent from the map.
func (r *ShippingRepository) GetBySellerIDs(ctx context.Context, sellerIDs []string) (map[string]shipping.SellerConfig, error) {
	rows, err := r.pool.Query(ctx, getShippingConfigsSQL, sellerIDs)
	if err != nil {
		return nil, fmt.Errorf("getting shipping configs: %w", err)
	}
	configs, err := pgx.CollectRows(rows, scanShippingConfig)
	if err != nil {
		return nil, fmt.Errorf("getting shipping configs: %w", err)
	}

	out := make(map[string]shipping.SellerConfig, len(configs))
	for _, cfg := range configs {
		out[cfg.SellerID] = cfg
	}
	return out, nil
}

// Upsert saves the seller's config.
func (r *ShippingRepository) Upsert(ctx context.Context, cfg shipping.SellerConfig) error {
	_, err := r.pool.Exec(ctx, upsertShippingConfigSQL,
		cfg.SellerID, cfg.FlatFee, cfg.FreeShippingEnabled, cfg.FreeThreshold,
	)
	if err != nil {
		return fmt.Errorf("upserting shipping config: %w", err)
	}
	return nil
}

func scanShippingConfig(row pgx.CollectableRow) (shipping.SellerConfig, error) {
	var cfg shipping.SellerConfig
	err := row.Scan(&cfg.SellerID, &cfg.FlatFee, &cfg.FreeShippingEnabled, &cfg.FreeThreshold)
	return cfg, err
}
