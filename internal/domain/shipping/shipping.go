package shipping

import (
	"context"

	"github.com/shopspring/decimal"
)

// SellerConfig is a seller's shipping configuration. It is read-only input to
// fee resolution; sellers edit it independently of any checkout.
type SellerConfig struct {
	SellerID            string
	FlatFee             decimal.Decimal
	FreeShippingEnabled bool
	FreeThreshold       decimal.Decimal
}

// Resolve returns the shipping fee for one seller group given the group's
// pre-discount product subtotal. The threshold comparison is inclusive: a
// subtotal exactly at the threshold ships free.
func Resolve(cfg SellerConfig, subtotal decimal.Decimal) decimal.Decimal {
	if cfg.FreeShippingEnabled && subtotal.GreaterThanOrEqual(cfg.FreeThreshold) {
		return decimal.Zero
	}
	return cfg.FlatFee
}

// Repository defines persistence for per-seller shipping configuration.
// Get returns a zero-fee config for sellers that never saved one.
type Repository interface {
	Get(ctx context.Context, sellerID string) (SellerConfig, error)
	GetBySellerIDs(ctx context.Context, sellerIDs []string) (map[string]SellerConfig, error)
	Upsert(ctx context.Context, cfg SellerConfig) error
}
