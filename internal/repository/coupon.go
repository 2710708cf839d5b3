package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekalkan/pazaryeri/internal/domain/coupon"
)

const (
	findCampaignSQL = `SELECT code, percent, min_subtotal, description, active
		FROM coupon_campaigns WHERE code = $1`

	upsertCampaignSQL = `INSERT INTO coupon_campaigns
		(code, percent, min_subtotal, description, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			percent = EXCLUDED.percent,
			min_subtotal = EXCLUDED.min_subtotal,
			description = EXCLUDED.description,
			active = EXCLUDED.active`

	redemptionExistsSQL = `SELECT EXISTS (
		SELECT 1 FROM coupon_redemptions WHERE buyer_id = $1 AND code = $2)`

	createRedemptionSQL = `INSERT INTO coupon_redemptions (buyer_id, code, order_total, redeemed_at)
		VALUES ($1, $2, $3, $4)`
)

var _ coupon.CampaignRepository = (*CampaignRepository)(nil)

// CampaignRepository implements coupon.CampaignRepository backed by PostgreSQL.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a CampaignRepository that uses the given pool.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// FindByCode looks up a campaign by its normalized code.
func (r *CampaignRepository) FindByCode(ctx context.Context, code string) (*coupon.Campaign, error) {
	rows, err := r.pool.Query(ctx, findCampaignSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding campaign %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCampaign)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding campaign %q: %w", code, err)
	}
	return &c, nil
}

// Upsert saves a campaign.
func (r *CampaignRepository) Upsert(ctx context.Context, c coupon.Campaign) error {
	_, err := r.pool.Exec(ctx, upsertCampaignSQL,
		c.Code, c.Percent, c.MinSubtotal, c.Description, c.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting campaign %q: %w", c.Code, err)
	}
	return nil
}

func scanCampaign(row pgx.CollectableRow) (coupon.Campaign, error) {
	var c coupon.Campaign
	err := row.Scan(&c.Code, &c.Percent, &c.MinSubtotal, &c.Description, &c.Active)
	return c, err
}

var _ coupon.RedemptionRepository = (*RedemptionRepository)(nil)

// RedemptionRepository implements coupon.RedemptionRepository backed by
// PostgreSQL.
type RedemptionRepository struct {
	pool *pgxpool.Pool
}

// NewRedemptionRepository returns a RedemptionRepository that uses the given
// pool.
func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// Exists reports whether the buyer already redeemed the code.
func (r *RedemptionRepository) Exists(ctx context.Context, buyerID, code string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, redemptionExistsSQL, buyerID, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking redemption: %w", err)
	}
	return exists, nil
}

// Create records a redemption outside a checkout transaction. Checkout writes
// its redemption row through CheckoutRepository instead.
func (r *RedemptionRepository) Create(ctx context.Context, red coupon.Redemption) error {
	_, err := r.pool.Exec(ctx, createRedemptionSQL,
		red.BuyerID, red.Code, red.OrderTotal, red.RedeemedAt,
	)
	if err != nil {
		return fmt.Errorf("creating redemption: %w", err)
	}
	return nil
}
