package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon is returned when a coupon code is unknown or inactive.
	ErrInvalidCoupon = errors.New("invalid or expired coupon")
	// ErrNotSignedIn is returned when an anonymous buyer tries to apply a coupon.
	ErrNotSignedIn = errors.New("must be signed in to use a coupon")
	// ErrAlreadyRedeemed is returned when the buyer has already used the code.
	ErrAlreadyRedeemed = errors.New("already used this coupon")
)

// MinSubtotalError indicates the cart's product subtotal is below the
// campaign's minimum spend. It names the minimum for the user-visible message.
type MinSubtotalError struct {
	Min decimal.Decimal
}

func (e *MinSubtotalError) Error() string {
	return "coupon requires a product subtotal of at least " + e.Min.StringFixed(2)
}

// Campaign is a percentage coupon campaign. Codes are stored lower-cased;
// lookups normalize the same way.
type Campaign struct {
	Code        string
	Percent     decimal.Decimal
	MinSubtotal decimal.Decimal
	Description string
	Active      bool
}

// Discount is the computed result of applying a campaign.
type Discount struct {
	Code        string
	Percent     decimal.Decimal
	Amount      decimal.Decimal
	Description string
}

// Redemption marks that a buyer consumed a code. One row per (buyer, code);
// written only after payment succeeds, never before.
type Redemption struct {
	BuyerID    string
	Code       string
	OrderTotal decimal.Decimal
	RedeemedAt time.Time
}

// CampaignRepository provides campaign lookup by normalized code.
type CampaignRepository interface {
	FindByCode(ctx context.Context, code string) (*Campaign, error)
	Upsert(ctx context.Context, c Campaign) error
}

// RedemptionRepository tracks per-buyer single-use consumption.
type RedemptionRepository interface {
	Exists(ctx context.Context, buyerID, code string) (bool, error)
	Create(ctx context.Context, r Redemption) error
}
