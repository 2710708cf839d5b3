package coupon

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Normalize lower-cases and trims a user-entered code.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Validator validates a coupon code for a buyer against the cart's overall
// product subtotal and returns the computed discount.
type Validator interface {
	Validate(ctx context.Context, code, buyerID string, productSubtotal decimal.Decimal) (*Discount, error)
}

// RepoValidator implements Validator against the campaign and redemption
// repositories. Checks run in a fixed order and short-circuit on the first
// failure: known code, signed-in buyer, minimum spend, no prior redemption.
type RepoValidator struct {
	campaigns   CampaignRepository
	redemptions RedemptionRepository
}

// NewRepoValidator creates a RepoValidator backed by the given repositories.
func NewRepoValidator(campaigns CampaignRepository, redemptions RedemptionRepository) *RepoValidator {
	return &RepoValidator{campaigns: campaigns, redemptions: redemptions}
}

// Validate applies the ordered checks and computes the discount against the
// product subtotal only. Shipping is never discounted.
func (v *RepoValidator) Validate(ctx context.Context, code, buyerID string, productSubtotal decimal.Decimal) (*Discount, error) {
	normalized := Normalize(code)

	c, err := v.campaigns.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, ErrInvalidCoupon
		}
		return nil, errors.Wrap(err, "lookup campaign")
	}
	if !c.Active {
		return nil, ErrInvalidCoupon
	}

	if buyerID == "" {
		return nil, ErrNotSignedIn
	}

	if productSubtotal.LessThan(c.MinSubtotal) {
		return nil, &MinSubtotalError{Min: c.MinSubtotal}
	}

	redeemed, err := v.redemptions.Exists(ctx, buyerID, normalized)
	if err != nil {
		return nil, errors.Wrap(err, "check redemption")
	}
	if redeemed {
		return nil, ErrAlreadyRedeemed
	}

	amount := productSubtotal.Mul(c.Percent).Div(hundred).Round(2)
	return &Discount{
		Code:        normalized,
		Percent:     c.Percent,
		Amount:      amount,
		Description: c.Description,
	}, nil
}
