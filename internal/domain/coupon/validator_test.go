package coupon

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCampaigns struct {
	byCode map[string]Campaign
}

func (s *stubCampaigns) FindByCode(_ context.Context, code string) (*Campaign, error) {
	c, ok := s.byCode[code]
	if !ok {
		return nil, ErrInvalidCoupon
	}
	return &c, nil
}
func (s *stubCampaigns) Upsert(context.Context, Campaign) error { return nil }

type stubRedemptions struct {
	redeemed map[string]bool
}

func (s *stubRedemptions) Exists(_ context.Context, buyerID, code string) (bool, error) {
	return s.redeemed[buyerID+"/"+code], nil
}
func (s *stubRedemptions) Create(context.Context, Redemption) error { return nil }

func newValidator(redeemed map[string]bool) *RepoValidator {
	if redeemed == nil {
		redeemed = map[string]bool{}
	}
	return NewRepoValidator(
		&stubCampaigns{byCode: map[string]Campaign{
			"ilkindirim": {
				Code:        "ilkindirim",
				Percent:     decimal.NewFromInt(3),
				MinSubtotal: decimal.NewFromInt(1000),
				Description: "first order discount",
				Active:      true,
			},
			"eski": {Code: "eski", Percent: decimal.NewFromInt(10), Active: false},
		}},
		&stubRedemptions{redeemed: redeemed},
	)
}

func TestValidateComputesDiscount(t *testing.T) {
	v := newValidator(nil)

	d, err := v.Validate(context.Background(), "ilkindirim", "b-1", decimal.NewFromInt(1200))
	require.NoError(t, err)

	assert.Equal(t, "ilkindirim", d.Code)
	assert.Equal(t, "36", d.Amount.String())
}

func TestValidateNormalizesCode(t *testing.T) {
	v := newValidator(nil)

	d, err := v.Validate(context.Background(), "  ILKindirim ", "b-1", decimal.NewFromInt(1200))
	require.NoError(t, err)
	assert.Equal(t, "ilkindirim", d.Code)
}

func TestValidateUnknownCode(t *testing.T) {
	v := newValidator(nil)

	_, err := v.Validate(context.Background(), "yok", "b-1", decimal.NewFromInt(5000))
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestValidateInactiveCampaign(t *testing.T) {
	v := newValidator(nil)

	_, err := v.Validate(context.Background(), "eski", "b-1", decimal.NewFromInt(5000))
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestValidateAnonymousBuyer(t *testing.T) {
	v := newValidator(nil)

	_, err := v.Validate(context.Background(), "ilkindirim", "", decimal.NewFromInt(5000))
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestValidateBelowMinimum(t *testing.T) {
	v := newValidator(nil)

	_, err := v.Validate(context.Background(), "ilkindirim", "b-1", decimal.NewFromInt(900))

	var minErr *MinSubtotalError
	require.ErrorAs(t, err, &minErr)
	assert.Contains(t, minErr.Error(), "1000.00")
}

func TestValidateExactlyAtMinimum(t *testing.T) {
	v := newValidator(nil)

	d, err := v.Validate(context.Background(), "ilkindirim", "b-1", decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "30", d.Amount.String())
}

func TestValidateAlreadyRedeemed(t *testing.T) {
	v := newValidator(map[string]bool{"b-1/ilkindirim": true})

	_, err := v.Validate(context.Background(), "ilkindirim", "b-1", decimal.NewFromInt(5000))
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)

	// A different buyer can still use the code.
	_, err = v.Validate(context.Background(), "ilkindirim", "b-2", decimal.NewFromInt(5000))
	assert.NoError(t, err)
}

func TestValidateCheckOrder(t *testing.T) {
	// Unknown code wins over anonymous buyer; anonymous wins over minimum.
	v := newValidator(nil)

	_, err := v.Validate(context.Background(), "yok", "", decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	_, err = v.Validate(context.Background(), "ilkindirim", "", decimal.Zero)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestValidateRoundsToCents(t *testing.T) {
	v := newValidator(nil)

	d, err := v.Validate(context.Background(), "ilkindirim", "b-1", decimal.RequireFromString("1234.56"))
	require.NoError(t, err)
	// 3% of 1234.56 = 37.0368, rounded to cents.
	assert.Equal(t, "37.04", d.Amount.String())
}
