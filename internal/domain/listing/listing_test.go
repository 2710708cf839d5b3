package listing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	lower := decimal.NewFromInt(80)
	higher := decimal.NewFromInt(120)

	tests := []struct {
		name    string
		listing Listing
		want    string
	}{
		{"no discount", Listing{Price: decimal.NewFromInt(100)}, "100"},
		{"discount lower", Listing{Price: decimal.NewFromInt(100), DiscountedPrice: &lower}, "80"},
		{"discount higher ignored", Listing{Price: decimal.NewFromInt(100), DiscountedPrice: &higher}, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.listing.EffectivePrice().String())
		})
	}
}

func TestBoostActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.False(t, (&Listing{}).BoostActive(now))
	assert.False(t, (&Listing{Boosted: true}).BoostActive(now))
	assert.False(t, (&Listing{Boosted: true, BoostExpiresAt: &past}).BoostActive(now))
	assert.True(t, (&Listing{Boosted: true, BoostExpiresAt: &future}).BoostActive(now))
}

func TestValidVariantSelection(t *testing.T) {
	l := &Listing{Variants: map[string][]string{
		"size":  {"S", "M", "L"},
		"color": {"red", "blue"},
	}}

	assert.True(t, l.ValidVariantSelection(nil))
	assert.True(t, l.ValidVariantSelection(map[string]string{"size": "M"}))
	assert.True(t, l.ValidVariantSelection(map[string]string{"size": "M", "color": "red"}))
	assert.False(t, l.ValidVariantSelection(map[string]string{"size": "XL"}))
	assert.False(t, l.ValidVariantSelection(map[string]string{"material": "wool"}))
}
