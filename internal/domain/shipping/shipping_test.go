package shipping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	cfg := SellerConfig{
		SellerID:            "s-1",
		FlatFee:             decimal.NewFromInt(50),
		FreeShippingEnabled: true,
		FreeThreshold:       decimal.NewFromInt(1000),
	}

	tests := []struct {
		name     string
		cfg      SellerConfig
		subtotal string
		want     string
	}{
		{"above threshold", cfg, "1200", "0"},
		{"exactly at threshold ships free", cfg, "1000", "0"},
		{"below threshold", cfg, "999.99", "50"},
		{"free shipping disabled", SellerConfig{FlatFee: decimal.NewFromInt(50)}, "5000", "50"},
		{"unset config charges nothing", SellerConfig{}, "100", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.cfg, decimal.RequireFromString(tt.subtotal))
			assert.Equal(t, tt.want, got.String())
		})
	}
}
