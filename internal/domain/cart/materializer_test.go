package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekalkan/pazaryeri/internal/domain/listing"
	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
)

type stubListings struct {
	byID map[string]listing.Listing
}

func (s *stubListings) GetByIDs(_ context.Context, ids []string) ([]listing.Listing, error) {
	var out []listing.Listing
	for _, id := range ids {
		if l, ok := s.byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}
func (s *stubListings) List(context.Context, listing.Filter) ([]listing.Listing, error) {
	return nil, nil
}
func (s *stubListings) GetByID(context.Context, string) (*listing.Listing, error) {
	return nil, listing.ErrNotFound
}
func (s *stubListings) Create(context.Context, *listing.Listing) error { return nil }
func (s *stubListings) Update(context.Context, *listing.Listing) error { return nil }
func (s *stubListings) Delete(context.Context, string) error           { return nil }
func (s *stubListings) SetBoost(context.Context, string, bool, *time.Time) error {
	return nil
}
func (s *stubListings) ClearExpiredBoosts(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubConfigs struct {
	byseller map[string]shipping.SellerConfig
}

func (s *stubConfigs) Get(_ context.Context, id string) (shipping.SellerConfig, error) {
	return s.byseller[id], nil
}
func (s *stubConfigs) GetBySellerIDs(_ context.Context, ids []string) (map[string]shipping.SellerConfig, error) {
	out := make(map[string]shipping.SellerConfig)
	for _, id := range ids {
		if cfg, ok := s.byseller[id]; ok {
			out[id] = cfg
		}
	}
	return out, nil
}
func (s *stubConfigs) Upsert(context.Context, shipping.SellerConfig) error { return nil }

func discounted(d string) *decimal.Decimal {
	v := decimal.RequireFromString(d)
	return &v
}

func TestMaterializeEnrichesLines(t *testing.T) {
	m := NewMaterializer(
		&stubListings{byID: map[string]listing.Listing{
			"l-1": {
				ID: "l-1", SellerID: "s-1", Title: "Wool coat",
				Price:           decimal.NewFromInt(100),
				DiscountedPrice: discounted("90"),
				Stock:           5,
				Images:          []string{"a.jpg", "b.jpg"},
			},
		}},
		&stubConfigs{byseller: map[string]shipping.SellerConfig{
			"s-1": {SellerID: "s-1", FlatFee: decimal.NewFromInt(40)},
		}},
	)

	got, err := m.Materialize(context.Background(), []Line{
		{BuyerID: "b-1", ListingID: "l-1", Quantity: 2, Selections: map[string]string{"size": "M"}},
	})
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)

	l := got.Lines[0]
	assert.Equal(t, "s-1", l.SellerID)
	assert.Equal(t, "Wool coat", l.Title)
	assert.Equal(t, "a.jpg", l.Image)
	assert.Equal(t, "90", l.UnitPrice.String()) // discounted price wins
	assert.Equal(t, "40", l.Shipping.FlatFee.String())
}

func TestMaterializeSurfacesUnavailable(t *testing.T) {
	m := NewMaterializer(
		&stubListings{byID: map[string]listing.Listing{
			"in-stock": {ID: "in-stock", SellerID: "s-1", Price: decimal.NewFromInt(10), Stock: 3},
			"sold-out": {ID: "sold-out", SellerID: "s-1", Price: decimal.NewFromInt(10), Stock: 0},
		}},
		&stubConfigs{byseller: map[string]shipping.SellerConfig{}},
	)

	got, err := m.Materialize(context.Background(), []Line{
		{ListingID: "in-stock", Quantity: 1},
		{ListingID: "sold-out", Quantity: 1},
		{ListingID: "deleted", Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, got.Lines, 1)
	require.Len(t, got.Unavailable, 2)
	assert.Equal(t, "sold-out", got.Unavailable[0].ListingID)
	assert.Equal(t, "deleted", got.Unavailable[1].ListingID)
}

func TestMaterializeReclampsQuantity(t *testing.T) {
	m := NewMaterializer(
		&stubListings{byID: map[string]listing.Listing{
			"l-1": {ID: "l-1", SellerID: "s-1", Price: decimal.NewFromInt(10), Stock: 2},
		}},
		&stubConfigs{byseller: map[string]shipping.SellerConfig{}},
	)

	got, err := m.Materialize(context.Background(), []Line{{ListingID: "l-1", Quantity: 7}})
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)
}

func TestMaterializeEmpty(t *testing.T) {
	m := NewMaterializer(&stubListings{}, &stubConfigs{})
	got, err := m.Materialize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
	assert.Empty(t, got.Unavailable)
}
