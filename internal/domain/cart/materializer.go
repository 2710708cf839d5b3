package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/ekalkan/pazaryeri/internal/domain/listing"
	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
)

// Materializer joins raw cart lines against current listing records and the
// owning sellers' shipping configuration.
type Materializer struct {
	listings listing.Repository
	shipping shipping.Repository
}

// NewMaterializer creates a Materializer with the required repositories.
func NewMaterializer(listings listing.Repository, configs shipping.Repository) *Materializer {
	return &Materializer{listings: listings, shipping: configs}
}

// Materialized is the result of enriching a set of cart lines.
type Materialized struct {
	Lines []EnrichedLine
	// Unavailable holds lines whose listing no longer resolves or has no
	// stock. They are excluded from every total but reported so the caller
	// can tell the buyer instead of silently dropping the item.
	Unavailable []Line
}

// Materialize enriches lines in two batch fetches (listings, then shipping
// configs). Quantities are re-clamped against current stock.
func (m *Materializer) Materialize(ctx context.Context, lines []Line) (*Materialized, error) {
	if len(lines) == 0 {
		return &Materialized{}, nil
	}

	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ListingID]; ok {
			continue
		}
		seen[l.ListingID] = struct{}{}
		ids = append(ids, l.ListingID)
	}

	fetched, err := m.listings.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get listings")
	}
	byID := make(map[string]*listing.Listing, len(fetched))
	sellerIDs := make([]string, 0, len(fetched))
	sellerSeen := make(map[string]struct{}, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
		if _, ok := sellerSeen[fetched[i].SellerID]; !ok {
			sellerSeen[fetched[i].SellerID] = struct{}{}
			sellerIDs = append(sellerIDs, fetched[i].SellerID)
		}
	}

	configs, err := m.shipping.GetBySellerIDs(ctx, sellerIDs)
	if err != nil {
		return nil, errors.Wrap(err, "get shipping configs")
	}

	out := &Materialized{}
	for _, l := range lines {
		rec, ok := byID[l.ListingID]
		if !ok || rec.Stock <= 0 {
			out.Unavailable = append(out.Unavailable, l)
			continue
		}

		cfg, ok := configs[rec.SellerID]
		if !ok {
			cfg = shipping.SellerConfig{SellerID: rec.SellerID}
		}

		image := ""
		if len(rec.Images) > 0 {
			image = rec.Images[0]
		}

		out.Lines = append(out.Lines, EnrichedLine{
			ListingID:  rec.ID,
			SellerID:   rec.SellerID,
			Title:      rec.Title,
			Image:      image,
			UnitPrice:  rec.EffectivePrice(),
			Quantity:   ClampQuantity(l.Quantity, rec.Stock),
			Selections: l.Selections,
			Shipping:   cfg,
		})
	}
	return out, nil
}
