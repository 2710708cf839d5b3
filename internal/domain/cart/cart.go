package cart

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
)

// MaxLineQuantity caps how many units of one listing a single cart line may
// hold, independent of stock.
const MaxLineQuantity = 10

// Line is one raw cart row: a listing reference, a quantity, and the variant
// options the buyer chose (option name to single value).
type Line struct {
	BuyerID    string
	ListingID  string
	Quantity   int
	Selections map[string]string
}

// ClampQuantity bounds q to [1, min(MaxLineQuantity, stock)].
func ClampQuantity(q, stock int) int {
	limit := MaxLineQuantity
	if stock < limit {
		limit = stock
	}
	if limit < 1 {
		limit = 1
	}
	if q < 1 {
		return 1
	}
	if q > limit {
		return limit
	}
	return q
}

// EnrichedLine is a cart line joined against the current listing record and
// the owning seller's shipping configuration.
type EnrichedLine struct {
	ListingID  string
	SellerID   string
	Title      string
	Image      string
	UnitPrice  decimal.Decimal
	Quantity   int
	Selections map[string]string
	Shipping   shipping.SellerConfig
}

// LineTotal returns unit price times quantity.
func (l EnrichedLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SellerGroup is the subset of enriched lines belonging to one seller: the
// unit of shipping fee computation and order creation.
type SellerGroup struct {
	SellerID string
	Shipping shipping.SellerConfig
	Lines    []EnrichedLine
}

// Subtotal sums the group's line totals at effective unit prices.
func (g SellerGroup) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range g.Lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// GroupBySeller partitions enriched lines by seller identity. Groups are
// returned ordered by seller id so repeated computations iterate identically,
// though no downstream computation depends on the order.
func GroupBySeller(lines []EnrichedLine) []SellerGroup {
	bySeller := make(map[string]*SellerGroup)
	for _, l := range lines {
		g, ok := bySeller[l.SellerID]
		if !ok {
			g = &SellerGroup{SellerID: l.SellerID, Shipping: l.Shipping}
			bySeller[l.SellerID] = g
		}
		g.Lines = append(g.Lines, l)
	}

	groups := make([]SellerGroup, 0, len(bySeller))
	for _, g := range bySeller {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].SellerID < groups[j].SellerID })
	return groups
}

// Merge reconciles an anonymous guest cart with the buyer's persisted lines.
// Lines referencing the same listing with the same selections merge by adding
// quantities; clamping is re-applied later by the materializer, which knows
// current stock.
func Merge(persisted, guest []Line) []Line {
	merged := make([]Line, len(persisted))
	copy(merged, persisted)

	for _, g := range guest {
		found := false
		for i := range merged {
			if merged[i].ListingID == g.ListingID && sameSelections(merged[i].Selections, g.Selections) {
				merged[i].Quantity += g.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, g)
		}
	}
	return merged
}

func sameSelections(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Repository defines persistence for authenticated buyers' cart lines.
// Guest carts live client-side and only ever arrive inline on requests.
type Repository interface {
	ListByBuyer(ctx context.Context, buyerID string) ([]Line, error)
	Upsert(ctx context.Context, line Line) error
	Delete(ctx context.Context, buyerID, listingID string) error
	// DeleteAll removes every line for the buyer; checkout calls this inside
	// its transaction via the checkout repository instead.
	DeleteAll(ctx context.Context, buyerID string) error
}
