package listing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested listing does not exist.
var ErrNotFound = errors.New("listing not found")

// ErrNotOwner is returned when a seller mutates a listing they do not own.
var ErrNotOwner = errors.New("listing owned by another seller")

// Listing is a sellable item posted by a seller.
type Listing struct {
	ID          string
	SellerID    string
	SellerEmail string
	Title       string
	Description string
	Price       decimal.Decimal
	// DiscountedPrice, when set, is the price actually charged.
	DiscountedPrice *decimal.Decimal
	Stock           int
	Category        string
	Images          []string
	// Variants is open metadata: option name to the values the buyer can pick
	// from (size, color, weight, expiry date of the goods, ...).
	Variants map[string][]string

	Boosted        bool
	BoostExpiresAt *time.Time
	CreatedAt      time.Time
}

// EffectivePrice returns the discounted price when one is set and lower than
// the regular price, otherwise the regular price.
func (l *Listing) EffectivePrice() decimal.Decimal {
	if l.DiscountedPrice != nil && l.DiscountedPrice.LessThan(l.Price) {
		return *l.DiscountedPrice
	}
	return l.Price
}

// BoostActive reports whether a paid boost is still in effect at now.
// The stored flag alone is not authoritative: expiry is implicit.
func (l *Listing) BoostActive(now time.Time) bool {
	return l.Boosted && l.BoostExpiresAt != nil && now.Before(*l.BoostExpiresAt)
}

// ValidVariantSelection reports whether every chosen option exists in the
// listing's variant metadata with the chosen value.
func (l *Listing) ValidVariantSelection(selections map[string]string) bool {
	for name, chosen := range selections {
		values, ok := l.Variants[name]
		if !ok {
			return false
		}
		found := false
		for _, v := range values {
			if v == chosen {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Filter narrows List results.
type Filter struct {
	Category string
	SellerID string
}

// Repository defines persistence operations for listings.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Listing, error)
	GetByID(ctx context.Context, id string) (*Listing, error)
	GetByIDs(ctx context.Context, ids []string) ([]Listing, error)
	Create(ctx context.Context, l *Listing) error
	Update(ctx context.Context, l *Listing) error
	Delete(ctx context.Context, id string) error
	// SetBoost sets the boost flag and expiry on a listing.
	SetBoost(ctx context.Context, id string, boosted bool, expiresAt *time.Time) error
	// ClearExpiredBoosts unsets the flag on listings whose expiry has passed.
	ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error)
}
