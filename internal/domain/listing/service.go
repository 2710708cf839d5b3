package listing

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ekalkan/pazaryeri/internal/payment"
)

// BoostConfig prices the paid promotion.
type BoostConfig struct {
	Price    decimal.Decimal
	Duration time.Duration
	Currency string
}

// Service wraps listing persistence with ownership checks and the paid boost.
type Service struct {
	repo     Repository
	gateways *payment.Router
	boost    BoostConfig
	now      func() time.Time
}

// NewService creates a listing Service.
func NewService(repo Repository, gateways *payment.Router, boost BoostConfig) *Service {
	return &Service{repo: repo, gateways: gateways, boost: boost, now: time.Now}
}

// Browse returns listings matching the filter, actively boosted ones first.
// Within each band the repository's ordering (newest first) is preserved.
func (s *Service) Browse(ctx context.Context, f Filter) ([]Listing, error) {
	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list listings")
	}

	now := s.now()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BoostActive(now) && !out[j].BoostActive(now)
	})
	return out, nil
}

// Get returns one listing by id.
func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new listing for the seller.
func (s *Service) Create(ctx context.Context, l *Listing) (*Listing, error) {
	l.ID = uuid.New().String()
	l.Boosted = false
	l.BoostExpiresAt = nil
	l.CreatedAt = s.now()
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, errors.Wrap(err, "create listing")
	}
	return l, nil
}

// Update applies seller edits after verifying ownership. Boost fields are not
// editable through this path.
func (s *Service) Update(ctx context.Context, sellerID string, l *Listing) (*Listing, error) {
	current, err := s.repo.GetByID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	if current.SellerID != sellerID {
		return nil, ErrNotOwner
	}

	l.SellerID = current.SellerID
	l.SellerEmail = current.SellerEmail
	l.Boosted = current.Boosted
	l.BoostExpiresAt = current.BoostExpiresAt
	l.CreatedAt = current.CreatedAt
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, errors.Wrap(err, "update listing")
	}
	return l, nil
}

// Delete removes the seller's own listing.
func (s *Service) Delete(ctx context.Context, sellerID, id string) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.SellerID != sellerID {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, id)
}

// Boost charges the seller the fixed promotion price and marks the listing
// boosted until now plus the configured duration.
func (s *Service) Boost(ctx context.Context, sellerID, id string, kind payment.Kind, cardToken string) (*Listing, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.SellerID != sellerID {
		return nil, ErrNotOwner
	}

	gateway, err := s.gateways.For(kind)
	if err != nil {
		return nil, err
	}
	if _, err := gateway.Charge(ctx, payment.ChargeRequest{
		Amount:     s.boost.Price,
		Currency:   s.boost.Currency,
		BuyerID:    sellerID,
		BuyerEmail: current.SellerEmail,
		CardToken:  cardToken,
	}); err != nil {
		return nil, errors.Wrap(err, "charge boost")
	}

	expires := s.now().Add(s.boost.Duration)
	if err := s.repo.SetBoost(ctx, id, true, &expires); err != nil {
		return nil, errors.Wrap(err, "set boost")
	}

	current.Boosted = true
	current.BoostExpiresAt = &expires
	return current, nil
}

// SweepBoosts clears the boost flag on listings whose expiry has passed and
// returns how many were cleared.
func (s *Service) SweepBoosts(ctx context.Context) (int64, error) {
	return s.repo.ClearExpiredBoosts(ctx, s.now())
}
