package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ekalkan/pazaryeri/internal/domain/cart"
	"github.com/ekalkan/pazaryeri/internal/domain/coupon"
	"github.com/ekalkan/pazaryeri/internal/domain/order"
	"github.com/ekalkan/pazaryeri/internal/payment"
)

var (
	// ErrEmptyCart is returned when a quote or checkout finds nothing payable.
	ErrEmptyCart = errors.New("cart has no available items")
	// ErrAddressRequired is returned when checkout runs without an address.
	ErrAddressRequired = errors.New("shipping address required")
	// ErrAddressNotFound is returned when the address id does not resolve for
	// the buyer.
	ErrAddressNotFound = errors.New("address not found")
)

// Buyer is the acting identity for quote and checkout.
type Buyer struct {
	ID    string
	Email string
}

// Instrument is the chosen payment instrument: the kind routes to one of the
// two gateways, the token is whatever that gateway accepts.
type Instrument struct {
	Kind  payment.Kind
	Token string
}

// GroupQuote is the priced view of one seller group.
type GroupQuote struct {
	SellerID    string
	Lines       []cart.EnrichedLine
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// Quote is the full priced view of a cart. Recomputing it from unchanged
// inputs yields identical numbers.
type Quote struct {
	Groups      []GroupQuote
	Unavailable []cart.Line

	ProductSubtotal decimal.Decimal
	Discount        decimal.Decimal
	ShippingTotal   decimal.Decimal
	Total           decimal.Decimal

	Coupon *coupon.Discount
}

// Result is a completed checkout: one order per seller group, all pending.
type Result struct {
	CheckoutID string
	Orders     []*order.Order
	PaymentRef string
	Total      decimal.Decimal
}

// AddressRepository resolves a buyer's saved address for the frozen snapshot.
type AddressRepository interface {
	GetByID(ctx context.Context, accountID, addressID string) (*order.Address, error)
}

// Repository writes a whole checkout atomically: every buyer order, every
// seller mirror, the redemption row when present, and the cart wipe commit or
// roll back together.
type Repository interface {
	CreateCheckout(ctx context.Context, orders []*order.Order, redemption *coupon.Redemption, clearCartBuyerID string) error
}

// Notifier is told about completed checkouts; implementations enqueue the
// confirmation e-mail.
type Notifier interface {
	CheckoutCompleted(ctx context.Context, buyerEmail string, res *Result) error
}
