// Package payment holds the HTTP clients for the two external payment
// gateways. Both are hosted endpoints accepting amount + buyer + card-or-token
// and returning success or failure with a gateway reference.
package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind selects which gateway a payment instrument routes to.
type Kind string

const (
	// KindCard routes to the JSON gateway (tokenized cards).
	KindCard Kind = "card"
	// KindCardLegacy routes to the form-encoded legacy gateway (raw PAN flow).
	KindCardLegacy Kind = "card_legacy"
)

// ErrUnknownInstrument is returned when no gateway handles the instrument kind.
var ErrUnknownInstrument = errors.New("unknown payment instrument kind")

// ChargeRequest is the gateway-neutral charge input.
type ChargeRequest struct {
	Amount     decimal.Decimal
	Currency   string
	BuyerID    string
	BuyerEmail string
	// CardToken is the tokenized card for KindCard, or the opaque stored
	// instrument reference for KindCardLegacy.
	CardToken string
}

// ChargeResult carries the gateway's reference for a successful charge.
type ChargeResult struct {
	Reference string
}

// DeclinedError wraps the upstream gateway's rejection message; the text is
// surfaced verbatim to the buyer.
type DeclinedError struct {
	Gateway string
	Message string
}

func (e *DeclinedError) Error() string {
	return e.Gateway + ": " + e.Message
}

// Gateway is one external payment provider.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, reference string, amount decimal.Decimal) error
}

// Router picks a gateway by instrument kind.
type Router struct {
	gateways map[Kind]Gateway
}

// NewRouter builds a Router over the configured gateways.
func NewRouter(gateways map[Kind]Gateway) *Router {
	return &Router{gateways: gateways}
}

// For returns the gateway handling the given instrument kind.
func (r *Router) For(kind Kind) (Gateway, error) {
	g, ok := r.gateways[kind]
	if !ok {
		return nil, ErrUnknownInstrument
	}
	return g, nil
}
