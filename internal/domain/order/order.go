package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the closed set of order states. Transitions are validated by
// CanTransition before any write; handlers never compare raw strings.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusShipped, StatusCancelled},
	StatusShipped:  {StatusDelivered},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError indicates an illegal status transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// ReturnState is the independent return sub-lifecycle attached to an order
// once it has shipped.
type ReturnState string

const (
	ReturnNone      ReturnState = ""
	ReturnRequested ReturnState = "return_requested"
	ReturnApproved  ReturnState = "return_approved"
	ReturnRejected  ReturnState = "return_rejected"
	ReturnCompleted ReturnState = "return_completed"
)

// ReturnWindow is how long after delivery a buyer may still open a return.
const ReturnWindow = 7 * 24 * time.Hour

// TerminalRetention is how long terminal orders are kept before the periodic
// sweep may delete them, measured from the last update.
const TerminalRetention = 7 * 24 * time.Hour

// MinTrackingLen is the minimum accepted length for carrier tracking codes,
// both outbound and return.
const MinTrackingLen = 6

// Item is a frozen line-item snapshot carried by an order. It deliberately
// copies title, price, and image so later listing edits don't rewrite history.
type Item struct {
	ListingID  string            `json:"listing_id"`
	Title      string            `json:"title"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	Quantity   int               `json:"quantity"`
	Image      string            `json:"image,omitempty"`
	Selections map[string]string `json:"selections,omitempty"`
}

// Address is the shipping address snapshot frozen at checkout.
type Address struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Postcode string `json:"postcode,omitempty"`
}

// Order is one buyer-facing order record: one per seller group per checkout.
type Order struct {
	ID         string
	CheckoutID string
	BuyerID    string
	BuyerEmail string
	SellerID   string
	Status     Status
	Items      []Item
	Address    Address

	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
	CouponCode  string

	Carrier      string
	TrackingCode string
	InvoiceFile  string

	ReturnState    ReturnState
	ReturnReason   string
	ReturnTracking string

	DeliveredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Terminal reports whether the order has reached a state the cleanup sweep
// may delete: cancelled, or delivered with no return in flight.
func (o *Order) Terminal() bool {
	switch o.Status {
	case StatusCancelled:
		return true
	case StatusDelivered:
		return o.ReturnState == ReturnNone ||
			o.ReturnState == ReturnRejected ||
			o.ReturnState == ReturnCompleted
	}
	return false
}

// ReturnOpen reports whether a return request may be opened at now: the order
// is shipped, or delivered within the return window.
func (o *Order) ReturnOpen(now time.Time) bool {
	if o.ReturnState != ReturnNone {
		return false
	}
	switch o.Status {
	case StatusShipped:
		return true
	case StatusDelivered:
		return o.DeliveredAt != nil && now.Sub(*o.DeliveredAt) <= ReturnWindow
	}
	return false
}
