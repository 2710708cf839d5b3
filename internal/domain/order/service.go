package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrNotSeller is returned when the acting seller does not own the order.
	ErrNotSeller = errors.New("order belongs to another seller")
	// ErrNotBuyer is returned when the acting buyer did not place the order.
	ErrNotBuyer = errors.New("order placed by another buyer")
	// ErrTrackingTooShort is returned when a tracking code fails length validation.
	ErrTrackingTooShort = errors.New("tracking code too short")
	// ErrCarrierRequired is returned when shipping without a carrier selection.
	ErrCarrierRequired = errors.New("carrier selection required")
	// ErrReturnClosed is returned when the return window has passed or a
	// return is already in flight.
	ErrReturnClosed = errors.New("return not available for this order")
	// ErrReturnState is returned on an illegal return sub-state transition.
	ErrReturnState = errors.New("return is not in the required state")
)

// Repository defines persistence operations for orders. Save persists status,
// shipment, return, and delivery fields to both the buyer order and its
// seller-facing mirror.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]Order, error)
	Save(ctx context.Context, o *Order) error
	// DeleteTerminalBefore removes terminal orders whose last update is older
	// than cutoff, returning how many were deleted.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier is told about committed status changes; implementations enqueue
// e-mail, fire-and-forget. A nil error is not required reading for callers.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, o *Order) error
}

// Service enforces the order lifecycle. All transition guards live here, not
// in HTTP handlers.
type Service struct {
	orders   Repository
	notifier Notifier
	now      func() time.Time
}

// NewService creates an order Service.
func NewService(orders Repository, notifier Notifier) *Service {
	return &Service{orders: orders, notifier: notifier, now: time.Now}
}

func (s *Service) sellerOrder(ctx context.Context, sellerID, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.SellerID != sellerID {
		return nil, ErrNotSeller
	}
	return o, nil
}

func (s *Service) transition(ctx context.Context, o *Order, to Status) error {
	if !CanTransition(o.Status, to) {
		return &TransitionError{From: o.Status, To: to}
	}
	o.Status = to
	o.UpdatedAt = s.now()
	if err := s.orders.Save(ctx, o); err != nil {
		return errors.Wrap(err, "save order")
	}
	if s.notifier != nil {
		_ = s.notifier.OrderStatusChanged(ctx, o)
	}
	return nil
}

// Approve moves a pending order to approved. Seller action only.
func (s *Service) Approve(ctx context.Context, sellerID, orderID string) (*Order, error) {
	o, err := s.sellerOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, o, StatusApproved); err != nil {
		return nil, err
	}
	return o, nil
}

// Ship moves an approved order to shipped. The carrier and a tracking code of
// minimum length must both be present before the transition commits.
func (s *Service) Ship(ctx context.Context, sellerID, orderID, carrier, tracking string) (*Order, error) {
	o, err := s.sellerOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}
	if carrier == "" {
		return nil, ErrCarrierRequired
	}
	if len(tracking) < MinTrackingLen {
		return nil, ErrTrackingTooShort
	}
	o.Carrier = carrier
	o.TrackingCode = tracking
	if err := s.transition(ctx, o, StatusShipped); err != nil {
		return nil, err
	}
	return o, nil
}

// MarkDelivered records delivery. This is an explicit seller or carrier
// input; nothing advances shipped orders automatically.
func (s *Service) MarkDelivered(ctx context.Context, sellerID, orderID string) (*Order, error) {
	o, err := s.sellerOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	o.DeliveredAt = &now
	if err := s.transition(ctx, o, StatusDelivered); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel moves a pending or approved order to cancelled. Either side may
// cancel; actorID must match the order's buyer or seller.
func (s *Service) Cancel(ctx context.Context, actorID, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actorID != o.BuyerID && actorID != o.SellerID {
		return nil, ErrNotBuyer
	}
	if err := s.transition(ctx, o, StatusCancelled); err != nil {
		return nil, err
	}
	return o, nil
}

// RequestReturn opens the return sub-flow. Allowed while the order is shipped
// or within ReturnWindow of delivery.
func (s *Service) RequestReturn(ctx context.Context, buyerID, orderID, reason string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != buyerID {
		return nil, ErrNotBuyer
	}
	if !o.ReturnOpen(s.now()) {
		return nil, ErrReturnClosed
	}
	o.ReturnState = ReturnRequested
	o.ReturnReason = reason
	o.UpdatedAt = s.now()
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	return o, nil
}

// ResolveReturn lets the seller approve or reject an open return request.
func (s *Service) ResolveReturn(ctx context.Context, sellerID, orderID string, approve bool) (*Order, error) {
	o, err := s.sellerOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}
	if o.ReturnState != ReturnRequested {
		return nil, ErrReturnState
	}
	if approve {
		o.ReturnState = ReturnApproved
	} else {
		o.ReturnState = ReturnRejected
	}
	o.UpdatedAt = s.now()
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	return o, nil
}

// CompleteReturn records the buyer's return shipment tracking code and closes
// the return. Requires an approved return and a tracking code of minimum length.
func (s *Service) CompleteReturn(ctx context.Context, buyerID, orderID, tracking string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != buyerID {
		return nil, ErrNotBuyer
	}
	if o.ReturnState != ReturnApproved {
		return nil, ErrReturnState
	}
	if len(tracking) < MinTrackingLen {
		return nil, ErrTrackingTooShort
	}
	o.ReturnTracking = tracking
	o.ReturnState = ReturnCompleted
	o.UpdatedAt = s.now()
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	return o, nil
}

// ListByBuyer returns the buyer's orders, newest first.
func (s *Service) ListByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

// ListBySeller returns the seller's queue, newest first.
func (s *Service) ListBySeller(ctx context.Context, sellerID string) ([]Order, error) {
	return s.orders.ListBySeller(ctx, sellerID)
}

// SweepTerminal deletes terminal orders untouched for TerminalRetention.
func (s *Service) SweepTerminal(ctx context.Context) (int64, error) {
	return s.orders.DeleteTerminalBefore(ctx, s.now().Add(-TerminalRetention))
}
