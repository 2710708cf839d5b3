package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ekalkan/pazaryeri/internal/domain/cart"
	"github.com/ekalkan/pazaryeri/internal/domain/coupon"
	"github.com/ekalkan/pazaryeri/internal/domain/order"
	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
	"github.com/ekalkan/pazaryeri/internal/payment"
)

// Currency is the marketplace's single settlement currency.
const Currency = "TRY"

// Service runs the checkout pipeline: materialize, group by seller, resolve
// shipping, evaluate the coupon, price, charge, and persist.
type Service struct {
	carts        cart.Repository
	materializer *cart.Materializer
	coupons      coupon.Validator
	addresses    AddressRepository
	repo         Repository
	gateways     *payment.Router
	notifier     Notifier
	now          func() time.Time
}

// NewService creates a checkout Service with its domain dependencies.
func NewService(
	carts cart.Repository,
	materializer *cart.Materializer,
	coupons coupon.Validator,
	addresses AddressRepository,
	repo Repository,
	gateways *payment.Router,
	notifier Notifier,
) *Service {
	return &Service{
		carts:        carts,
		materializer: materializer,
		coupons:      coupons,
		addresses:    addresses,
		repo:         repo,
		gateways:     gateways,
		notifier:     notifier,
		now:          time.Now,
	}
}

// Quote prices the buyer's cart, optionally merged with inline guest lines
// and with a coupon applied. It performs no writes.
func (s *Service) Quote(ctx context.Context, buyer Buyer, guestLines []cart.Line, couponCode string) (*Quote, error) {
	persisted, err := s.carts.ListByBuyer(ctx, buyer.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}

	mat, err := s.materializer.Materialize(ctx, cart.Merge(persisted, guestLines))
	if err != nil {
		return nil, errors.Wrap(err, "materialize cart")
	}

	groups := cart.GroupBySeller(mat.Lines)

	q := &Quote{
		Unavailable:     mat.Unavailable,
		ProductSubtotal: decimal.Zero,
		Discount:        decimal.Zero,
		ShippingTotal:   decimal.Zero,
		Total:           decimal.Zero,
	}

	subtotals := make([]decimal.Decimal, len(groups))
	for i, g := range groups {
		subtotals[i] = g.Subtotal()
		q.ProductSubtotal = q.ProductSubtotal.Add(subtotals[i])
	}

	// The coupon is evaluated against the overall product subtotal, across
	// all seller groups, before any shipping is added.
	if couponCode != "" {
		d, err := s.coupons.Validate(ctx, couponCode, buyer.ID, q.ProductSubtotal)
		if err != nil {
			return nil, err
		}
		q.Coupon = d
		q.Discount = d.Amount
	}

	shares := prorate(q.Discount, subtotals, q.ProductSubtotal)

	for i, g := range groups {
		fee := shipping.Resolve(g.Shipping, subtotals[i])
		gq := GroupQuote{
			SellerID:    g.SellerID,
			Lines:       g.Lines,
			Subtotal:    subtotals[i],
			Discount:    shares[i],
			ShippingFee: fee,
			Total:       subtotals[i].Sub(shares[i]).Add(fee),
		}
		q.Groups = append(q.Groups, gq)
		q.ShippingTotal = q.ShippingTotal.Add(fee)
		q.Total = q.Total.Add(gq.Total)
	}

	return q, nil
}

// prorate splits one discount across groups proportionally to their subtotal.
// The last group absorbs the rounding remainder so the shares sum exactly.
func prorate(discount decimal.Decimal, subtotals []decimal.Decimal, total decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(subtotals))
	if discount.IsZero() || total.IsZero() || len(subtotals) == 0 {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares
	}

	allocated := decimal.Zero
	for i := range subtotals {
		if i == len(subtotals)-1 {
			shares[i] = discount.Sub(allocated)
			break
		}
		shares[i] = discount.Mul(subtotals[i]).Div(total).Round(2)
		allocated = allocated.Add(shares[i])
	}
	return shares
}

// Place runs a full checkout: quote, charge the gateway for the grand total,
// then write every order, the seller mirrors, the redemption row, and the
// cart wipe in one transaction. A failed transaction refunds the charge.
func (s *Service) Place(
	ctx context.Context,
	buyer Buyer,
	addressID string,
	instrument Instrument,
	guestLines []cart.Line,
	couponCode string,
) (*Result, error) {
	if addressID == "" {
		return nil, ErrAddressRequired
	}

	q, err := s.Quote(ctx, buyer, guestLines, couponCode)
	if err != nil {
		return nil, err
	}
	if len(q.Groups) == 0 {
		return nil, ErrEmptyCart
	}

	addr, err := s.addresses.GetByID(ctx, buyer.ID, addressID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve address")
	}

	gateway, err := s.gateways.For(instrument.Kind)
	if err != nil {
		return nil, err
	}

	charge, err := gateway.Charge(ctx, payment.ChargeRequest{
		Amount:     q.Total,
		Currency:   Currency,
		BuyerID:    buyer.ID,
		BuyerEmail: buyer.Email,
		CardToken:  instrument.Token,
	})
	if err != nil {
		return nil, errors.Wrap(err, "charge")
	}

	res := &Result{
		CheckoutID: uuid.New().String(),
		PaymentRef: charge.Reference,
		Total:      q.Total,
	}

	now := s.now()
	couponApplied := ""
	if q.Coupon != nil {
		couponApplied = q.Coupon.Code
	}
	for _, g := range q.Groups {
		items := make([]order.Item, len(g.Lines))
		for i, l := range g.Lines {
			items[i] = order.Item{
				ListingID:  l.ListingID,
				Title:      l.Title,
				UnitPrice:  l.UnitPrice,
				Quantity:   l.Quantity,
				Image:      l.Image,
				Selections: l.Selections,
			}
		}
		res.Orders = append(res.Orders, &order.Order{
			ID:          uuid.New().String(),
			CheckoutID:  res.CheckoutID,
			BuyerID:     buyer.ID,
			BuyerEmail:  buyer.Email,
			SellerID:    g.SellerID,
			Status:      order.StatusPending,
			Items:       items,
			Address:     *addr,
			Subtotal:    g.Subtotal,
			Discount:    g.Discount,
			ShippingFee: g.ShippingFee,
			Total:       g.Total,
			CouponCode:  couponApplied,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	var redemption *coupon.Redemption
	if q.Coupon != nil {
		redemption = &coupon.Redemption{
			BuyerID:    buyer.ID,
			Code:       q.Coupon.Code,
			OrderTotal: q.Total,
			RedeemedAt: now,
		}
	}

	if err := s.repo.CreateCheckout(ctx, res.Orders, redemption, buyer.ID); err != nil {
		// The buyer was already charged; compensate before surfacing.
		if refundErr := gateway.Refund(ctx, charge.Reference, q.Total); refundErr != nil {
			return nil, errors.Wrapf(err, "create orders (refund also failed: %v)", refundErr)
		}
		return nil, errors.Wrap(err, "create orders (charge refunded)")
	}

	if s.notifier != nil {
		_ = s.notifier.CheckoutCompleted(ctx, buyer.Email, res)
	}

	return res, nil
}
