package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ekalkan/pazaryeri/internal/domain/cart"
	"github.com/ekalkan/pazaryeri/internal/domain/checkout"
	"github.com/ekalkan/pazaryeri/internal/payment"
)

type checkoutPayload struct {
	AddressID  string            `json:"address_id"`
	Instrument string            `json:"instrument"`
	CardToken  string            `json:"card_token"`
	CouponCode string            `json:"coupon_code,omitempty"`
	GuestLines []cartLinePayload `json:"guest_lines,omitempty"`
}

type groupQuoteResponse struct {
	SellerID    string            `json:"seller_id"`
	Lines       []cartLinePayload `json:"lines"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Discount    decimal.Decimal   `json:"discount"`
	ShippingFee decimal.Decimal   `json:"shipping_fee"`
	Total       decimal.Decimal   `json:"total"`
}

type quoteResponse struct {
	Groups          []groupQuoteResponse `json:"groups"`
	Unavailable     []cartLinePayload    `json:"unavailable,omitempty"`
	ProductSubtotal decimal.Decimal      `json:"product_subtotal"`
	Discount        decimal.Decimal      `json:"discount"`
	ShippingTotal   decimal.Decimal      `json:"shipping_total"`
	Total           decimal.Decimal      `json:"total"`
	CouponCode      string               `json:"coupon_code,omitempty"`
}

func guestLines(payloads []cartLinePayload) []cart.Line {
	lines := make([]cart.Line, len(payloads))
	for i, p := range payloads {
		lines[i] = cart.Line{ListingID: p.ListingID, Quantity: p.Quantity, Selections: p.Selections}
	}
	return lines
}

func toQuoteResponse(q *checkout.Quote) quoteResponse {
	resp := quoteResponse{
		ProductSubtotal: q.ProductSubtotal,
		Discount:        q.Discount,
		ShippingTotal:   q.ShippingTotal,
		Total:           q.Total,
	}
	if q.Coupon != nil {
		resp.CouponCode = q.Coupon.Code
	}
	for _, g := range q.Groups {
		lines := make([]cartLinePayload, len(g.Lines))
		for i, l := range g.Lines {
			lines[i] = cartLinePayload{ListingID: l.ListingID, Quantity: l.Quantity, Selections: l.Selections}
		}
		resp.Groups = append(resp.Groups, groupQuoteResponse{
			SellerID:    g.SellerID,
			Lines:       lines,
			Subtotal:    g.Subtotal,
			Discount:    g.Discount,
			ShippingFee: g.ShippingFee,
			Total:       g.Total,
		})
	}
	for _, l := range q.Unavailable {
		resp.Unavailable = append(resp.Unavailable, cartLinePayload{
			ListingID: l.ListingID, Quantity: l.Quantity, Selections: l.Selections,
		})
	}
	return resp
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var p checkoutPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	id := identity(r)
	q, err := h.checkouts.Quote(r.Context(),
		checkout.Buyer{ID: id.ID, Email: id.Email},
		guestLines(p.GuestLines), p.CouponCode)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toQuoteResponse(q))
}

type placedOrderResponse struct {
	ID       string          `json:"id"`
	SellerID string          `json:"seller_id"`
	Status   string          `json:"status"`
	Total    decimal.Decimal `json:"total"`
}

type checkoutResponse struct {
	CheckoutID string                `json:"checkout_id"`
	Orders     []placedOrderResponse `json:"orders"`
	Total      decimal.Decimal       `json:"total"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var p checkoutPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	id := identity(r)
	res, err := h.checkouts.Place(r.Context(),
		checkout.Buyer{ID: id.ID, Email: id.Email},
		p.AddressID,
		checkout.Instrument{Kind: payment.Kind(p.Instrument), Token: p.CardToken},
		guestLines(p.GuestLines),
		p.CouponCode,
	)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := checkoutResponse{CheckoutID: res.CheckoutID, Total: res.Total}
	for _, o := range res.Orders {
		resp.Orders = append(resp.Orders, placedOrderResponse{
			ID:       o.ID,
			SellerID: o.SellerID,
			Status:   string(o.Status),
			Total:    o.Total,
		})
	}
	respond(w, http.StatusCreated, resp)
}
