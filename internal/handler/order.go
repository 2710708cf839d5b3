package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ekalkan/pazaryeri/internal/domain/order"
)

type orderResponse struct {
	ID           string          `json:"id"`
	CheckoutID   string          `json:"checkout_id"`
	SellerID     string          `json:"seller_id"`
	Status       string          `json:"status"`
	Items        []order.Item    `json:"items"`
	Address      order.Address   `json:"address"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	ShippingFee  decimal.Decimal `json:"shipping_fee"`
	Total        decimal.Decimal `json:"total"`
	CouponCode   string          `json:"coupon_code,omitempty"`
	Carrier      string          `json:"carrier,omitempty"`
	TrackingCode string          `json:"tracking_code,omitempty"`
	ReturnState  string          `json:"return_state,omitempty"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:           o.ID,
		CheckoutID:   o.CheckoutID,
		SellerID:     o.SellerID,
		Status:       string(o.Status),
		Items:        o.Items,
		Address:      o.Address,
		Subtotal:     o.Subtotal,
		Discount:     o.Discount,
		ShippingFee:  o.ShippingFee,
		Total:        o.Total,
		CouponCode:   o.CouponCode,
		Carrier:      o.Carrier,
		TrackingCode: o.TrackingCode,
		ReturnState:  string(o.ReturnState),
		DeliveredAt:  o.DeliveredAt,
		CreatedAt:    o.CreatedAt,
	}
}

func toOrderResponses(orders []order.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	return resp
}

func (h *Handler) listBuyerOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.orders.ListByBuyer(r.Context(), identity(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponses(out))
}

func (h *Handler) listSellerOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.orders.ListBySeller(r.Context(), identity(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponses(out))
}

func (h *Handler) approveOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Approve(r.Context(), identity(r).ID, r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponse(o))
}

type shipPayload struct {
	Carrier      string `json:"carrier"`
	TrackingCode string `json:"tracking_code"`
}

func (h *Handler) shipOrder(w http.ResponseWriter, r *http.Request) {
	var p shipPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	o, err := h.orders.Ship(r.Context(), identity(r).ID, r.PathValue("id"), p.Carrier, p.TrackingCode)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.MarkDelivered(r.Context(), identity(r).ID, r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Cancel(r.Context(), identity(r).ID, r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponse(o))
}

type returnPayload struct {
	Reason       string `json:"reason,omitempty"`
	TrackingCode string `json:"tracking_code,omitempty"`
}

func (h *Handler) requestReturn(w http.ResponseWriter, r *http.Request) {
	var p returnPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	o, err := h.orders.RequestReturn(r.Context(), identity(r).ID, r.PathValue("id"), p.Reason)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) completeReturn(w http.ResponseWriter, r *http.Request) {
	var p returnPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	o, err := h.orders.CompleteReturn(r.Context(), identity(r).ID, r.PathValue("id"), p.TrackingCode)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) approveReturn(w http.ResponseWriter, r *http.Request) {
	h.resolveReturn(w, r, true)
}

func (h *Handler) rejectReturn(w http.ResponseWriter, r *http.Request) {
	h.resolveReturn(w, r, false)
}

func (h *Handler) resolveReturn(w http.ResponseWriter, r *http.Request, approve bool) {
	o, err := h.orders.ResolveReturn(r.Context(), identity(r).ID, r.PathValue("id"), approve)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponse(o))
}
