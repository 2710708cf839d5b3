package handler

import (
	"net/http"

	"github.com/ekalkan/pazaryeri/internal/domain/cart"
	"github.com/ekalkan/pazaryeri/internal/domain/listing"
)

type cartLinePayload struct {
	ListingID  string            `json:"listing_id"`
	Quantity   int               `json:"quantity"`
	Selections map[string]string `json:"selections,omitempty"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.ListByBuyer(r.Context(), identity(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := make([]cartLinePayload, len(lines))
	for i, l := range lines {
		resp[i] = cartLinePayload{ListingID: l.ListingID, Quantity: l.Quantity, Selections: l.Selections}
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var p cartLinePayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if p.ListingID == "" {
		respondError(w, http.StatusUnprocessableEntity, "invalid_request", "listing_id is required")
		return
	}

	l, err := h.listings.Get(r.Context(), p.ListingID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if !l.ValidVariantSelection(p.Selections) {
		respondError(w, http.StatusUnprocessableEntity, "invalid_request", "unknown variant selection")
		return
	}

	line := cart.Line{
		BuyerID:    identity(r).ID,
		ListingID:  l.ID,
		Quantity:   cart.ClampQuantity(p.Quantity, l.Stock),
		Selections: p.Selections,
	}
	if err := h.carts.Upsert(r.Context(), line); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, cartLinePayload{
		ListingID:  line.ListingID,
		Quantity:   line.Quantity,
		Selections: line.Selections,
	})
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	listingID := r.PathValue("listingID")
	if listingID == "" {
		h.writeDomainError(w, r, listing.ErrNotFound)
		return
	}
	if err := h.carts.Delete(r.Context(), identity(r).ID, listingID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
