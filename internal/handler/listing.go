package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ekalkan/pazaryeri/internal/domain/listing"
	"github.com/ekalkan/pazaryeri/internal/payment"
)

type listingPayload struct {
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Price           decimal.Decimal     `json:"price"`
	DiscountedPrice *decimal.Decimal    `json:"discounted_price,omitempty"`
	Stock           int                 `json:"stock"`
	Category        string              `json:"category"`
	Images          []string            `json:"images,omitempty"`
	Variants        map[string][]string `json:"variants,omitempty"`
}

type listingResponse struct {
	ID              string              `json:"id"`
	SellerID        string              `json:"seller_id"`
	Title           string              `json:"title"`
	Description     string              `json:"description,omitempty"`
	Price           decimal.Decimal     `json:"price"`
	DiscountedPrice *decimal.Decimal    `json:"discounted_price,omitempty"`
	EffectivePrice  decimal.Decimal     `json:"effective_price"`
	Stock           int                 `json:"stock"`
	Category        string              `json:"category,omitempty"`
	Images          []string            `json:"images,omitempty"`
	Variants        map[string][]string `json:"variants,omitempty"`
	Boosted         bool                `json:"boosted,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func toListingResponse(l *listing.Listing, now time.Time) listingResponse {
	return listingResponse{
		ID:              l.ID,
		SellerID:        l.SellerID,
		Title:           l.Title,
		Description:     l.Description,
		Price:           l.Price,
		DiscountedPrice: l.DiscountedPrice,
		EffectivePrice:  l.EffectivePrice(),
		Stock:           l.Stock,
		Category:        l.Category,
		Images:          l.Images,
		Variants:        l.Variants,
		Boosted:         l.BoostActive(now),
		CreatedAt:       l.CreatedAt,
	}
}

func (h *Handler) listListings(w http.ResponseWriter, r *http.Request) {
	out, err := h.listings.Browse(r.Context(), listing.Filter{
		Category: r.URL.Query().Get("category"),
		SellerID: r.URL.Query().Get("seller"),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	now := time.Now()
	resp := make([]listingResponse, len(out))
	for i := range out {
		resp[i] = toListingResponse(&out[i], now)
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toListingResponse(l, time.Now()))
}

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	var p listingPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if p.Title == "" || p.Price.LessThanOrEqual(decimal.Zero) {
		respondError(w, http.StatusUnprocessableEntity, "invalid_request", "title and a positive price are required")
		return
	}

	id := identity(r)
	l, err := h.listings.Create(r.Context(), &listing.Listing{
		SellerID:        id.ID,
		SellerEmail:     id.Email,
		Title:           p.Title,
		Description:     p.Description,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Stock:           p.Stock,
		Category:        p.Category,
		Images:          p.Images,
		Variants:        p.Variants,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toListingResponse(l, time.Now()))
}

func (h *Handler) updateListing(w http.ResponseWriter, r *http.Request) {
	var p listingPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	l, err := h.listings.Update(r.Context(), identity(r).ID, &listing.Listing{
		ID:              r.PathValue("id"),
		Title:           p.Title,
		Description:     p.Description,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Stock:           p.Stock,
		Category:        p.Category,
		Images:          p.Images,
		Variants:        p.Variants,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toListingResponse(l, time.Now()))
}

func (h *Handler) deleteListing(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Delete(r.Context(), identity(r).ID, r.PathValue("id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type boostPayload struct {
	Instrument string `json:"instrument"`
	CardToken  string `json:"card_token"`
}

func (h *Handler) boostListing(w http.ResponseWriter, r *http.Request) {
	var p boostPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	l, err := h.listings.Boost(r.Context(), identity(r).ID, r.PathValue("id"),
		payment.Kind(p.Instrument), p.CardToken)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toListingResponse(l, time.Now()))
}
