package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ekalkan/pazaryeri/internal/domain/seller"
	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
)

type shippingConfigPayload struct {
	FlatFee             decimal.Decimal `json:"flat_fee"`
	FreeShippingEnabled bool            `json:"free_shipping_enabled"`
	FreeThreshold       decimal.Decimal `json:"free_threshold"`
}

func (h *Handler) getShippingConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.shipping.Get(r.Context(), identity(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, shippingConfigPayload{
		FlatFee:             cfg.FlatFee,
		FreeShippingEnabled: cfg.FreeShippingEnabled,
		FreeThreshold:       cfg.FreeThreshold,
	})
}

func (h *Handler) putShippingConfig(w http.ResponseWriter, r *http.Request) {
	var p shippingConfigPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if p.FlatFee.IsNegative() || p.FreeThreshold.IsNegative() {
		respondError(w, http.StatusUnprocessableEntity, "invalid_request", "fees must not be negative")
		return
	}

	cfg := shipping.SellerConfig{
		SellerID:            identity(r).ID,
		FlatFee:             p.FlatFee,
		FreeShippingEnabled: p.FreeShippingEnabled,
		FreeThreshold:       p.FreeThreshold,
	}
	if err := h.shipping.Upsert(r.Context(), cfg); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

type applicationPayload struct {
	ShopName string `json:"shop_name"`
}

type applicationResponse struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	Email     string     `json:"email"`
	ShopName  string     `json:"shop_name"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

func toApplicationResponse(a *seller.Application) applicationResponse {
	return applicationResponse{
		ID:        a.ID,
		AccountID: a.AccountID,
		Email:     a.Email,
		ShopName:  a.ShopName,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		DecidedAt: a.DecidedAt,
	}
}

func (h *Handler) applySeller(w http.ResponseWriter, r *http.Request) {
	var p applicationPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if p.ShopName == "" {
		respondError(w, http.StatusUnprocessableEntity, "invalid_request", "shop_name is required")
		return
	}

	id := identity(r)
	a, err := h.sellers.Apply(r.Context(), id.ID, id.Email, p.ShopName)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toApplicationResponse(a))
}

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.sellers.Pending(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := make([]applicationResponse, len(apps))
	for i := range apps {
		resp[i] = toApplicationResponse(&apps[i])
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) approveApplication(w http.ResponseWriter, r *http.Request) {
	a, err := h.sellers.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toApplicationResponse(a))
}

func (h *Handler) rejectApplication(w http.ResponseWriter, r *http.Request) {
	a, err := h.sellers.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toApplicationResponse(a))
}
