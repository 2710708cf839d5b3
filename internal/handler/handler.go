// Package handler implements the HTTP API surface.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ekalkan/pazaryeri/internal/auth"
	"github.com/ekalkan/pazaryeri/internal/domain/cart"
	"github.com/ekalkan/pazaryeri/internal/domain/chat"
	"github.com/ekalkan/pazaryeri/internal/domain/checkout"
	"github.com/ekalkan/pazaryeri/internal/domain/coupon"
	"github.com/ekalkan/pazaryeri/internal/domain/listing"
	"github.com/ekalkan/pazaryeri/internal/domain/order"
	"github.com/ekalkan/pazaryeri/internal/domain/seller"
	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
	"github.com/ekalkan/pazaryeri/internal/payment"
)

// Handler holds the domain services behind the HTTP surface.
type Handler struct {
	listings  *listing.Service
	carts     cart.Repository
	checkouts *checkout.Service
	orders    *order.Service
	chats     *chat.Service
	sellers   *seller.Service
	shipping  shipping.Repository
	verifier  *auth.TokenVerifier
	keychain  *auth.Keychain
}

// NewHandler creates a Handler.
func NewHandler(
	listings *listing.Service,
	carts cart.Repository,
	checkouts *checkout.Service,
	orders *order.Service,
	chats *chat.Service,
	sellers *seller.Service,
	configs shipping.Repository,
	verifier *auth.TokenVerifier,
	keychain *auth.Keychain,
) *Handler {
	return &Handler{
		listings:  listings,
		carts:     carts,
		checkouts: checkouts,
		orders:    orders,
		chats:     chats,
		sellers:   sellers,
		shipping:  configs,
		verifier:  verifier,
		keychain:  keychain,
	}
}

// Routes returns the API mux. All paths are rooted under /api.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/listings", h.listListings)
	mux.HandleFunc("GET /api/listings/{id}", h.getListing)
	mux.HandleFunc("POST /api/listings", h.requireSeller(h.createListing))
	mux.HandleFunc("PUT /api/listings/{id}", h.requireSeller(h.updateListing))
	mux.HandleFunc("DELETE /api/listings/{id}", h.requireSeller(h.deleteListing))
	mux.HandleFunc("POST /api/listings/{id}/boost", h.requireSeller(h.boostListing))

	mux.HandleFunc("GET /api/cart", h.requireUser(h.getCart))
	mux.HandleFunc("POST /api/cart", h.requireUser(h.addToCart))
	mux.HandleFunc("DELETE /api/cart/{listingID}", h.requireUser(h.removeFromCart))

	mux.HandleFunc("POST /api/checkout/quote", h.requireUser(h.quote))
	mux.HandleFunc("POST /api/checkout", h.requireUser(h.placeOrder))

	mux.HandleFunc("GET /api/orders", h.requireUser(h.listBuyerOrders))
	mux.HandleFunc("GET /api/seller/orders", h.requireSeller(h.listSellerOrders))
	mux.HandleFunc("POST /api/orders/{id}/approve", h.requireSeller(h.approveOrder))
	mux.HandleFunc("POST /api/orders/{id}/ship", h.requireSeller(h.shipOrder))
	mux.HandleFunc("POST /api/orders/{id}/delivered", h.requireSeller(h.markDelivered))
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.requireUser(h.cancelOrder))
	mux.HandleFunc("POST /api/orders/{id}/return", h.requireUser(h.requestReturn))
	mux.HandleFunc("POST /api/orders/{id}/return/tracking", h.requireUser(h.completeReturn))
	mux.HandleFunc("POST /api/orders/{id}/return/approve", h.requireSeller(h.approveReturn))
	mux.HandleFunc("POST /api/orders/{id}/return/reject", h.requireSeller(h.rejectReturn))

	mux.HandleFunc("GET /api/seller/shipping", h.requireSeller(h.getShippingConfig))
	mux.HandleFunc("PUT /api/seller/shipping", h.requireSeller(h.putShippingConfig))

	mux.HandleFunc("POST /api/seller/apply", h.requireUser(h.applySeller))
	mux.HandleFunc("GET /api/admin/applications", h.requireAPIKey(h.listApplications))
	mux.HandleFunc("POST /api/admin/applications/{id}/approve", h.requireAPIKey(h.approveApplication))
	mux.HandleFunc("POST /api/admin/applications/{id}/reject", h.requireAPIKey(h.rejectApplication))

	mux.HandleFunc("POST /api/chat", h.requireUser(h.startChat))
	mux.HandleFunc("GET /api/chat/{id}/messages", h.requireUser(h.chatHistory))
	mux.HandleFunc("POST /api/chat/{id}/messages", h.requireUser(h.postChatMessage))
	mux.HandleFunc("GET /api/admin/chat/pending", h.requireAPIKey(h.pendingChats))
	mux.HandleFunc("POST /api/chat/{id}/claim", h.requireAPIKey(h.claimChat))
	mux.HandleFunc("POST /api/chat/{id}/reply", h.requireAPIKey(h.replyChat))

	return mux
}

// errorBody is the wire form of every error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respond(w, status, errorBody{Code: code, Message: message})
}

// writeDomainError maps domain errors onto the API's status codes. Unmatched
// errors become opaque 500s; the cause is logged, not leaked.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		trErr    *order.TransitionError
		minErr   *coupon.MinSubtotalError
		declined *payment.DeclinedError
	)

	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")

	case errors.Is(err, listing.ErrNotOwner),
		errors.Is(err, order.ErrNotSeller),
		errors.Is(err, order.ErrNotBuyer):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, listing.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, chat.ErrNotFound),
		errors.Is(err, seller.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.As(err, &trErr),
		errors.Is(err, chat.ErrAlreadyClaimed),
		errors.Is(err, seller.ErrNotPending),
		errors.Is(err, seller.ErrAlreadyApplied),
		errors.Is(err, order.ErrReturnClosed),
		errors.Is(err, order.ErrReturnState):
		respondError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, coupon.ErrNotSignedIn),
		errors.Is(err, coupon.ErrAlreadyRedeemed),
		errors.As(err, &minErr):
		respondError(w, http.StatusUnprocessableEntity, "invalid_coupon", err.Error())

	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrAddressRequired),
		errors.Is(err, checkout.ErrAddressNotFound),
		errors.Is(err, order.ErrCarrierRequired),
		errors.Is(err, order.ErrTrackingTooShort),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, payment.ErrUnknownInstrument):
		respondError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())

	case errors.As(err, &declined):
		// Gateway text travels to the buyer verbatim.
		respondError(w, http.StatusBadGateway, "payment_failed", declined.Message)

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
