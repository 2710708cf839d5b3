package handler

import (
	"net/http"
	"strings"

	"github.com/ekalkan/pazaryeri/internal/auth"
)

const apiKeyHeader = "X-Api-Key"

// requireUser authenticates the bearer token and puts the identity on the
// request context.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.bearerIdentity(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	}
}

// requireSeller additionally requires the seller claim.
func (h *Handler) requireSeller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.bearerIdentity(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if !id.Seller {
			respondError(w, http.StatusForbidden, "forbidden", "seller account required")
			return
		}
		next(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	}
}

// requireAPIKey authenticates admin endpoints with the API key header.
func (h *Handler) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "api key required")
			return
		}
		if _, err := h.keychain.Authenticate(r.Context(), key); err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "api key required")
			return
		}
		next(w, r)
	}
}

func (h *Handler) bearerIdentity(r *http.Request) (auth.Identity, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return auth.Identity{}, false
	}
	id, err := h.verifier.Verify(token)
	if err != nil {
		return auth.Identity{}, false
	}
	return id, true
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}
