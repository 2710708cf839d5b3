// Package auth verifies buyer/seller JWTs issued by the identity provider and
// admin API keys stored as HMAC hashes.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned for any failed credential check. Callers map it
// to 401 without leaking which check failed.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	ID     string
	Email  string
	Seller bool
}

type ctxKey struct{}

// WithIdentity attaches the identity to the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom extracts the identity set by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// APIKeyRepository provides lookup of API keys by their HMAC hash.
type APIKeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
