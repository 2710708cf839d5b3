package auth

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewTokenVerifier("topsecret")
	token := signToken(t, "topsecret", &Claims{
		Email:  "b@example.com",
		Seller: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id.ID)
	assert.Equal(t, "b@example.com", id.Email)
	assert.True(t, id.Seller)
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewTokenVerifier("topsecret")
	token := signToken(t, "other", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "acc-1"},
	})

	_, err := v.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewTokenVerifier("topsecret")
	token := signToken(t, "topsecret", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := v.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyMissingSubject(t *testing.T) {
	v := NewTokenVerifier("topsecret")
	token := signToken(t, "topsecret", &Claims{Email: "b@example.com"})

	_, err := v.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyGarbage(t *testing.T) {
	v := NewTokenVerifier("topsecret")
	_, err := v.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIdentityContextRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{ID: "acc-1", Email: "b@example.com"})

	id, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "acc-1", id.ID)

	_, ok = IdentityFrom(context.Background())
	assert.False(t, ok)
}

type stubKeys struct {
	byHash map[string]*APIKeyInfo
}

func (s *stubKeys) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	info, ok := s.byHash[hash]
	if !ok {
		return nil, errors.New("not found")
	}
	return info, nil
}

func TestKeychainAuthenticate(t *testing.T) {
	pepper := []byte("pepper")
	hash := HashKey(pepper, "raw-admin-key")
	keys := &stubKeys{byHash: map[string]*APIKeyInfo{
		hash: {ID: "key-1", KeyHash: hash, Name: "ops", Scopes: []string{"admin"}},
	}}
	kc := NewKeychain(keys, pepper)

	info, err := kc.Authenticate(context.Background(), "raw-admin-key")
	require.NoError(t, err)
	assert.Equal(t, "ops", info.Name)

	_, err = kc.Authenticate(context.Background(), "wrong-key")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestKeychainRejectsCorruptStoredHash(t *testing.T) {
	pepper := []byte("pepper")
	hash := HashKey(pepper, "raw-admin-key")
	keys := &stubKeys{byHash: map[string]*APIKeyInfo{
		hash: {ID: "key-1", KeyHash: "zz-not-hex"},
	}}
	kc := NewKeychain(keys, pepper)

	_, err := kc.Authenticate(context.Background(), "raw-admin-key")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
