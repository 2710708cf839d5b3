package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Keychain authenticates admin API keys. Keys are stored only as HMAC-SHA256
// hashes computed with a server-side pepper.
type Keychain struct {
	apikeys APIKeyRepository
	pepper  []byte
}

// NewKeychain creates a Keychain with the given repository and HMAC pepper.
func NewKeychain(apikeys APIKeyRepository, pepper []byte) *Keychain {
	return &Keychain{apikeys: apikeys, pepper: pepper}
}

// HashKey computes the stored form of a raw API key.
func HashKey(pepper []byte, rawKey string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(rawKey))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate hashes the presented key, looks it up, and compares the stored
// hash in constant time. Every failure mode returns ErrUnauthorized.
func (k *Keychain) Authenticate(ctx context.Context, rawKey string) (*APIKeyInfo, error) {
	mac := hmac.New(sha256.New, k.pepper)
	mac.Write([]byte(rawKey))
	hash := mac.Sum(nil)

	info, err := k.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		return nil, ErrUnauthorized
	}

	storedBytes, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
		return nil, ErrUnauthorized
	}
	return info, nil
}
