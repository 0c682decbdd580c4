package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// NewOpaqueToken returns a URL-safe random token with 256 bits of entropy.
func NewOpaqueToken() (string, error) {
	b := make([]byte, 32)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken is a deterministic keyed hash for storing single-use tokens.
// Only the hash is persisted; the raw token goes to the user.
func HashToken(secret []byte, raw string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}
