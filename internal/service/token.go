package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// TokenIssuer mints per-role signing tokens and computes their keyed hash.
// Only the hash is ever persisted; the plaintext exists once, in the return
// value of New, for out-of-band delivery.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

func (t *TokenIssuer) New() (plaintext, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plaintext = base64.RawURLEncoding.EncodeToString(raw)
	return plaintext, t.Hash(plaintext), nil
}

// Hash returns the hex HMAC-SHA256 digest of a token under the issuer key.
func (t *TokenIssuer) Hash(token string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Matches compares two digests in constant time.
func (t *TokenIssuer) Matches(stored, computed string) bool {
	return hmac.Equal([]byte(stored), []byte(computed))
}
