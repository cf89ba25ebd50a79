package policy

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NonceSource produces per-request script nonces. Implementations must be
// safe for concurrent use; every call returns an independent value.
type NonceSource interface {
	Nonce() (string, error)
}

// nonceBytes is the raw entropy per nonce. 16 bytes (128 bits) matches the
// CSP level 3 recommendation.
const nonceBytes = 16

// CryptoNonceSource draws nonces from crypto/rand. The zero value is ready
// to use and carries no state, so concurrent callers never contend.
type CryptoNonceSource struct{}

// Nonce returns a fresh base64-encoded random token.
func (CryptoNonceSource) Nonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// FixedNonceSource always returns the same value. It exists so tests can
// assert byte-identical policy output; never use it in production.
type FixedNonceSource string

// Nonce returns the fixed value.
func (s FixedNonceSource) Nonce() (string, error) { return string(s), nil }
