// Package webhook authenticates inbound ad-network callbacks. The provider
// signs the exact raw request body with a shared secret; anything else is
// hostile input.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// SignatureHeader carries the provider's hex-encoded HMAC-SHA256 of the body.
const SignatureHeader = "X-Ad-Signature"

// ErrInvalidSignature rejects a callback whose signature does not match the
// body. The error deliberately carries no detail about which part failed.
var ErrInvalidSignature = errors.New("invalid signature")

// VerifySignature recomputes the MAC over the raw body bytes and compares it
// to the provided hex signature in constant time.
func VerifySignature(secret, body []byte, signature string) error {
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign produces the hex signature a provider would attach for the given body.
// Used by tests and outbound tooling.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
