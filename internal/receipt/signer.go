// Package receipt produces signed, client-held proofs of reward grants. The
// server does not store receipts; any holder of the signing secret can verify
// one after the fact.
package receipt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Payload is the canonical signed content of a receipt. Field order is fixed
// by the struct declaration and Units is present exactly when the grant
// carried watch seconds, so the byte form is reproducible by any verifier.
type Payload struct {
	UserID          string `json:"userId"`
	Credited        int64  `json:"credited"`
	Subject         string `json:"subject"`
	Units           *int64 `json:"units,omitempty"`
	TimestampMillis int64  `json:"ts"`
}

// Receipt is a payload plus its hex-encoded HMAC-SHA256 signature.
type Receipt struct {
	Payload
	Signature string `json:"signature"`
}

// Signer signs receipt payloads with a server-held secret.
type Signer struct {
	secret []byte
}

// NewSigner builds a Signer from the configured signing key.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign computes the signature over the canonical payload bytes.
func (s *Signer) Sign(p Payload) (Receipt, error) {
	canonical, err := canonicalBytes(p)
	if err != nil {
		return Receipt{}, err
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	return Receipt{Payload: p, Signature: hex.EncodeToString(mac.Sum(nil))}, nil
}

// Verify recomputes the signature for the receipt's payload and compares it in
// constant time.
func (s *Signer) Verify(r Receipt) bool {
	canonical, err := canonicalBytes(r.Payload)
	if err != nil {
		return false
	}
	provided, err := hex.DecodeString(r.Signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	return hmac.Equal(provided, mac.Sum(nil))
}

func canonicalBytes(p Payload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("canonicalize receipt: %w", err)
	}
	return b, nil
}
