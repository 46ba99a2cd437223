package webhook

import (
	"errors"
	"testing"
)

func TestVerifySignatureAcceptsValid(t *testing.T) {
	secret := []byte("ad-secret")
	body := []byte(`{"userId":"u1","rewardAmount":10,"providerId":"admob"}`)

	if err := VerifySignature(secret, body, Sign(secret, body)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	secret := []byte("ad-secret")
	body := []byte(`{"userId":"u1","rewardAmount":10,"providerId":"admob"}`)
	sig := Sign(secret, body)

	tampered := []byte(`{"userId":"u1","rewardAmount":9999,"providerId":"admob"}`)
	if err := VerifySignature(secret, tampered, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"userId":"u1"}`)
	sig := Sign([]byte("other-secret"), body)

	if err := VerifySignature([]byte("ad-secret"), body, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureRejectsMalformedHex(t *testing.T) {
	if err := VerifySignature([]byte("ad-secret"), []byte("{}"), "not-hex!"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if err := VerifySignature([]byte("ad-secret"), []byte("{}"), ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for empty header, got %v", err)
	}
}
