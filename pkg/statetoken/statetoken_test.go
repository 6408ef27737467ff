package statetoken

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	// Arrange
	signer := NewSigner("secret", time.Minute)

	// Act
	raw, err := signer.Sign("C123", "U456")
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	payload, err := signer.Parse(raw)

	// Assert
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if payload.ChatID != "C123" || payload.UserID != "U456" {
		t.Errorf("Unexpected payload %+v", payload)
	}
	if payload.ID == "" {
		t.Error("Expected a token id")
	}
}

func TestSignProducesUniqueTokens(t *testing.T) {
	signer := NewSigner("secret", time.Minute)

	first, _ := signer.Sign("C123", "U456")
	second, _ := signer.Sign("C123", "U456")

	if first == second {
		t.Error("Expected distinct tokens for repeated signing")
	}
}

func TestParseRejects(t *testing.T) {
	signer := NewSigner("secret", time.Minute)
	valid, err := signer.Sign("C123", "U456")
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	expiredSigner := NewSigner("secret", time.Minute)
	expiredSigner.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := expiredSigner.Sign("C123", "U456")

	otherSigner := NewSigner("other-secret", time.Minute)
	foreign, _ := otherSigner.Sign("C123", "U456")

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"raw chat id", "C123"},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"truncated", strings.SplitN(valid, ".", 2)[0]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.Parse(tt.raw)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSignRequiresSecretAndChat(t *testing.T) {
	if _, err := NewSigner("", time.Minute).Sign("C123", "U1"); err == nil {
		t.Error("Expected error without secret")
	}
	if _, err := NewSigner("secret", time.Minute).Sign("", "U1"); err == nil {
		t.Error("Expected error without chat id")
	}
}
