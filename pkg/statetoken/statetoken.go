// Package statetoken signs and verifies the OAuth "state" parameter that
// carries a chat and its initiating user through the authorization redirect.
package statetoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is returned for tokens that are malformed, tampered with or expired
var ErrInvalid = errors.New("invalid state token")

// Payload is what a state token carries
type Payload struct {
	ID        string
	ChatID    string
	UserID    string
	ExpiresAt time.Time
}

// Signer issues and parses HS256 signed state tokens
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer; ttl defaults to ten minutes
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token embedding chatID and userID
func (s *Signer) Sign(chatID, userID string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("state token secret not configured")
	}
	if chatID == "" {
		return "", errors.New("state token requires a chat id")
	}
	issuedAt := s.now()
	claims := jwt.MapClaims{
		"jti":     uuid.NewString(),
		"chat_id": chatID,
		"user_id": userID,
		"iat":     issuedAt.Unix(),
		"exp":     issuedAt.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies raw and returns its payload
func (s *Signer) Parse(raw string) (Payload, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Payload{}, fmt.Errorf("%w: invalid claims", ErrInvalid)
	}

	payload := Payload{}
	payload.ID, _ = claims["jti"].(string)
	payload.ChatID, _ = claims["chat_id"].(string)
	payload.UserID, _ = claims["user_id"].(string)
	if exp, errExp := claims.GetExpirationTime(); errExp == nil && exp != nil {
		payload.ExpiresAt = exp.Time
	}
	if payload.ChatID == "" {
		return Payload{}, fmt.Errorf("%w: missing chat id", ErrInvalid)
	}
	return payload, nil
}
