// Package token mints and verifies the signed correlation tokens handed to
// guest submitters. The token ties a payment confirmation back to the request
// it pays for without requiring an account.
package token

import (
	"time"

	"github.com/thimothe-das/fixeo-sub001/platform/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type claims struct {
	RequestID string `json:"rid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies guest correlation tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates a token issuer. ttl bounds how long a guest checkout link
// stays usable.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a signed token bound to the request.
func (i *Issuer) Issue(requestID uuid.UUID) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RequestID: requestID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	return t.SignedString(i.secret)
}

// Verify checks the signature and expiry and returns the bound request ID.
func (i *Issuer) Verify(tokenString string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Forbidden("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, apperr.Forbidden("invalid guest token")
	}
	c, ok := parsed.Claims.(*claims)
	if !ok {
		return uuid.Nil, apperr.Forbidden("invalid guest token")
	}
	id, err := uuid.Parse(c.RequestID)
	if err != nil {
		return uuid.Nil, apperr.Forbidden("invalid guest token")
	}
	return id, nil
}
