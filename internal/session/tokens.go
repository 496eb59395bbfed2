package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/upb/qms-dashboard/services"
)

const tokenIssuer = "qms-dashboard"

// Tokens issues and parses session tokens. A token only identifies a
// session; it carries no role.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token codec signing with secret
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token for sessionID
func (t *Tokens) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", services.WrapInternal("failed to sign session token", err)
	}
	return signed, nil
}

// Parse validates token and returns the session id it names
func (t *Tokens) Parse(token string) (string, error) {
	if token == "" {
		return "", services.ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", services.ErrTokenExpired
		}
		return "", services.WrapError(services.ErrorTypeUnauthorized, "invalid session token", err)
	}
	if claims.Subject == "" {
		return "", services.ErrInvalidToken
	}
	return claims.Subject, nil
}
