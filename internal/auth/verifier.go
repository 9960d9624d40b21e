// Package auth is the identity collaborator: it turns a bearer token into the
// opaque owner id that scopes every repository call. Credentials, sessions and
// registration belong to the external identity provider, not here.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing or malformed Authorization header")
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier validates HS256 bearer tokens issued by the identity provider.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// OwnerFromHeader extracts the owner id from an "Authorization: Bearer ..."
// header value.
func (v *Verifier) OwnerFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}
	return v.OwnerFromToken(strings.TrimSpace(header[len(prefix):]))
}

// OwnerFromToken parses and validates the token and returns its subject claim.
func (v *Verifier) OwnerFromToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	owner, _ := claims["sub"].(string)
	if owner == "" {
		return "", ErrInvalidToken
	}
	return owner, nil
}

// Sign issues a token for the given owner id. Used by tests and local tooling;
// production tokens come from the identity provider.
func (v *Verifier) Sign(owner string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": owner,
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(v.secret)
}
