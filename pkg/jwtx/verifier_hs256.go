package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Verifier validates JWTs signed using HMAC-SHA256 with a shared secret.
type HS256Verifier struct {
	secret []byte
}

// NewVerifierHS256 creates a verifier for the symmetric algorithm family.
func NewVerifierHS256(secret []byte) (*HS256Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty HS256 secret")
	}
	return &HS256Verifier{secret: secret}, nil
}

// Verify validates the JWT string and returns its raw claim map.
func (v *HS256Verifier) Verify(tokenStr string) (jwt.MapClaims, error) {
	return parseAndVerify(tokenStr, jwt.SigningMethodHS256.Alg(), func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
}
