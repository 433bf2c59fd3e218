package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSAVerifier validates JWTs signed using Ed25519.
type EdDSAVerifier struct {
	keys *KeySet
}

// NewVerifierEdDSA creates a verifier using a KeySet of Ed25519 public keys.
func NewVerifierEdDSA(keys *KeySet) *EdDSAVerifier {
	return &EdDSAVerifier{keys: keys}
}

// Verify validates the JWT string and returns its raw claim map.
func (v *EdDSAVerifier) Verify(tokenStr string) (jwt.MapClaims, error) {
	return parseAndVerify(tokenStr, jwt.SigningMethodEdDSA.Alg(), func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}

		edPub, ok := pub.(ed25519.PublicKey)
		if !ok {
			return nil, errors.New("jwtx: key for kid is not Ed25519")
		}
		return edPub, nil
	})
}
