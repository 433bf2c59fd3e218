package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT's signature and registered claims and gives you
// back the raw claim map if it's legit. Namespace and issuer enforcement
// live one level up in the Codec.
type Verifier interface {
	Verify(token string) (jwt.MapClaims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer           = errors.New("jwtx: issuer mismatch")
	ErrExpired          = errors.New("jwtx: token expired")
	ErrMissingNamespace = errors.New("jwtx: claims namespace absent")
)

// parseAndVerify runs the shared parse path: restrict to one algorithm,
// resolve the key via keyfunc, and validate registered time claims.
func parseAndVerify(tokenStr, alg string, keyfunc jwt.Keyfunc) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{alg}))

	token, err := parser.ParseWithClaims(tokenStr, jwt.MapClaims{}, keyfunc)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSig
		}
		return nil, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}
