package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm names accepted by NewCodec.
const (
	AlgHS256 = "HS256"
	AlgRS256 = "RS256"
	AlgEdDSA = "EdDSA"
)

// CodecOptions configures a Codec. Exactly one key source applies per
// algorithm: Secret for HS256, PrivateKeyPEM for RS256 and EdDSA.
type CodecOptions struct {
	Algorithm     string
	Secret        []byte
	PrivateKeyPEM []byte
	KID           string
	Issuer        string
	Namespace     string
	TTL           time.Duration
}

// Codec signs and verifies access tokens. Application claims ride under a
// single namespace key so they never collide with registered JWT claims,
// and Verify refuses tokens that lack that namespace entirely.
type Codec struct {
	signer    Signer
	verifier  Verifier
	keys      *KeySet
	alg       string
	issuer    string
	namespace string
	ttl       time.Duration
}

// NewCodec builds a Codec for the configured algorithm.
func NewCodec(opts CodecOptions) (*Codec, error) {
	if opts.Namespace == "" {
		return nil, errors.New("jwtx: empty claims namespace")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultAccessTokenTTL
	}

	c := &Codec{
		alg:       opts.Algorithm,
		issuer:    opts.Issuer,
		namespace: opts.Namespace,
		ttl:       opts.TTL,
	}

	var err error
	switch opts.Algorithm {
	case AlgHS256:
		c.signer, err = NewSignerHS256(opts.KID, opts.Secret)
		if err != nil {
			return nil, err
		}
		c.verifier, err = NewVerifierHS256(opts.Secret)
		if err != nil {
			return nil, err
		}

	case AlgRS256:
		c.signer, err = NewSignerRS256(opts.KID, opts.PrivateKeyPEM)
		if err != nil {
			return nil, err
		}
		c.keys = NewKeySet()
		if err := c.keys.AddSigner(c.signer); err != nil {
			return nil, err
		}
		c.verifier = NewVerifierRS256(c.keys)

	case AlgEdDSA:
		c.signer, err = NewSignerEdDSA(opts.KID, opts.PrivateKeyPEM)
		if err != nil {
			return nil, err
		}
		c.keys = NewKeySet()
		if err := c.keys.AddSigner(c.signer); err != nil {
			return nil, err
		}
		c.verifier = NewVerifierEdDSA(c.keys)

	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", opts.Algorithm)
	}

	if err := c.signer.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Alg reports the configured signing algorithm.
func (c *Codec) Alg() string { return c.alg }

// TTL reports the access token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Sign mints a token for subject with custom claims nested under the
// codec's namespace key. The expiry time is returned alongside so callers
// can report expires_in without re-parsing the token.
func (c *Codec) Sign(subject string, custom map[string]any) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(c.ttl)

	if custom == nil {
		custom = map[string]any{}
	}

	claims := jwt.MapClaims{
		"iss": c.issuer,
		"sub": subject,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(exp),
		"jti": NewJTI(),
	}
	claims[c.namespace] = custom

	token, err := c.signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return token, exp, nil
}

// Verify checks signature, expiry, issuer, and namespace presence, and
// returns the decoded claims.
func (c *Codec) Verify(tokenStr string) (Claims, error) {
	raw, err := c.verifier.Verify(tokenStr)
	if err != nil {
		return Claims{}, err
	}

	if iss, _ := raw["iss"].(string); c.issuer != "" && iss != c.issuer {
		return Claims{}, ErrIssuer
	}

	nsRaw, ok := raw[c.namespace]
	if !ok {
		return Claims{}, ErrMissingNamespace
	}
	custom, ok := nsRaw.(map[string]any)
	if !ok {
		return Claims{}, ErrMissingNamespace
	}

	out := Claims{
		Issuer: c.issuer,
		Custom: custom,
	}
	out.Subject, _ = raw["sub"].(string)
	out.ID, _ = raw["jti"].(string)
	if iat, err := raw.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// JWKS returns the public key set for asymmetric algorithms. HS256 has no
// public half to publish, so it reports ErrNotImplemented.
func (c *Codec) JWKS() (JWKS, error) {
	if c.keys == nil {
		return JWKS{}, ErrNotImplemented
	}
	return c.keys.PublicJWKS(), nil
}
