package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Default token TTL constants.
// These provide sensible security defaults but can be overridden per-service.
const (
	// DefaultAccessTokenTTL is the default lifetime for bearer tokens.
	// Short-lived for security - typical range is 15m to 1h.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	// Longer-lived for user convenience - typical range is 7d to 30d.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims is the decoded view of a verified bearer token: the registered
// claims we care about plus the namespaced custom claim set.
type Claims struct {
	// Subject is the account id the token asserts (sub).
	Subject string

	// Issuer is the iss claim.
	Issuer string

	// IssuedAt and ExpiresAt mirror iat/exp.
	IssuedAt  time.Time
	ExpiresAt time.Time

	// ID is the jti claim.
	ID string

	// Custom is the claim set stored under the configured namespace key.
	// Verification fails when the namespace is absent, so Custom is never
	// nil on a successfully verified token.
	Custom map[string]any
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
