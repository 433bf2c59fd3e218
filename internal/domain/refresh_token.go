package domain

import "time"

// RefreshToken models a refresh token. Stored rows carry the SHA-256
// fingerprint of the opaque value, never the value itself; rotation is
// delete-old/insert-new, so a row either exists and is exchangeable or it
// is gone.
type RefreshToken struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry.
func (t RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
