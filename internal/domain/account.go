package domain

import "time"

// Account is the identity record. The ticket pair and the MFA secrets
// live directly on the row so ticket consumption and MFA checks can be
// expressed as single conditional updates.
type Account struct {
	ID           string
	Email        string  // unique, case-insensitive
	NewEmail     *string // staged email change, invisible until confirmed
	PasswordHash *string // argon2 encoded; nil for passwordless accounts
	Active       bool
	Anonymous    bool

	DefaultRole string
	Roles       []string // assigned roles, insertion order

	// Profile carries the free-form fields custom claims are projected
	// from (stored as a JSON column).
	Profile map[string]any

	// Ticket is the one-time verification value; valid iff
	// TicketExpiresAt is in the future.
	Ticket          *string
	TicketExpiresAt *time.Time

	MFAEnabled    bool
	OTPSecret     *string // base32 TOTP secret
	SMSMFAEnabled bool
	SMSOTPSecret  *string
	PhoneNumber   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MFARequired reports whether login must be gated behind a challenge.
func (a *Account) MFARequired() bool {
	return a.MFAEnabled || a.SMSMFAEnabled
}

// HasLiveTicket reports whether the account's ticket is still consumable.
func (a *Account) HasLiveTicket(now time.Time) bool {
	return a.Ticket != nil && a.TicketExpiresAt != nil && a.TicketExpiresAt.After(now)
}
