package store

import (
	"context"
	"errors"
	"time"

	"github.com/quokkalabs/passage/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Accounts() Accounts
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation). The caller MUST call Commit() or Rollback() on the
	// returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a new account (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail looks up by email, case-insensitively.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByLiveTicket returns the account holding the given ticket
	// where ticket_expires_at > now.
	GetAccountByLiveTicket(ctx context.Context, ticket string, now time.Time) (domain.Account, error)

	// EmailInUse reports whether any account holds the email (case-insensitive).
	EmailInUse(ctx context.Context, email string) (bool, error)

	// SetTicket overwrites the account's ticket pair. Last write wins.
	SetTicket(ctx context.Context, accountID, ticket string, expiresAt, now time.Time) error

	// StageEmailChange records a pending new_email together with a fresh
	// ticket. The visible email is untouched until the ticket is consumed.
	StageEmailChange(ctx context.Context, accountID, newEmail, ticket string, expiresAt, now time.Time) error

	// The ByTicket family each performs its state transition AND rotates
	// the ticket to nextTicket (expiry = now, already dead) in a single
	// conditional UPDATE matching ticket where ticket_expires_at > now.
	// Zero rows affected returns ErrNotFound.

	// ActivateByTicket flips active on.
	ActivateByTicket(ctx context.Context, ticket, nextTicket string, now time.Time) error

	// SetPasswordHashByTicket sets a new password hash.
	SetPasswordHashByTicket(ctx context.Context, ticket, nextTicket, passwordHash string, now time.Time) error

	// ConfirmEmailChangeByTicket copies new_email into email and clears
	// new_email. Also requires a pending new_email to be present.
	ConfirmEmailChangeByTicket(ctx context.Context, ticket, nextTicket string, now time.Time) error

	// RotateTicketByTicket rotates without any other transition. Used when
	// an MFA challenge is redeemed.
	RotateTicketByTicket(ctx context.Context, ticket, nextTicket string, now time.Time) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, accountID, passwordHash string, now time.Time) error

	// SetOTPSecret stores a generated TOTP secret (not yet enabled).
	SetOTPSecret(ctx context.Context, accountID, secret string, now time.Time) error

	// EnableMFA flips mfa_enabled on.
	EnableMFA(ctx context.Context, accountID string, now time.Time) error

	// DisableMFA clears mfa_enabled and the TOTP secret.
	DisableMFA(ctx context.Context, accountID string, now time.Time) error

	// SetSMSOTPSecret stores a generated SMS secret and phone number.
	SetSMSOTPSecret(ctx context.Context, accountID, secret string, phone *string, now time.Time) error

	// EnableSMSMFA flips sms_mfa_enabled on.
	EnableSMSMFA(ctx context.Context, accountID string, now time.Time) error

	// DisableSMSMFA clears sms_mfa_enabled and the SMS secret.
	DisableSMSMFA(ctx context.Context, accountID string, now time.Time) error

	// DeleteAccount cascades to refresh_tokens (per schema).
	DeleteAccount(ctx context.Context, accountID string) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token row.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetLiveRefreshToken returns the row for token where expires_at > now.
	GetLiveRefreshToken(ctx context.Context, token string, now time.Time) (domain.RefreshToken, error)

	// DeleteRefreshToken removes a single row. Deleting an absent token is
	// not an error.
	DeleteRefreshToken(ctx context.Context, token string) error

	// DeleteAccountRefreshTokens removes every row for the account.
	DeleteAccountRefreshTokens(ctx context.Context, accountID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}
