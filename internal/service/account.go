package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quokkalabs/passage/internal/domain"
	"github.com/quokkalabs/passage/internal/notify"
	"github.com/quokkalabs/passage/internal/provider"
	"github.com/quokkalabs/passage/internal/store"
	"github.com/quokkalabs/passage/pkg/cryptox"
	"github.com/quokkalabs/passage/pkg/idx"
	"github.com/quokkalabs/passage/pkg/slogx"
)

// LoginResult is the value-typed outcome of a login attempt: exactly one
// of Session or Challenge is set. Call sites branch on value, never on
// error type.
type LoginResult struct {
	Session   *domain.Session
	Challenge *domain.MFAChallenge
}

// MFARequired reports whether the caller must complete an MFA challenge.
func (r LoginResult) MFARequired() bool { return r.Challenge != nil }

// AccountService owns registration, login and the account-level
// self-service operations.
type AccountService struct {
	Store    store.Store
	Sessions *SessionService
	Tickets  *TicketService
	MFA      *MFAService
	Refresh  *RefreshService
	Mail     notify.Mailer

	DefaultRole   string
	VerifyEmails  bool // new accounts start inactive and must redeem a ticket
	AllowDeletion bool
	TicketTTL     time.Duration
}

// Register creates an account. With email verification on, the account
// starts inactive and an activation ticket is mailed out; otherwise it is
// live immediately.
func (s *AccountService) Register(ctx context.Context, email, password string, profile map[string]any) (domain.Account, error) {
	email = strings.TrimSpace(email)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	account := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: &hash,
		Active:       !s.VerifyEmails,
		DefaultRole:  s.DefaultRole,
		Roles:        []string{s.DefaultRole},
		Profile:      profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrEmailConflict
		}
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	if s.VerifyEmails {
		ticket, err := s.Tickets.Issue(ctx, account.ID, s.TicketTTL)
		if err != nil {
			slogx.FromContext(ctx).Error("activation ticket issue failed", "err", err)
			return account, nil
		}
		if err := s.Mail.Send(ctx, account.Email, notify.TemplateActivation, map[string]string{"ticket": ticket}); err != nil {
			// The account exists either way; resend covers the gap.
			slogx.FromContext(ctx).Error("activation mail failed", "err", err)
		}
	}

	return account, nil
}

// Login verifies email and password. MFA-gated accounts get a challenge
// ticket back instead of a session; a bearer token is never issued before
// the challenge is redeemed.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if account.PasswordHash == nil || *account.PasswordHash == "" {
		// Passwordless accounts authenticate through a provider.
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(password, *account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !account.Active {
		return LoginResult{}, ErrAccountInactive
	}

	if account.MFARequired() {
		challenge, err := s.MFA.Challenge(ctx, &account)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Challenge: &challenge}, nil
	}

	session, err := s.Sessions.Create(ctx, &account)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Session: &session}, nil
}

// LoginExternal maps an externally verified identity onto an account and
// mints a session. The provider has already done the credential check;
// the MFA gate still applies.
func (s *AccountService) LoginExternal(ctx context.Context, p provider.Provider, creds provider.Credentials) (LoginResult, error) {
	identity, err := p.Authenticate(ctx, creds)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !account.Active {
		return LoginResult{}, ErrAccountInactive
	}

	if account.MFARequired() {
		challenge, err := s.MFA.Challenge(ctx, &account)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Challenge: &challenge}, nil
	}

	session, err := s.Sessions.Create(ctx, &account)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Session: &session}, nil
}

// ChangePassword verifies the old password before setting the new hash.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	if account.PasswordHash == nil {
		return ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(oldPassword, *account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Store.Accounts().UpdatePasswordHash(ctx, accountID, hash, time.Now())
}

// Delete removes the account and every refresh token it owns, in one
// transaction. Gated by configuration.
func (s *AccountService) Delete(ctx context.Context, accountID string) error {
	if !s.AllowDeletion {
		return ErrFeatureDisabled
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().DeleteAccountRefreshTokens(ctx, accountID); err != nil {
			return err
		}
		return tx.Accounts().DeleteAccount(ctx, accountID)
	})
}
