package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/passage/internal/notify"
	"github.com/quokkalabs/passage/internal/provider"
	"github.com/quokkalabs/passage/internal/store"
)

func newTestAccounts(t *testing.T, st store.Store, mailer *recordingMailer) *AccountService {
	t.Helper()

	sessions := newTestSessions(t, st)
	tickets := &TicketService{Store: st, Mail: mailer, TicketTTL: time.Hour, LostPasswordEnabled: true}
	mfa := &MFAService{
		Store:         st,
		SMS:           &recordingSMS{},
		Tickets:       tickets,
		Sessions:      sessions,
		Issuer:        "passage-test",
		TicketTTL:     time.Hour,
		MFAEnabled:    true,
		SMSMFAEnabled: true,
	}

	return &AccountService{
		Store:         st,
		Sessions:      sessions,
		Tickets:       tickets,
		MFA:           mfa,
		Refresh:       sessions.Refresh,
		Mail:          mailer,
		DefaultRole:   "user",
		VerifyEmails:  true,
		AllowDeletion: true,
		TicketTTL:     time.Hour,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &recordingMailer{}
	svc := newTestAccounts(t, st, mailer)

	account, err := svc.Register(ctx, "alice@example.com", "password123", nil)
	require.NoError(t, err)
	require.False(t, account.Active)

	// Activation ticket went out by mail.
	mail := mailer.last(t)
	require.Equal(t, "alice@example.com", mail.To)
	require.Equal(t, notify.TemplateActivation, mail.Template)
	require.NotEmpty(t, mail.Locals["ticket"])

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice@example.com", "password123", nil)
		require.ErrorIs(t, err, ErrEmailConflict)

		_, err = svc.Register(ctx, "ALICE@example.com", "password123", nil)
		require.ErrorIs(t, err, ErrEmailConflict)
	})

	t.Run("active immediately without email verification", func(t *testing.T) {
		svc.VerifyEmails = false
		account, err := svc.Register(ctx, "bob@example.com", "password123", nil)
		require.NoError(t, err)
		require.True(t, account.Active)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAccounts(t, st, &recordingMailer{})

	seedAccount(t, st, "carol@example.com", "password123")

	t.Run("success", func(t *testing.T) {
		result, err := svc.Login(ctx, "carol@example.com", "password123")
		require.NoError(t, err)
		require.False(t, result.MFARequired())
		require.NotEmpty(t, result.Session.AccessToken)
		require.NotEmpty(t, result.Session.RefreshToken)
		require.Equal(t, "Bearer", result.Session.TokenType)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "carol@example.com", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "password123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		account := seedAccount(t, st, "inactive@example.com", "password123")
		account.Active = false
		require.NoError(t, st.Accounts().DeleteAccount(ctx, account.ID))
		require.NoError(t, st.Accounts().CreateAccount(ctx, account))

		_, err := svc.Login(ctx, "inactive@example.com", "password123")
		require.ErrorIs(t, err, ErrAccountInactive)
	})

	t.Run("passwordless account", func(t *testing.T) {
		account := seedAccount(t, st, "social@example.com", "password123")
		require.NoError(t, st.Accounts().DeleteAccount(ctx, account.ID))
		account.PasswordHash = nil
		require.NoError(t, st.Accounts().CreateAccount(ctx, account))

		_, err := svc.Login(ctx, "social@example.com", "anything")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginMFAGate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAccounts(t, st, &recordingMailer{})

	account := seedAccount(t, st, "dave@example.com", "password123")

	enrollment, err := svc.MFA.GenerateTOTP(ctx, account.ID)
	require.NoError(t, err)
	require.NoError(t, svc.MFA.EnableTOTP(ctx, account.ID, totpCode(t, enrollment.Secret)))

	result, err := svc.Login(ctx, "dave@example.com", "password123")
	require.NoError(t, err)

	// Correct password on an MFA account never yields a bearer token.
	require.True(t, result.MFARequired())
	require.Nil(t, result.Session)
	require.NotEmpty(t, result.Challenge.Ticket)

	// The challenge redeems to a full session exactly once.
	session, err := svc.MFA.VerifyChallenge(ctx, result.Challenge.Ticket, totpCode(t, enrollment.Secret))
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)

	_, err = svc.MFA.VerifyChallenge(ctx, result.Challenge.Ticket, totpCode(t, enrollment.Secret))
	require.ErrorIs(t, err, ErrInvalidTicket)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAccounts(t, st, &recordingMailer{})

	account := seedAccount(t, st, "erin@example.com", "oldpassword1")

	require.ErrorIs(t, svc.ChangePassword(ctx, account.ID, "wrong", "newpassword1"), ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, account.ID, "oldpassword1", "newpassword1"))

	_, err := svc.Login(ctx, "erin@example.com", "newpassword1")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "erin@example.com", "oldpassword1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAccounts(t, st, &recordingMailer{})

	account := seedAccount(t, st, "frank@example.com", "password123")
	issued, err := svc.Refresh.Issue(ctx, account.ID)
	require.NoError(t, err)

	t.Run("gated by config", func(t *testing.T) {
		svc.AllowDeletion = false
		require.ErrorIs(t, svc.Delete(ctx, account.ID), ErrFeatureDisabled)
		svc.AllowDeletion = true
	})

	require.NoError(t, svc.Delete(ctx, account.ID))

	_, err = st.Accounts().GetAccountByID(ctx, account.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = svc.Refresh.Exchange(ctx, issued.Token)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

type stubProvider struct {
	identity provider.ExternalIdentity
	err      error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Authenticate(ctx context.Context, creds provider.Credentials) (provider.ExternalIdentity, error) {
	return p.identity, p.err
}

func TestLoginExternal(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAccounts(t, st, &recordingMailer{})

	seedAccount(t, st, "grace@example.com", "password123")

	t.Run("verified identity maps to account", func(t *testing.T) {
		p := &stubProvider{identity: provider.ExternalIdentity{Provider: "stub", Email: "grace@example.com"}}
		result, err := svc.LoginExternal(ctx, p, provider.Credentials{"code": "abc"})
		require.NoError(t, err)
		require.NotEmpty(t, result.Session.AccessToken)
	})

	t.Run("provider failure", func(t *testing.T) {
		p := &stubProvider{err: errors.New("upstream said no")}
		_, err := svc.LoginExternal(ctx, p, nil)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown identity", func(t *testing.T) {
		p := &stubProvider{identity: provider.ExternalIdentity{Provider: "stub", Email: "stranger@example.com"}}
		_, err := svc.LoginExternal(ctx, p, nil)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

// TestCredentialLifecycleScenario walks the full journey: register,
// resend activation, activate, login, refresh, logout-all.
func TestCredentialLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &recordingMailer{}
	svc := newTestAccounts(t, st, mailer)

	// Register: inactive until the ticket is redeemed.
	_, err := svc.Register(ctx, "journey@example.com", "password123", nil)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "journey@example.com", "password123")
	require.ErrorIs(t, err, ErrAccountInactive)

	// Resend replaces the original ticket.
	require.NoError(t, svc.Tickets.RequestActivation(ctx, "journey@example.com"))
	ticket := mailer.last(t).Locals["ticket"]

	require.NoError(t, svc.Tickets.Activate(ctx, ticket))

	// Login yields a full session.
	result, err := svc.Login(ctx, "journey@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, result.Session.AccessToken)
	oldRefresh := result.Session.RefreshToken
	require.NotEmpty(t, oldRefresh)

	// Refresh rotates: old dies, new lives.
	next, _, err := svc.Refresh.Exchange(ctx, oldRefresh)
	require.NoError(t, err)

	_, _, err = svc.Refresh.Exchange(ctx, oldRefresh)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Logout-all kills everything.
	account, err := st.Accounts().GetAccountByEmail(ctx, "journey@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Refresh.RevokeAll(ctx, account.ID))

	_, _, err = svc.Refresh.Exchange(ctx, next.Token)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	_, _, err = svc.Refresh.Exchange(ctx, oldRefresh)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}
