package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/passage/internal/domain"
	"github.com/quokkalabs/passage/internal/notify"
	"github.com/quokkalabs/passage/pkg/cryptox"
	"github.com/quokkalabs/passage/pkg/idx"
)

func TestTicketSingleUse(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TicketService{Store: st, Mail: &recordingMailer{}, TicketTTL: time.Hour, LostPasswordEnabled: true}

	account := seedAccount(t, st, "alice@example.com", "password123")

	ticket, err := svc.Issue(ctx, account.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, svc.Activate(ctx, ticket))

	// The consumed ticket is rotated away; a replay must fail.
	require.ErrorIs(t, svc.Activate(ctx, ticket), ErrInvalidTicket)
}

func TestTicketExpiry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TicketService{Store: st, Mail: &recordingMailer{}, TicketTTL: time.Hour, LostPasswordEnabled: true}

	account := seedAccount(t, st, "bob@example.com", "password123")

	ticket, err := svc.Issue(ctx, account.ID, -time.Second)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Activate(ctx, ticket), ErrInvalidTicket)
	require.ErrorIs(t, svc.ResetPassword(ctx, ticket, "newpassword1"), ErrInvalidTicket)
}

func TestTicketActivateFlipsAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TicketService{Store: st, Mail: &recordingMailer{}, TicketTTL: time.Hour}

	now := time.Now()
	account := domain.Account{
		ID: idx.New().String(), Email: "carol@example.com",
		Active: false, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, st.Accounts().CreateAccount(ctx, account))

	ticket, err := svc.Issue(ctx, account.ID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, svc.Activate(ctx, ticket))

	got, err := st.Accounts().GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
}

func TestResetPasswordAcceptsAnyLiveTicket(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TicketService{Store: st, Mail: &recordingMailer{}, TicketTTL: time.Hour, LostPasswordEnabled: true}

	account := seedAccount(t, st, "dave@example.com", "oldpassword1")

	// Ticket issued for activation, consumed by the reset flow. All
	// recovery flows share the one ticket field.
	ticket, err := svc.Issue(ctx, account.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, ticket, "newpassword1"))

	got, err := st.Accounts().GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword("newpassword1", *got.PasswordHash))
	require.ErrorIs(t, cryptox.VerifyPassword("oldpassword1", *got.PasswordHash), cryptox.ErrPasswordMismatch)
}

func TestResetPasswordFeatureGate(t *testing.T) {
	svc := &TicketService{Store: newTestStore(t), Mail: &recordingMailer{}, LostPasswordEnabled: false}

	require.ErrorIs(t, svc.ResetPassword(context.Background(), "any", "newpassword1"), ErrFeatureDisabled)
	require.ErrorIs(t, svc.RequestPasswordReset(context.Background(), "a@b.c"), ErrFeatureDisabled)
}

func TestEmailChangeFlow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &recordingMailer{}
	svc := &TicketService{Store: st, Mail: mailer, TicketTTL: time.Hour}

	account := seedAccount(t, st, "erin@example.com", "password123")

	require.NoError(t, svc.RequestEmailChange(ctx, account.ID, "erin-new@example.com"))

	// Staged, not yet visible.
	got, err := st.Accounts().GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "erin@example.com", got.Email)
	require.NotNil(t, got.NewEmail)
	require.Equal(t, "erin-new@example.com", *got.NewEmail)

	// The ticket goes to the new address.
	mail := mailer.last(t)
	require.Equal(t, "erin-new@example.com", mail.To)
	require.Equal(t, notify.TemplateEmailChange, mail.Template)

	require.NoError(t, svc.ConfirmEmailChange(ctx, mail.Locals["ticket"]))

	got, err = st.Accounts().GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "erin-new@example.com", got.Email)
	require.Nil(t, got.NewEmail)
}

func TestRequestEmailChangeConflict(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TicketService{Store: st, Mail: &recordingMailer{}, TicketTTL: time.Hour}

	account := seedAccount(t, st, "frank@example.com", "password123")
	seedAccount(t, st, "taken@example.com", "password123")

	err := svc.RequestEmailChange(ctx, account.ID, "taken@example.com")
	require.ErrorIs(t, err, ErrEmailConflict)

	// Case-insensitive.
	err = svc.RequestEmailChange(ctx, account.ID, "TAKEN@example.com")
	require.ErrorIs(t, err, ErrEmailConflict)
}

func TestRequestFlowsNeverRevealAccountExistence(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &recordingMailer{}
	svc := &TicketService{Store: st, Mail: mailer, TicketTTL: time.Hour, LostPasswordEnabled: true}

	// Unknown addresses succeed without sending anything.
	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))
	require.NoError(t, svc.RequestActivation(ctx, "nobody@example.com"))
	require.Empty(t, mailer.sent)

	// A mail failure on a real account is swallowed too.
	seedAccount(t, st, "grace@example.com", "password123")
	mailer.fail = true
	require.NoError(t, svc.RequestPasswordReset(ctx, "grace@example.com"))
}

func TestRequestActivationSkipsActiveAccounts(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &recordingMailer{}
	svc := &TicketService{Store: st, Mail: mailer, TicketTTL: time.Hour}

	seedAccount(t, st, "active@example.com", "password123")
	require.NoError(t, svc.RequestActivation(ctx, "active@example.com"))
	require.Empty(t, mailer.sent)
}

func TestIssueIsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TicketService{Store: st, Mail: &recordingMailer{}, TicketTTL: time.Hour}

	account := seedAccount(t, st, "henry@example.com", "password123")

	first, err := svc.Issue(ctx, account.ID, time.Hour)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, account.ID, time.Hour)
	require.NoError(t, err)

	// Only the newest ticket is honored.
	require.ErrorIs(t, svc.Activate(ctx, first), ErrInvalidTicket)
	require.NoError(t, svc.Activate(ctx, second))
}
