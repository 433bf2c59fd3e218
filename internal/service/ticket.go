package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quokkalabs/passage/internal/notify"
	"github.com/quokkalabs/passage/internal/store"
	"github.com/quokkalabs/passage/pkg/cryptox"
	"github.com/quokkalabs/passage/pkg/slogx"
)

// TicketService owns the one-time verification tickets stored on the
// account row. Issue overwrites (last write wins); every Consume variant
// below is a single conditional update in the accounts repo, so the
// transition and the rotation land together or not at all.
type TicketService struct {
	Store store.Store
	Mail  notify.Mailer

	TicketTTL           time.Duration
	LostPasswordEnabled bool
}

// Issue places a fresh ticket on the account with expiry now+ttl.
// Concurrent issuance is last-write-wins: only the newest ticket is live.
func (s *TicketService) Issue(ctx context.Context, accountID string, ttl time.Duration) (string, error) {
	ticket := uuid.NewString()
	now := time.Now()

	err := s.Store.Accounts().SetTicket(ctx, accountID, ticket, now.Add(ttl), now)
	if err != nil {
		return "", fmt.Errorf("issue ticket: %w", err)
	}
	return ticket, nil
}

// Activate consumes a ticket to flip the account active.
func (s *TicketService) Activate(ctx context.Context, ticket string) error {
	err := s.Store.Accounts().ActivateByTicket(ctx, ticket, uuid.NewString(), time.Now())
	return mapTicketErr(err)
}

// ResetPassword consumes a ticket to set a new password hash. Any live
// ticket is accepted regardless of which flow issued it; all recovery
// flows share the single ticket field.
func (s *TicketService) ResetPassword(ctx context.Context, ticket, newPassword string) error {
	if !s.LostPasswordEnabled {
		return ErrFeatureDisabled
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Store.Accounts().SetPasswordHashByTicket(ctx, ticket, uuid.NewString(), hash, time.Now())
	return mapTicketErr(err)
}

// ConfirmEmailChange consumes a ticket to promote the staged new_email
// into the visible email.
func (s *TicketService) ConfirmEmailChange(ctx context.Context, ticket string) error {
	err := s.Store.Accounts().ConfirmEmailChangeByTicket(ctx, ticket, uuid.NewString(), time.Now())
	if errors.Is(err, store.ErrAlreadyExists) {
		return ErrEmailConflict
	}
	return mapTicketErr(err)
}

// RequestActivation re-issues an activation ticket and mails it. The
// response never reveals whether the account exists; failures after the
// lookup are logged server-side only.
func (s *TicketService) RequestActivation(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("activation resend lookup failed", "err", err)
		}
		return nil
	}
	if account.Active {
		return nil
	}

	ticket, err := s.Issue(ctx, account.ID, s.TicketTTL)
	if err != nil {
		log.Error("activation resend ticket issue failed", "err", err)
		return nil
	}

	if err := s.Mail.Send(ctx, account.Email, notify.TemplateActivation, map[string]string{"ticket": ticket}); err != nil {
		log.Error("activation mail failed", "err", err)
	}
	return nil
}

// RequestPasswordReset issues a reset ticket and mails it. Same
// enumeration-safe shape as RequestActivation.
func (s *TicketService) RequestPasswordReset(ctx context.Context, email string) error {
	if !s.LostPasswordEnabled {
		return ErrFeatureDisabled
	}
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("password reset lookup failed", "err", err)
		}
		return nil
	}

	ticket, err := s.Issue(ctx, account.ID, s.TicketTTL)
	if err != nil {
		log.Error("password reset ticket issue failed", "err", err)
		return nil
	}

	if err := s.Mail.Send(ctx, account.Email, notify.TemplateLostPassword, map[string]string{"ticket": ticket}); err != nil {
		log.Error("password reset mail failed", "err", err)
	}
	return nil
}

// RequestEmailChange stages newEmail invisibly on the account and mails a
// confirmation ticket to the new address. The visible email only changes
// when the ticket is consumed, so intercepting the mail alone reveals
// nothing.
func (s *TicketService) RequestEmailChange(ctx context.Context, accountID, newEmail string) error {
	inUse, err := s.Store.Accounts().EmailInUse(ctx, newEmail)
	if err != nil {
		return fmt.Errorf("email change lookup: %w", err)
	}
	if inUse {
		return ErrEmailConflict
	}

	ticket := uuid.NewString()
	now := time.Now()
	if err := s.Store.Accounts().StageEmailChange(ctx, accountID, newEmail, ticket, now.Add(s.TicketTTL), now); err != nil {
		return fmt.Errorf("stage email change: %w", err)
	}

	if err := s.Mail.Send(ctx, newEmail, notify.TemplateEmailChange, map[string]string{"ticket": ticket}); err != nil {
		slogx.FromContext(ctx).Error("email change mail failed", "err", err)
		return ErrEmailDelivery
	}
	return nil
}

func mapTicketErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidTicket
	}
	return err
}
