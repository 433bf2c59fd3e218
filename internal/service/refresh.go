package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quokkalabs/passage/internal/domain"
	"github.com/quokkalabs/passage/internal/store"
	"github.com/quokkalabs/passage/pkg/cryptox"
)

// RefreshService manages the long-lived rotating session tokens. Rotation
// is delete-old/insert-new inside one transaction; if either half fails
// the exchange fails closed and no session is granted. Stored rows hold
// only the SHA-256 fingerprint of the token; the raw value leaves the
// service exactly once, at issue time.
type RefreshService struct {
	Store      store.Store
	RefreshTTL time.Duration
}

// Issue inserts a new refresh token for the account. There is no cap on
// concurrently valid tokens; every device gets its own.
func (s *RefreshService) Issue(ctx context.Context, accountID string) (domain.RefreshToken, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("issue refresh token: %w", err)
	}

	now := time.Now()
	t := domain.RefreshToken{
		Token:     cryptox.FingerprintToken(raw),
		AccountID: accountID,
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, t); err != nil {
		return domain.RefreshToken{}, fmt.Errorf("issue refresh token: %w", err)
	}

	t.Token = raw
	return t, nil
}

// Exchange rotates old for a fresh token and returns the owning account.
// The old token must be unexpired and its account active; once the
// transaction commits the old value is dead for good.
func (s *RefreshService) Exchange(ctx context.Context, old string) (domain.RefreshToken, domain.Account, error) {
	now := time.Now()

	var (
		next    domain.RefreshToken
		account domain.Account
	)

	oldPrint := cryptox.FingerprintToken(old)
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.RefreshToken{}, domain.Account{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.RefreshTokens().GetLiveRefreshToken(ctx, oldPrint, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		account, err = tx.Accounts().GetAccountByID(ctx, current.AccountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if !account.Active {
			return ErrInvalidRefresh
		}

		if err := tx.RefreshTokens().DeleteRefreshToken(ctx, oldPrint); err != nil {
			return err
		}

		next = domain.RefreshToken{
			Token:     cryptox.FingerprintToken(raw),
			AccountID: account.ID,
			ExpiresAt: now.Add(s.RefreshTTL),
			CreatedAt: now,
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, next)
	})
	if err != nil {
		return domain.RefreshToken{}, domain.Account{}, err
	}

	next.Token = raw
	return next, account, nil
}

// RevokeOne deletes a single token. Idempotent; revoking an absent token
// is not an error.
func (s *RefreshService) RevokeOne(ctx context.Context, token string) error {
	return s.Store.RefreshTokens().DeleteRefreshToken(ctx, cryptox.FingerprintToken(token))
}

// RevokeAll deletes every token for the account (logout-all, self-delete,
// administrative revoke).
func (s *RefreshService) RevokeAll(ctx context.Context, accountID string) error {
	return s.Store.RefreshTokens().DeleteAccountRefreshTokens(ctx, accountID)
}

// RevokeAllForToken resolves a live token to its account and revokes every
// token on that account. Proof of possession of one live token is the
// authorization for logout-all.
func (s *RefreshService) RevokeAllForToken(ctx context.Context, token string) error {
	rt, err := s.Store.RefreshTokens().GetLiveRefreshToken(ctx, cryptox.FingerprintToken(token), time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidRefresh
		}
		return err
	}
	return s.RevokeAll(ctx, rt.AccountID)
}
