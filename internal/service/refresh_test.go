package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/passage/internal/store"
	"github.com/quokkalabs/passage/pkg/cryptox"
)

func TestRefreshExchangeRotates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &RefreshService{Store: st, RefreshTTL: time.Hour}

	account := seedAccount(t, st, "alice@example.com", "password123")

	issued, err := svc.Issue(ctx, account.ID)
	require.NoError(t, err)

	next, owner, err := svc.Exchange(ctx, issued.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, owner.ID)
	require.NotEqual(t, issued.Token, next.Token)

	// The old value is dead; the new one works.
	_, _, err = svc.Exchange(ctx, issued.Token)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	_, _, err = svc.Exchange(ctx, next.Token)
	require.NoError(t, err)
}

func TestRefreshExchangeRejectsExpired(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &RefreshService{Store: st, RefreshTTL: -time.Second}

	account := seedAccount(t, st, "bob@example.com", "password123")

	issued, err := svc.Issue(ctx, account.ID)
	require.NoError(t, err)

	_, _, err = svc.Exchange(ctx, issued.Token)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshExchangeRejectsInactiveAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &RefreshService{Store: st, RefreshTTL: time.Hour}

	account := seedAccount(t, st, "carol@example.com", "password123")
	account.Active = false
	require.NoError(t, st.Accounts().DeleteAccount(ctx, account.ID))
	require.NoError(t, st.Accounts().CreateAccount(ctx, account))

	issued, err := svc.Issue(ctx, account.ID)
	require.NoError(t, err)

	_, _, err = svc.Exchange(ctx, issued.Token)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshRevokeAll(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &RefreshService{Store: st, RefreshTTL: time.Hour}

	account := seedAccount(t, st, "dave@example.com", "password123")

	first, err := svc.Issue(ctx, account.ID)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, account.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ctx, account.ID))

	_, _, err = svc.Exchange(ctx, first.Token)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	_, _, err = svc.Exchange(ctx, second.Token)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshRevokeOneIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &RefreshService{Store: st, RefreshTTL: time.Hour}

	account := seedAccount(t, st, "erin@example.com", "password123")

	issued, err := svc.Issue(ctx, account.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeOne(ctx, issued.Token))
	require.NoError(t, svc.RevokeOne(ctx, issued.Token))
	require.NoError(t, svc.RevokeOne(ctx, "never-existed"))

	_, _, err = svc.Exchange(ctx, issued.Token)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshTokenFingerprintedAtRest(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &RefreshService{Store: st, RefreshTTL: time.Hour}

	account := seedAccount(t, st, "grace@example.com", "password123")

	issued, err := svc.Issue(ctx, account.ID)
	require.NoError(t, err)

	// The raw value is never stored; only its fingerprint is.
	_, err = st.RefreshTokens().GetLiveRefreshToken(ctx, issued.Token, time.Now())
	require.ErrorIs(t, err, store.ErrNotFound)

	row, err := st.RefreshTokens().GetLiveRefreshToken(ctx, cryptox.FingerprintToken(issued.Token), time.Now())
	require.NoError(t, err)
	require.Equal(t, account.ID, row.AccountID)
}

func TestRefreshMultiDevice(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &RefreshService{Store: st, RefreshTTL: time.Hour}

	account := seedAccount(t, st, "frank@example.com", "password123")

	// Several concurrently valid tokens per account; exchanging one
	// leaves the others alone.
	first, err := svc.Issue(ctx, account.ID)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, account.ID)
	require.NoError(t, err)

	_, _, err = svc.Exchange(ctx, first.Token)
	require.NoError(t, err)

	_, _, err = svc.Exchange(ctx, second.Token)
	require.NoError(t, err)
}
