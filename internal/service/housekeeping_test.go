package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/passage/internal/domain"
)

func TestHousekeepingSweepsExpiredRefreshTokens(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	account := seedAccount(t, st, "alice@example.com", "password123")

	now := time.Now()
	expired := domain.RefreshToken{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour),
	}
	live := domain.RefreshToken{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, expired))
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, live))

	svc := NewHousekeepingService(st, slog.Default(), time.Hour)
	svc.cleanup()

	_, err := st.RefreshTokens().GetLiveRefreshToken(ctx, live.Token, now)
	require.NoError(t, err)

	// The expired row is gone outright, not just unmatched.
	refresh := &RefreshService{Store: st, RefreshTTL: time.Hour}
	_, _, err = refresh.Exchange(ctx, expired.Token)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}
