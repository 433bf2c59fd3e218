package sqlite

import (
	"context"
	"time"

	"github.com/quokkalabs/passage/internal/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, account_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		t.Token, t.AccountID, t.ExpiresAt.UTC(), t.CreatedAt.UTC())
	return mapConflict(err)
}

func (r *refreshTokensRepo) GetLiveRefreshToken(ctx context.Context, token string, now time.Time) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.QueryRowContext(ctx, `
		SELECT token, account_id, expires_at, created_at
		FROM refresh_tokens
		WHERE token = ? AND expires_at > ?`,
		token, now.UTC(),
	).Scan(&t.Token, &t.AccountID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE token = ?`, token)
	return err
}

func (r *refreshTokensRepo) DeleteAccountRefreshTokens(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE account_id = ?`, accountID)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, now.UTC())
	return err
}
