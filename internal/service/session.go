package service

import (
	"context"
	"fmt"

	"github.com/quokkalabs/passage/internal/domain"
	"github.com/quokkalabs/passage/pkg/jwtx"
)

// SessionService composes the response returned on login, refresh, and a
// redeemed MFA challenge: bearer token, expiry, refresh token, and the
// account projection.
type SessionService struct {
	Codec   *jwtx.Codec
	Refresh *RefreshService
	Claims  ClaimsOptions
}

// Create mints a bearer token and a brand new refresh token for the
// account. Used by login and MFA success.
func (s *SessionService) Create(ctx context.Context, account *domain.Account) (domain.Session, error) {
	rt, err := s.Refresh.Issue(ctx, account.ID)
	if err != nil {
		return domain.Session{}, err
	}
	return s.Assemble(account, rt.Token)
}

// Assemble builds a session around an already-issued refresh token. The
// refresh path uses this so the rotation transaction stays in control of
// the token row.
func (s *SessionService) Assemble(account *domain.Account, refreshToken string) (domain.Session, error) {
	claims := ProjectClaims(account, s.Claims)

	token, _, err := s.Codec.Sign(account.ID, claims)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign access token: %w", err)
	}

	return domain.Session{
		AccessToken:  token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Codec.TTL().Seconds()),
		RefreshToken: refreshToken,
		Account:      domain.ProjectAccount(account),
		Claims:       claims,
	}, nil
}
