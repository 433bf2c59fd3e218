package passagesdk

import (
	"context"
	"net/http"
)

// loginResponse covers both shapes the login endpoint can answer with: a
// full session, or an MFA challenge when the account has a second factor.
type loginResponse struct {
	SessionResponse
	MFA     bool     `json:"mfa"`
	Ticket  string   `json:"ticket"`
	Methods []string `json:"methods"`
}

// Login authenticates with email and password and returns an authenticated
// Session. If the account has MFA enabled the returned error is a
// *MFAChallengeError carrying the challenge ticket; redeem it with VerifyMFA.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/session", LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.MFA {
		return nil, &MFAChallengeError{
			Ticket:  resp.Ticket,
			Methods: resp.Methods,
		}
	}
	return newSession(c, &resp.SessionResponse), nil
}

// VerifyMFA redeems a login challenge ticket together with a one-time code
// and returns the authenticated Session. The ticket is single use: a
// successful redemption kills it, a failed code leaves it retryable until
// it expires.
func (c *Client) VerifyMFA(ctx context.Context, ticket, code string) (*Session, error) {
	var resp SessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/session/mfa", MFAVerifyRequest{
		Ticket: ticket,
		Code:   code,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return newSession(c, &resp), nil
}

// Refresh exchanges a refresh token for a new session. The old token is
// revoked as part of the exchange.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var resp SessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/session/refresh", RefreshRequest{
		RefreshToken: refreshToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return newSession(c, &resp), nil
}

// Logout revokes a single refresh token.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/session/logout", LogoutRequest{
		RefreshToken: refreshToken,
	}, nil)
}

// NewSessionFromTokens creates an authenticated session from existing tokens.
// This is useful when tokens were stored from a previous authentication.
// The session still refreshes automatically when the access token expires.
func (c *Client) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int64) *Session {
	return newSessionFromTokens(c, accessToken, refreshToken, expiresIn)
}
