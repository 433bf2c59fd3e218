package passagesdk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Session represents an authenticated session with automatic token refresh.
// All Session methods refresh the access token when it nears expiry.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	account      AccountInfo
}

// newSession creates a new authenticated session from a session response.
func newSession(client *Client, resp *SessionResponse) *Session {
	s := newSessionFromTokens(client, resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)
	s.account = resp.Account
	return s
}

func newSessionFromTokens(client *Client, accessToken, refreshToken string, expiresIn int64) *Session {
	// Refresh 30 seconds before actual expiry
	expiresAt := time.Now().Add(time.Duration(expiresIn)*time.Second - 30*time.Second)

	return &Session{
		client:       client,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
	}
}

// Account returns the account projection captured at login or last refresh.
func (s *Session) Account() AccountInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// AccessToken returns the current access token without checking expiration.
// Most callers should use the Session methods, which refresh automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// getValidToken returns a valid access token, refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	var resp SessionResponse
	err := s.client.doJSON(ctx, http.MethodPost, "/v1/session/refresh", RefreshRequest{
		RefreshToken: s.refreshToken,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - 30*time.Second)
	s.account = resp.Account

	return s.accessToken, nil
}

// doAuth performs an authenticated JSON request using the session's token.
func (s *Session) doAuth(ctx context.Context, method, path string, in, out any) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}
	return s.client.doJSONAuth(ctx, method, path, token, in, out)
}

// Logout revokes this session's refresh token. When all is true every
// refresh token on the account is revoked, not just this session's.
func (s *Session) Logout(ctx context.Context, all bool) error {
	s.mu.RLock()
	refreshToken := s.refreshToken
	s.mu.RUnlock()

	return s.doAuth(ctx, http.MethodPost, "/v1/session/logout", LogoutRequest{
		RefreshToken: refreshToken,
		All:          all,
	}, nil)
}

// ChangePassword changes the account password. The old password is
// re-verified even though the caller holds a bearer token.
func (s *Session) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return s.doAuth(ctx, http.MethodPost, "/v1/accounts/password", ChangePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}, nil)
}

// RequestEmailChange stages a new email address and mails a confirmation
// ticket to it. The account keeps its old address until the ticket is
// redeemed via Client.ConfirmEmailChange.
func (s *Session) RequestEmailChange(ctx context.Context, newEmail string) error {
	return s.doAuth(ctx, http.MethodPost, "/v1/accounts/email", EmailChangeRequest{
		NewEmail: newEmail,
	}, nil)
}

// DeleteAccount permanently deletes the account and revokes all of its
// refresh tokens. Only available when the service allows self-deletion.
func (s *Session) DeleteAccount(ctx context.Context) error {
	return s.doAuth(ctx, http.MethodDelete, "/v1/accounts", nil, nil)
}

// GenerateTOTP provisions a TOTP secret for the account and returns it with
// the otpauth URL and a QR code image for authenticator apps. MFA is not
// active until the secret is confirmed with EnableTOTP.
func (s *Session) GenerateTOTP(ctx context.Context) (*TOTPEnrollResponse, error) {
	var resp TOTPEnrollResponse
	if err := s.doAuth(ctx, http.MethodPost, "/v1/mfa/totp/generate", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EnableTOTP confirms the provisioned TOTP secret with a code and turns
// the method on.
func (s *Session) EnableTOTP(ctx context.Context, code string) error {
	return s.doAuth(ctx, http.MethodPost, "/v1/mfa/totp/enable", MFACodeRequest{Code: code}, nil)
}

// DisableTOTP turns TOTP off after verifying a current code.
func (s *Session) DisableTOTP(ctx context.Context, code string) error {
	return s.doAuth(ctx, http.MethodPost, "/v1/mfa/totp/disable", MFACodeRequest{Code: code}, nil)
}

// GenerateSMS provisions SMS MFA for the given phone number and sends the
// first code. The method is not active until confirmed with EnableSMS.
func (s *Session) GenerateSMS(ctx context.Context, phoneNumber string) error {
	return s.doAuth(ctx, http.MethodPost, "/v1/mfa/sms/generate", SMSEnrollRequest{
		PhoneNumber: phoneNumber,
	}, nil)
}

// EnableSMS confirms SMS MFA with a delivered code and turns the method on.
func (s *Session) EnableSMS(ctx context.Context, code string) error {
	return s.doAuth(ctx, http.MethodPost, "/v1/mfa/sms/enable", MFACodeRequest{Code: code}, nil)
}

// DisableSMS turns SMS MFA off after verifying a delivered code.
func (s *Session) DisableSMS(ctx context.Context, code string) error {
	return s.doAuth(ctx, http.MethodPost, "/v1/mfa/sms/disable", MFACodeRequest{Code: code}, nil)
}
