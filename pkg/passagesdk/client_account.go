package passagesdk

import (
	"context"
	"net/http"
)

// Register creates a new account. When the service verifies emails the
// account starts inactive and an activation ticket is mailed out.
func (c *Client) Register(ctx context.Context, email, password string, profile map[string]any) (*RegisterResponse, error) {
	var resp RegisterResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/accounts", RegisterRequest{
		Email:    email,
		Password: password,
		Profile:  profile,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Activate redeems an activation ticket, flipping the account active.
func (c *Client) Activate(ctx context.Context, ticket string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/accounts/activate", ActivateRequest{
		Ticket: ticket,
	}, nil)
}

// RequestActivationResend asks for a fresh activation ticket to be mailed.
// Always succeeds from the caller's point of view, whether or not the
// account exists.
func (c *Client) RequestActivationResend(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/accounts/activate/resend", EmailRequest{
		Email: email,
	}, nil)
}

// RequestPasswordReset asks for a password reset ticket to be mailed.
// Always succeeds from the caller's point of view, whether or not the
// account exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/accounts/password/forgot", EmailRequest{
		Email: email,
	}, nil)
}

// ResetPassword redeems a ticket and sets a new password.
func (c *Client) ResetPassword(ctx context.Context, ticket, newPassword string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/accounts/password/reset", ResetPasswordRequest{
		Ticket:   ticket,
		Password: newPassword,
	}, nil)
}

// ConfirmEmailChange redeems an email change ticket, promoting the staged
// address to the account's email.
func (c *Client) ConfirmEmailChange(ctx context.Context, ticket string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/accounts/email/confirm", ConfirmEmailChangeRequest{
		Ticket: ticket,
	}, nil)
}

// JWKS fetches the service's public key set. Services signing with HS256
// do not publish one and answer 404.
func (c *Client) JWKS(ctx context.Context) (*JWKSResponse, error) {
	var resp JWKSResponse
	if err := c.doJSON(ctx, http.MethodGet, "/.well-known/jwks.json", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Livez checks the liveness endpoint.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Readyz checks the readiness endpoint, including dependency checks.
func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
