package passagesdk

import (
	"github.com/quokkalabs/passage/pkg/jwtx"
)

// ============================================================================
// Internal Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse represents a standard error response body.
// This is used internally for parsing HTTP error responses.
// Client code should use the APIError type from errors.go instead.
type ErrorResponse struct {
	// Error is the machine-readable error code (e.g., "invalid_credentials")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Session Types
// ============================================================================

// SessionResponse is returned from login, refresh, and a redeemed MFA
// challenge.
type SessionResponse struct {
	// AccessToken is the JWT bearer token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int64 `json:"expires_in"`

	// RefreshToken is the opaque rotating token used to obtain new sessions.
	// Empty when the session was delivered via cookies.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Account is a client-safe projection of the authenticated account
	Account AccountInfo `json:"account"`
}

// AccountInfo is the client-safe projection of an account returned inside
// session responses.
type AccountInfo struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Active      bool           `json:"active"`
	DefaultRole string         `json:"default_role"`
	Roles       []string       `json:"roles"`
	MFAEnabled  bool           `json:"mfa_enabled"`
	SMSEnabled  bool           `json:"sms_mfa_enabled"`
	Profile     map[string]any `json:"profile,omitempty"`
}

// MFAChallengeResponse is returned from login instead of a session when the
// account requires a second factor.
type MFAChallengeResponse struct {
	MFA     bool     `json:"mfa"`
	Ticket  string   `json:"ticket"`
	Methods []string `json:"methods"`
}

// LoginRequest is the body for POST /v1/session.
type LoginRequest struct {
	// Email is the account email address
	Email string `json:"email"`

	// Password is the account password
	Password string `json:"password"`

	// Cookies asks the server to deliver the refresh token and a claims
	// projection as cookies instead of in the response body.
	Cookies bool `json:"cookies,omitempty"`
}

// RefreshRequest is the body for POST /v1/session/refresh. The token may be
// omitted when the client holds the refresh cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	Cookies      bool   `json:"cookies,omitempty"`
}

// LogoutRequest is the body for POST /v1/session/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`

	// All revokes every refresh token for the account instead of just the
	// one presented. Requires a bearer token.
	All bool `json:"all,omitempty"`
}

// MFAVerifyRequest is the body for POST /v1/session/mfa: redeems a login
// challenge ticket together with a one-time code.
type MFAVerifyRequest struct {
	Ticket  string `json:"ticket"`
	Code    string `json:"code"`
	Cookies bool   `json:"cookies,omitempty"`
}

// ============================================================================
// Account Types
// ============================================================================

// RegisterRequest is the body for POST /v1/accounts.
type RegisterRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Profile  map[string]any `json:"profile,omitempty"`
}

// RegisterResponse is returned from account registration.
type RegisterResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// ActivateRequest is the body for POST /v1/accounts/activate.
type ActivateRequest struct {
	Ticket string `json:"ticket"`
}

// EmailRequest carries just an email address, used by the activation resend
// and lost-password endpoints. These endpoints always answer 204 regardless
// of whether the account exists.
type EmailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body for POST /v1/accounts/password/reset.
type ResetPasswordRequest struct {
	Ticket   string `json:"ticket"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the body for POST /v1/accounts/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// EmailChangeRequest is the body for POST /v1/accounts/email.
type EmailChangeRequest struct {
	NewEmail string `json:"new_email"`
}

// ConfirmEmailChangeRequest is the body for POST /v1/accounts/email/confirm.
type ConfirmEmailChangeRequest struct {
	Ticket string `json:"ticket"`
}

// ============================================================================
// MFA Management Types
// ============================================================================

// TOTPEnrollResponse is returned when generating a TOTP secret.
type TOTPEnrollResponse struct {
	// Secret is the base32-encoded TOTP secret
	Secret string `json:"secret"`

	// URL is the otpauth:// provisioning URI for authenticator apps
	URL string `json:"url"`

	// Image is a base64-encoded PNG rendering of the provisioning QR code
	Image string `json:"image"`
}

// MFACodeRequest carries a one-time code for enabling or disabling a method.
type MFACodeRequest struct {
	Code string `json:"code"`
}

// SMSEnrollRequest is the body for POST /v1/mfa/sms/generate.
type SMSEnrollRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// ============================================================================
// Discovery / Health Types
// ============================================================================

// JWKSResponse is the JSON Web Key Set served at /.well-known/jwks.json.
// Only present for asymmetric signing algorithms.
type JWKSResponse = jwtx.JWKS

// HealthResponse is returned from the livez and readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency health on the readyz endpoint.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}
