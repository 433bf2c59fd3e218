package passagesdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quokkalabs/passage/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeInvalidCredentials  = "invalid_credentials"
	ErrorCodeAccountInactive     = "account_inactive"
	ErrorCodeInvalidTicket       = "invalid_or_expired_ticket"
	ErrorCodeInvalidRefreshToken = "invalid_or_expired_refresh_token"
	ErrorCodeInvalidCode         = "invalid_code"
	ErrorCodeInvalidToken        = "invalid_token"
	ErrorCodeMFANotEnabled       = "mfa_not_enabled"
	ErrorCodeMFAAlreadyEnabled   = "mfa_already_enabled"
	ErrorCodeFeatureDisabled     = "feature_disabled"
	ErrorCodeEmailConflict       = "email_conflict"
	ErrorCodeEmailDelivery       = "email_delivery_failed"
	ErrorCodeServerError         = "server_error"
)

// ============================================================================
// APIError - Standard error type
// ============================================================================

// APIError represents an error response from the service. It implements the
// error interface and is shared by the server (to write HTTP responses) and
// the SDK client (to surface errors to callers).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g., "invalid_credentials")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

// ============================================================================
// Predefined API Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned when the request body is malformed or
	// missing required parameters.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidCredentials is returned when the email or password is wrong.
	// The description deliberately does not say which.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	// ErrAccountInactive is returned when the account exists but has not been
	// activated yet.
	ErrAccountInactive = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeAccountInactive,
		Description: "account is not activated",
	}

	// ErrInvalidTicket is returned when a verification ticket is unknown,
	// expired, or already redeemed.
	ErrInvalidTicket = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidTicket,
		Description: "the ticket is invalid or has expired",
	}

	// ErrInvalidRefreshToken is returned when a refresh token is unknown,
	// expired, or already rotated away.
	ErrInvalidRefreshToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidRefreshToken,
		Description: "the refresh token is invalid or has expired",
	}

	// ErrInvalidCode is returned when an MFA code does not verify.
	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCode,
		Description: "the verification code is invalid",
	}

	// ErrInvalidToken is returned when the access token is missing, invalid,
	// expired or revoked.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid, expired or revoked",
	}

	// ErrMFANotEnabled is returned when an MFA operation requires an enrolled
	// method that the account does not have.
	ErrMFANotEnabled = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMFANotEnabled,
		Description: "multi-factor authentication is not enabled for this account",
	}

	// ErrMFAAlreadyEnabled is returned when enrolling a method that is
	// already active.
	ErrMFAAlreadyEnabled = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMFAAlreadyEnabled,
		Description: "multi-factor authentication is already enabled for this account",
	}

	// ErrFeatureDisabled is returned when the requested feature is switched
	// off by configuration. 404 so disabled surfaces look absent.
	ErrFeatureDisabled = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeFeatureDisabled,
		Description: "this feature is not available",
	}

	// ErrEmailConflict is returned when the requested email address is
	// already taken by another account.
	ErrEmailConflict = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeEmailConflict,
		Description: "the email address is already in use",
	}

	// ErrEmailDelivery is returned when the verification email could not be
	// handed to the mail transport.
	ErrEmailDelivery = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeEmailDelivery,
		Description: "the verification email could not be sent",
	}

	// ErrServerError is returned for unexpected internal failures.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	// ErrMethodNotAllowed is returned when the HTTP method is not allowed.
	ErrMethodNotAllowed = &APIError{
		StatusCode:  http.StatusMethodNotAllowed,
		Code:        ErrorCodeInvalidRequest,
		Description: "method not allowed",
	}
)

// NewAPIError creates a new APIError with the given status code, error code,
// and description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// ============================================================================
// MFA Challenge
// ============================================================================

// MFAChallengeError is returned from login when the account requires a second
// factor. The ticket must be redeemed on the MFA verification endpoint
// together with a code from one of the listed methods.
type MFAChallengeError struct {
	// Ticket is the one-time challenge ticket to submit with the MFA code
	Ticket string `json:"ticket"`

	// Methods lists the available MFA methods (e.g., ["totp", "sms"])
	Methods []string `json:"methods"`
}

// Error implements the error interface.
func (e *MFAChallengeError) Error() string {
	return fmt.Sprintf("mfa required: available methods=%v", e.Methods)
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse attempts to parse an HTTP error response into a typed
// error. Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
