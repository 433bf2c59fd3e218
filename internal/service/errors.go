package service

import "errors"

// Client-facing error taxonomy. The HTTP layer matches these with
// errors.Is and maps them to stable codes; anything else is treated as an
// internal error, logged, and surfaced as a generic server_error.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountInactive    = errors.New("account_inactive")
	ErrInvalidTicket      = errors.New("invalid_or_expired_ticket")
	ErrInvalidRefresh     = errors.New("invalid_or_expired_refresh_token")
	ErrInvalidCode        = errors.New("invalid_code")
	ErrMFANotEnabled      = errors.New("mfa_not_enabled")
	ErrMFAAlreadyEnabled  = errors.New("mfa_already_enabled")
	ErrMFASecretNotSet    = errors.New("mfa_secret_not_set")
	ErrFeatureDisabled    = errors.New("feature_disabled")
	ErrEmailDelivery      = errors.New("email_delivery_failed")
	ErrSMSDelivery        = errors.New("sms_delivery_failed")
	ErrEmailConflict      = errors.New("email_conflict")
)
