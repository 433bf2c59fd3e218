package domain

// Session is what login, refresh, and a redeemed MFA challenge return:
// the bearer token, its lifetime, the rotating refresh token, and a
// client-safe projection of the account.
type Session struct {
	AccessToken  string            `json:"access_token"`
	TokenType    string            `json:"token_type"` // always "Bearer"
	ExpiresIn    int64             `json:"expires_in"` // seconds until access token expiry
	RefreshToken string            `json:"refresh_token,omitempty"`
	Account      AccountProjection `json:"account"`

	// Claims is the custom claims map embedded in the access token,
	// kept around so the HTTP layer can serve it as a cookie without
	// re-parsing the token. Never serialized into response bodies.
	Claims map[string]any `json:"-"`
}

// AccountProjection is the subset of the account safe to hand to clients.
type AccountProjection struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Active      bool           `json:"active"`
	DefaultRole string         `json:"default_role"`
	Roles       []string       `json:"roles"`
	MFAEnabled  bool           `json:"mfa_enabled"`
	SMSEnabled  bool           `json:"sms_mfa_enabled"`
	Profile     map[string]any `json:"profile,omitempty"`
}

// ProjectAccount builds the client-safe view of an account.
func ProjectAccount(a *Account) AccountProjection {
	return AccountProjection{
		ID:          a.ID,
		Email:       a.Email,
		Active:      a.Active,
		DefaultRole: a.DefaultRole,
		Roles:       a.Roles,
		MFAEnabled:  a.MFAEnabled,
		SMSEnabled:  a.SMSMFAEnabled,
		Profile:     a.Profile,
	}
}

// MFAChallenge is returned instead of a Session when the account has MFA
// enabled: the client must redeem the ticket with a one-time code.
type MFAChallenge struct {
	MFA     bool     `json:"mfa"` // always true
	Ticket  string   `json:"ticket"`
	Methods []string `json:"methods"` // e.g. ["totp"] or ["sms"]
}
