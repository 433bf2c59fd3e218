package provider

import "context"

// Credentials is the opaque credential material handed to a provider
// (an OAuth code, an assertion, etc.). Each provider documents the keys
// it consumes.
type Credentials map[string]string

// ExternalIdentity is what a provider vouches for after verifying the
// credentials out of band. Email is the join key back to an account.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Email    string
}

// Provider authenticates against a third-party identity service and
// returns a verified external identity. Implementations live outside the
// credential core; the account service only consumes the result.
type Provider interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (ExternalIdentity, error)
}
