package service

import (
	"fmt"
	"slices"

	"github.com/quokkalabs/passage/internal/domain"
)

// Claim keys within the configured namespace.
const (
	ClaimUserID       = "user-id"
	ClaimDefaultRole  = "default-role"
	ClaimAllowedRoles = "allowed-roles"
)

// ClaimsOptions configures the projection from account to token claims.
type ClaimsOptions struct {
	// DefaultRole is the global fallback when the account has none.
	DefaultRole string

	// AnonymousRole replaces the default role for anonymous accounts.
	AnonymousRole string

	// CustomFields lists profile field names copied into the claim set
	// verbatim (under their own names).
	CustomFields []string
}

// ProjectClaims maps an account to the claim set embedded in a bearer
// token. It is a pure function: no side effects, deterministic, and total
// over any well-formed account.
func ProjectClaims(a *domain.Account, opts ClaimsOptions) map[string]any {
	defaultRole := a.DefaultRole
	if a.Anonymous {
		defaultRole = opts.AnonymousRole
	}
	if defaultRole == "" {
		defaultRole = opts.DefaultRole
	}

	// Assigned roles in insertion order, with the default role guaranteed
	// to be a member.
	allowed := make([]string, 0, len(a.Roles)+1)
	allowed = append(allowed, a.Roles...)
	if defaultRole != "" && !slices.Contains(allowed, defaultRole) {
		allowed = append(allowed, defaultRole)
	}

	claims := map[string]any{
		ClaimUserID:       a.ID,
		ClaimDefaultRole:  defaultRole,
		ClaimAllowedRoles: allowed,
	}

	for _, field := range opts.CustomFields {
		claims[field] = encodeClaimValue(a.Profile[field])
	}

	return claims
}

// encodeClaimValue flattens a profile value into a claim: strings pass
// through, slices become flat string lists, everything else is rendered
// as its text representation, and absent values stay nil.
func encodeClaimValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
				continue
			}
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return fmt.Sprintf("%v", val)
	}
}
