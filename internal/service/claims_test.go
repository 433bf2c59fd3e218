package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/passage/internal/domain"
)

func TestProjectClaims(t *testing.T) {
	t.Parallel()

	opts := ClaimsOptions{DefaultRole: "user", AnonymousRole: "anonymous"}

	t.Run("deterministic", func(t *testing.T) {
		a := &domain.Account{ID: "acct1", DefaultRole: "editor", Roles: []string{"editor", "viewer"}}
		first := ProjectClaims(a, opts)
		second := ProjectClaims(a, opts)
		require.Equal(t, first, second)
	})

	t.Run("default role always in allowed roles", func(t *testing.T) {
		a := &domain.Account{ID: "acct1", DefaultRole: "admin", Roles: []string{"viewer"}}
		claims := ProjectClaims(a, opts)
		require.Equal(t, "admin", claims[ClaimDefaultRole])
		require.Equal(t, []string{"viewer", "admin"}, claims[ClaimAllowedRoles])
	})

	t.Run("default role not duplicated", func(t *testing.T) {
		a := &domain.Account{ID: "acct1", DefaultRole: "viewer", Roles: []string{"viewer", "editor"}}
		claims := ProjectClaims(a, opts)
		require.Equal(t, []string{"viewer", "editor"}, claims[ClaimAllowedRoles])
	})

	t.Run("anonymous account gets anonymous role", func(t *testing.T) {
		a := &domain.Account{ID: "acct1", Anonymous: true, DefaultRole: "editor"}
		claims := ProjectClaims(a, opts)
		require.Equal(t, "anonymous", claims[ClaimDefaultRole])
	})

	t.Run("global fallback when account has no role", func(t *testing.T) {
		a := &domain.Account{ID: "acct1"}
		claims := ProjectClaims(a, opts)
		require.Equal(t, "user", claims[ClaimDefaultRole])
		require.Equal(t, []string{"user"}, claims[ClaimAllowedRoles])
	})

	t.Run("user id claim present", func(t *testing.T) {
		a := &domain.Account{ID: "acct42"}
		claims := ProjectClaims(a, opts)
		require.Equal(t, "acct42", claims[ClaimUserID])
	})
}

func TestProjectClaimsCustomFields(t *testing.T) {
	t.Parallel()

	opts := ClaimsOptions{
		DefaultRole:  "user",
		CustomFields: []string{"display_name", "teams", "login_count", "missing"},
	}

	a := &domain.Account{
		ID: "acct1",
		Profile: map[string]any{
			"display_name": "Alice",
			"teams":        []any{"core", "infra", 7},
			"login_count":  float64(42),
		},
	}

	claims := ProjectClaims(a, opts)

	require.Equal(t, "Alice", claims["display_name"])
	require.Equal(t, []string{"core", "infra", "7"}, claims["teams"])
	require.Equal(t, "42", claims["login_count"])
	require.Nil(t, claims["missing"])
}
