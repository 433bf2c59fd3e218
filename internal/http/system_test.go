package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/passage/pkg/httpx"
	"github.com/quokkalabs/passage/pkg/jwtx"
	"github.com/quokkalabs/passage/pkg/passagesdk"
)

func TestJWKSEndpoint(t *testing.T) {
	t.Run("asymmetric deployments publish their keys", func(t *testing.T) {
		e := newTestEnvWithCodec(t, newTestCodec(t, jwtx.AlgEdDSA))

		rec := e.request(t, http.MethodGet, "/.well-known/jwks.json", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var jwks passagesdk.JWKSResponse
		decode(t, rec, &jwks)
		require.Len(t, jwks.Keys, 1)
		require.Equal(t, "test-1", jwks.Keys[0].Kid)
		require.Equal(t, "OKP", jwks.Keys[0].Kty)
	})

	t.Run("symmetric deployments have nothing to publish", func(t *testing.T) {
		e := newTestEnv(t)

		rec := e.request(t, http.MethodGet, "/.well-known/jwks.json", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(t, http.MethodGet, "/livez", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health passagesdk.HealthResponse
	decode(t, rec, &health)
	require.Equal(t, "ok", health.Status)

	rec = e.request(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	decode(t, rec, &health)
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)
}

func TestLoginRateLimit(t *testing.T) {
	e := newTestEnv(t)

	// The strict profile caps credential attempts per IP; everything past
	// the cap answers 429 without touching the account store.
	var lastCode int
	for i := 0; i < httpx.StrictLimit.Burst+1; i++ {
		rec := e.request(t, http.MethodPost, "/v1/session", passagesdk.LoginRequest{
			Email:    "flood@example.com",
			Password: "wrong",
		})
		lastCode = rec.Code
	}
	require.Equal(t, http.StatusTooManyRequests, lastCode)
}
