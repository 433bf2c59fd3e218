package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quokkalabs/passage/pkg/httpx"
	"github.com/quokkalabs/passage/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *jwtx.Codec {
	t.Helper()
	c, err := jwtx.NewCodec(jwtx.CodecOptions{
		Algorithm: jwtx.AlgHS256,
		Secret:    []byte("middleware-test-secret-0123456789"),
		Issuer:    "passage",
		Namespace: "https://passage.example.com/claims",
		TTL:       time.Minute,
	})
	require.NoError(t, err)
	return c
}

func TestAuthnMiddleware(t *testing.T) {
	codec := newTestCodec(t)

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httpx.AccountIDFromCtx(r.Context())
		w.Header().Set("X-Account", id)
		w.WriteHeader(http.StatusOK)
	})
	h := httpx.AuthnMiddleware(codec)(echo)

	t.Run("valid token passes and sets context", func(t *testing.T) {
		token, _, err := codec.Sign("acct_1", map[string]any{"role": "user"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "acct_1", rec.Header().Get("X-Account"))
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-bearer scheme rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
