package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/quokkalabs/passage/internal/store"
	"github.com/quokkalabs/passage/pkg/httpx"
	"github.com/quokkalabs/passage/pkg/jwtx"
	"github.com/quokkalabs/passage/pkg/passagesdk"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
// Symmetric deployments have nothing to publish and answer 404.
func JWKSHandler(codec *jwtx.Codec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := codec.JWKS()
		if err != nil {
			if errors.Is(err, jwtx.ErrNotImplemented) {
				passagesdk.ErrFeatureDisabled.WriteError(w)
				return
			}
			passagesdk.ErrServerError.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, passagesdk.JWKSResponse(jwks))
	}
}

// LivezHandler is the liveness probe: 200 whenever the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, passagesdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler is the readiness probe: checks the database and the token
// signer and degrades to 503 when either is unhealthy.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	codec *jwtx.Codec,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &passagesdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// A codec that can't sign a probe token can't mint sessions either.
		if _, _, err := codec.Sign("readyz", nil); err != nil {
			checks.Signer = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, passagesdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
