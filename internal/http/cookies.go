package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/quokkalabs/passage/internal/domain"
)

const (
	// CookieRefreshToken holds the rotating refresh token. HTTP-only so
	// scripts never see it.
	CookieRefreshToken = "passage_refresh"

	// CookieClaims holds the base64url-encoded claims projection so
	// frontends can read roles and profile fields without a round trip.
	CookieClaims = "passage_claims"
)

// CookieConfig controls how session cookies are issued.
type CookieConfig struct {
	Domain string
	Path   string
	Secure bool

	// RefreshTTL bounds the refresh cookie's lifetime. Must match the
	// refresh token TTL or the cookie outlives (or undercuts) the token.
	RefreshTTL time.Duration
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// setSessionCookies writes the refresh token and claims cookies. The two
// travel together: a client holding one without the other is in a broken
// state, so they are always set and cleared as a pair.
func setSessionCookies(w http.ResponseWriter, cfg CookieConfig, session domain.Session) {
	claimsJSON, err := json.Marshal(session.Claims)
	if err != nil {
		claimsJSON = []byte("{}")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieRefreshToken,
		Value:    session.RefreshToken,
		Domain:   cfg.Domain,
		Path:     cfg.path(),
		MaxAge:   int(cfg.RefreshTTL.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CookieClaims,
		Value:    base64.RawURLEncoding.EncodeToString(claimsJSON),
		Domain:   cfg.Domain,
		Path:     cfg.path(),
		MaxAge:   int(cfg.RefreshTTL.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookies expires both session cookies.
func clearSessionCookies(w http.ResponseWriter, cfg CookieConfig) {
	for _, name := range []string{CookieRefreshToken, CookieClaims} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Domain:   cfg.Domain,
			Path:     cfg.path(),
			MaxAge:   -1,
			Secure:   cfg.Secure,
			HttpOnly: name == CookieRefreshToken,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// refreshTokenFromRequest pulls the refresh token from the body value if
// present, falling back to the refresh cookie.
func refreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if c, err := r.Cookie(CookieRefreshToken); err == nil {
		return c.Value
	}
	return ""
}
