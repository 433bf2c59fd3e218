package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/quokkalabs/passage/internal/service"
	"github.com/quokkalabs/passage/internal/store"
	"github.com/quokkalabs/passage/pkg/httpx"
	"github.com/quokkalabs/passage/pkg/jwtx"
	"github.com/quokkalabs/passage/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cookies      CookieConfig

	store          store.Store
	AccountService *service.AccountService
	SessionService *service.SessionService
	TicketService  *service.TicketService
	RefreshService *service.RefreshService
	MFAService     *service.MFAService
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	st store.Store,
	cookies CookieConfig,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		cookies:      cookies,
		store:        st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerAccounts()
	r.registerMFA()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	h := &SessionHandler{
		Accounts: r.AccountService,
		Sessions: r.SessionService,
		Refresh:  r.RefreshService,
		MFA:      r.MFAService,
		Cookies:  r.cookies,
	}

	// Authentication attempts get the strict profile, refresh sits in the
	// middle: legitimate clients hit it on every token expiry.
	r.Mux.Handle("POST /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/session/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/session/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/session/mfa",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyMFA),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAccounts() {
	h := &AccountHandler{
		Accounts: r.AccountService,
		Tickets:  r.TicketService,
	}

	r.Mux.Handle("POST /v1/accounts",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/activate",
		httpx.Chain(http.HandlerFunc(h.HandleActivate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/activate/resend",
		httpx.Chain(http.HandlerFunc(h.HandleActivationResend),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/password/forgot",
		httpx.Chain(http.HandlerFunc(h.HandlePasswordForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/password/reset",
		httpx.Chain(http.HandlerFunc(h.HandlePasswordReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/email/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleEmailChangeConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Authenticated self-service operations
	r.Mux.Handle("POST /v1/accounts/password",
		httpx.Chain(http.HandlerFunc(h.HandlePasswordChange),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/email",
		httpx.Chain(http.HandlerFunc(h.HandleEmailChangeRequest),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/accounts",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByAccount(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{
		MFA: r.MFAService,
	}

	routes := map[string]http.HandlerFunc{
		"POST /v1/mfa/totp/generate": h.HandleGenerateTOTP,
		"POST /v1/mfa/totp/enable":   h.HandleEnableTOTP,
		"POST /v1/mfa/totp/disable":  h.HandleDisableTOTP,
		"POST /v1/mfa/sms/generate":  h.HandleGenerateSMS,
		"POST /v1/mfa/sms/enable":    h.HandleEnableSMS,
		"POST /v1/mfa/sms/disable":   h.HandleDisableSMS,
	}
	for pattern, handler := range routes {
		r.Mux.Handle(pattern,
			httpx.Chain(handler,
				httpx.AuthnMiddleware(r.codec),
				httpx.RateLimitByAccount(httpx.StrictLimit),
			),
		)
	}
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.codec),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.codec),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
