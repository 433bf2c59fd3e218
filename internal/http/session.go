package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/quokkalabs/passage/internal/domain"
	"github.com/quokkalabs/passage/internal/service"
	"github.com/quokkalabs/passage/pkg/httpx"
	"github.com/quokkalabs/passage/pkg/passagesdk"
)

// SessionHandler covers login, refresh, logout, and MFA challenge
// redemption.
type SessionHandler struct {
	Accounts *service.AccountService
	Sessions *service.SessionService
	Refresh  *service.RefreshService
	MFA      *service.MFAService
	Cookies  CookieConfig
}

// HandleLogin handles POST /v1/session.
//
// Answers with either a full session or, for MFA-gated accounts, a
// challenge ticket the client must redeem on /v1/session/mfa. A bearer
// token is never issued before the challenge is redeemed.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.LoginRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if result.MFARequired() {
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, result.Challenge)
		return
	}

	h.writeSession(w, *result.Session, req.Cookies)
}

// HandleRefresh handles POST /v1/session/refresh.
//
// The refresh token comes from the body or the refresh cookie. The old
// token is revoked and a new one issued atomically; on failure the old
// token is already gone and the client must log in again.
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.RefreshRequest
	if err := readOptionalJSON(r, &req); err != nil {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	token := refreshTokenFromRequest(r, req.RefreshToken)
	if token == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}
	fromCookie := req.RefreshToken == ""

	next, account, err := h.Refresh.Exchange(r.Context(), token)
	if err != nil {
		if fromCookie && errors.Is(err, service.ErrInvalidRefresh) {
			clearSessionCookies(w, h.Cookies)
		}
		writeServiceError(w, r, err)
		return
	}

	session, err := h.Sessions.Assemble(&account, next.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.writeSession(w, session, req.Cookies || fromCookie)
}

// HandleLogout handles POST /v1/session/logout.
//
// Revokes the presented refresh token, or with all=true every token on
// the owning account. Idempotent for single-token logout; the cookies are
// cleared either way.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.LogoutRequest
	if err := readOptionalJSON(r, &req); err != nil {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	token := refreshTokenFromRequest(r, req.RefreshToken)
	if token == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	var err error
	if req.All {
		err = h.Refresh.RevokeAllForToken(r.Context(), token)
	} else {
		err = h.Refresh.RevokeOne(r.Context(), token)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	clearSessionCookies(w, h.Cookies)
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyMFA handles POST /v1/session/mfa.
//
// Redeems a login challenge ticket with a one-time code. A wrong code
// leaves the ticket retryable; success kills it and mints the session.
func (h *SessionHandler) HandleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.MFAVerifyRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Ticket == "" || req.Code == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	session, err := h.MFA.VerifyChallenge(r.Context(), req.Ticket, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.writeSession(w, session, req.Cookies)
}

// writeSession sends a session to the client, via cookies when asked.
// Cookie delivery strips the refresh token from the body so it only ever
// lives in the HTTP-only cookie.
func (h *SessionHandler) writeSession(w http.ResponseWriter, session domain.Session, cookies bool) {
	if cookies {
		setSessionCookies(w, h.Cookies, session)
		session.RefreshToken = ""
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, session)
}

// readOptionalJSON decodes a JSON body, treating an absent or empty body
// as the zero request. Endpoints that can run purely off cookies use this.
func readOptionalJSON(r *http.Request, dst any) error {
	err := httpx.ReadJSON(r, dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
