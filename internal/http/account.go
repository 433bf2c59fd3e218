package http

import (
	"net/http"
	"strings"

	"github.com/quokkalabs/passage/internal/service"
	"github.com/quokkalabs/passage/pkg/httpx"
	"github.com/quokkalabs/passage/pkg/passagesdk"
)

// AccountHandler covers registration, activation, the recovery flows, and
// the authenticated self-service operations.
type AccountHandler struct {
	Accounts *service.AccountService
	Tickets  *service.TicketService
}

// HandleRegister handles POST /v1/accounts.
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.RegisterRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if !validEmail(req.Email) || req.Password == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	account, err := h.Accounts.Register(r.Context(), req.Email, req.Password, req.Profile)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, passagesdk.RegisterResponse{
		ID:     account.ID,
		Email:  account.Email,
		Active: account.Active,
	})
}

// HandleActivate handles POST /v1/accounts/activate.
func (h *AccountHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.ActivateRequest
	if err := httpx.ReadJSON(r, &req); err != nil || req.Ticket == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Tickets.Activate(r.Context(), req.Ticket); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleActivationResend handles POST /v1/accounts/activate/resend.
//
// Always answers 204: whether the address maps to an account is not
// observable from this endpoint.
func (h *AccountHandler) HandleActivationResend(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.EmailRequest
	if err := httpx.ReadJSON(r, &req); err != nil || !validEmail(req.Email) {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Tickets.RequestActivation(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePasswordForgot handles POST /v1/accounts/password/forgot.
//
// Same enumeration guard as the activation resend: always 204 unless the
// feature is off entirely.
func (h *AccountHandler) HandlePasswordForgot(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.EmailRequest
	if err := httpx.ReadJSON(r, &req); err != nil || !validEmail(req.Email) {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Tickets.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePasswordReset handles POST /v1/accounts/password/reset.
func (h *AccountHandler) HandlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.ResetPasswordRequest
	if err := httpx.ReadJSON(r, &req); err != nil || req.Ticket == "" || req.Password == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Tickets.ResetPassword(r.Context(), req.Ticket, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePasswordChange handles POST /v1/accounts/password (authenticated).
func (h *AccountHandler) HandlePasswordChange(w http.ResponseWriter, r *http.Request) {
	accountID := httpx.AccountIDFromCtx(r.Context())
	if accountID == "" {
		passagesdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req passagesdk.ChangePasswordRequest
	if err := httpx.ReadJSON(r, &req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Accounts.ChangePassword(r.Context(), accountID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEmailChangeRequest handles POST /v1/accounts/email (authenticated).
func (h *AccountHandler) HandleEmailChangeRequest(w http.ResponseWriter, r *http.Request) {
	accountID := httpx.AccountIDFromCtx(r.Context())
	if accountID == "" {
		passagesdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req passagesdk.EmailChangeRequest
	if err := httpx.ReadJSON(r, &req); err != nil || !validEmail(req.NewEmail) {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Tickets.RequestEmailChange(r.Context(), accountID, req.NewEmail); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEmailChangeConfirm handles POST /v1/accounts/email/confirm.
//
// Unauthenticated: the ticket arrived at the new address and is the proof.
func (h *AccountHandler) HandleEmailChangeConfirm(w http.ResponseWriter, r *http.Request) {
	var req passagesdk.ConfirmEmailChangeRequest
	if err := httpx.ReadJSON(r, &req); err != nil || req.Ticket == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Tickets.ConfirmEmailChange(r.Context(), req.Ticket); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /v1/accounts (authenticated).
func (h *AccountHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	accountID := httpx.AccountIDFromCtx(r.Context())
	if accountID == "" {
		passagesdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.Accounts.Delete(r.Context(), accountID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validEmail is a cheap shape check, not RFC 5322 validation. The real
// proof of a working address is the delivered ticket.
func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}
