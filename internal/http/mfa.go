package http

import (
	"context"
	"net/http"

	"github.com/quokkalabs/passage/internal/service"
	"github.com/quokkalabs/passage/pkg/httpx"
	"github.com/quokkalabs/passage/pkg/passagesdk"
)

// MFAHandler covers enrollment and removal of the MFA methods. All routes
// are authenticated; challenge redemption at login time lives on the
// session handler instead.
type MFAHandler struct {
	MFA *service.MFAService
}

// HandleGenerateTOTP handles POST /v1/mfa/totp/generate.
//
// Provisions a secret and returns it with the otpauth URL. The method is
// not active until the secret is confirmed via the enable endpoint.
func (h *MFAHandler) HandleGenerateTOTP(w http.ResponseWriter, r *http.Request) {
	accountID := httpx.AccountIDFromCtx(r.Context())
	if accountID == "" {
		passagesdk.ErrInvalidToken.WriteError(w)
		return
	}

	enrollment, err := h.MFA.GenerateTOTP(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, passagesdk.TOTPEnrollResponse{
		Secret: enrollment.Secret,
		URL:    enrollment.URL,
		Image:  enrollment.Image,
	})
}

// HandleEnableTOTP handles POST /v1/mfa/totp/enable.
func (h *MFAHandler) HandleEnableTOTP(w http.ResponseWriter, r *http.Request) {
	h.codeEndpoint(w, r, h.MFA.EnableTOTP)
}

// HandleDisableTOTP handles POST /v1/mfa/totp/disable.
func (h *MFAHandler) HandleDisableTOTP(w http.ResponseWriter, r *http.Request) {
	h.codeEndpoint(w, r, h.MFA.DisableTOTP)
}

// HandleGenerateSMS handles POST /v1/mfa/sms/generate.
//
// Stores the phone number, provisions a secret, and sends the first code.
func (h *MFAHandler) HandleGenerateSMS(w http.ResponseWriter, r *http.Request) {
	accountID := httpx.AccountIDFromCtx(r.Context())
	if accountID == "" {
		passagesdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req passagesdk.SMSEnrollRequest
	if err := httpx.ReadJSON(r, &req); err != nil || req.PhoneNumber == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.MFA.GenerateSMS(r.Context(), accountID, req.PhoneNumber); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEnableSMS handles POST /v1/mfa/sms/enable.
func (h *MFAHandler) HandleEnableSMS(w http.ResponseWriter, r *http.Request) {
	h.codeEndpoint(w, r, h.MFA.EnableSMS)
}

// HandleDisableSMS handles POST /v1/mfa/sms/disable.
func (h *MFAHandler) HandleDisableSMS(w http.ResponseWriter, r *http.Request) {
	h.codeEndpoint(w, r, h.MFA.DisableSMS)
}

// codeEndpoint is the shared shape of enable/disable: authenticated, takes
// a one-time code, answers 204.
func (h *MFAHandler) codeEndpoint(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, accountID, code string) error,
) {
	accountID := httpx.AccountIDFromCtx(r.Context())
	if accountID == "" {
		passagesdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req passagesdk.MFACodeRequest
	if err := httpx.ReadJSON(r, &req); err != nil || req.Code == "" {
		passagesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := op(r.Context(), accountID, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
