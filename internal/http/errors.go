package http

import (
	"errors"
	"net/http"

	"github.com/quokkalabs/passage/internal/service"
	"github.com/quokkalabs/passage/pkg/passagesdk"
	"github.com/quokkalabs/passage/pkg/slogx"
)

// writeServiceError translates service-layer sentinels into wire errors.
// Anything unmapped is logged and surfaced as a bare 500 so internals
// never leak to clients.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		passagesdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrAccountInactive):
		passagesdk.ErrAccountInactive.WriteError(w)
	case errors.Is(err, service.ErrInvalidTicket):
		passagesdk.ErrInvalidTicket.WriteError(w)
	case errors.Is(err, service.ErrInvalidRefresh):
		passagesdk.ErrInvalidRefreshToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidCode):
		passagesdk.ErrInvalidCode.WriteError(w)
	case errors.Is(err, service.ErrMFANotEnabled):
		passagesdk.ErrMFANotEnabled.WriteError(w)
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		passagesdk.ErrMFAAlreadyEnabled.WriteError(w)
	case errors.Is(err, service.ErrMFASecretNotSet):
		passagesdk.NewAPIError(http.StatusBadRequest, passagesdk.ErrorCodeInvalidRequest,
			"no pending secret, generate one first").WriteError(w)
	case errors.Is(err, service.ErrFeatureDisabled):
		passagesdk.ErrFeatureDisabled.WriteError(w)
	case errors.Is(err, service.ErrEmailConflict):
		passagesdk.ErrEmailConflict.WriteError(w)
	case errors.Is(err, service.ErrEmailDelivery):
		passagesdk.ErrEmailDelivery.WriteError(w)
	case errors.Is(err, service.ErrSMSDelivery):
		passagesdk.NewAPIError(http.StatusBadGateway, "sms_delivery_failed",
			"the verification code could not be sent").WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error",
			"path", r.URL.Path, "err", err)
		passagesdk.ErrServerError.WriteError(w)
	}
}
