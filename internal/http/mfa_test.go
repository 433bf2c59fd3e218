package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/passage/pkg/passagesdk"
)

func totpCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

func smsCodeFor(t *testing.T, e *testEnv, email string) string {
	t.Helper()

	account, err := e.store.Accounts().GetAccountByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, account.SMSOTPSecret)

	code, err := totp.GenerateCodeCustom(*account.SMSOTPSecret, time.Now(), totp.ValidateOpts{
		Period:    300,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestTOTPLifecycle(t *testing.T) {
	e := newTestEnv(t)
	registerActive(t, e, "alice@example.com", "password123")
	session := login(t, e, "alice@example.com", "password123")

	rec := e.request(t, http.MethodPost, "/v1/mfa/totp/generate", nil,
		withBearer(session.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)

	var enrollment passagesdk.TOTPEnrollResponse
	decode(t, rec, &enrollment)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.URL, "otpauth://")

	img, err := base64.StdEncoding.DecodeString(enrollment.Image)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(img, []byte("\x89PNG\r\n\x1a\n")))

	t.Run("enable rejects a wrong code", func(t *testing.T) {
		rec := e.request(t, http.MethodPost, "/v1/mfa/totp/enable", passagesdk.MFACodeRequest{
			Code: "000000",
		}, withBearer(session.AccessToken))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid_code", errorCode(t, rec))
	})

	rec = e.request(t, http.MethodPost, "/v1/mfa/totp/enable", passagesdk.MFACodeRequest{
		Code: totpCode(t, enrollment.Secret),
	}, withBearer(session.AccessToken))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Enabled MFA turns login into a two-step exchange
	rec = e.request(t, http.MethodPost, "/v1/session", passagesdk.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var challenge passagesdk.MFAChallengeResponse
	decode(t, rec, &challenge)
	require.True(t, challenge.MFA)
	require.NotEmpty(t, challenge.Ticket)
	require.Equal(t, []string{"totp"}, challenge.Methods)
	require.NotContains(t, rec.Body.String(), "access_token")

	t.Run("wrong code leaves the ticket retryable", func(t *testing.T) {
		rec := e.request(t, http.MethodPost, "/v1/session/mfa", passagesdk.MFAVerifyRequest{
			Ticket: challenge.Ticket,
			Code:   "000000",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid_code", errorCode(t, rec))
	})

	var mfaSession passagesdk.SessionResponse
	t.Run("correct code mints a session", func(t *testing.T) {
		rec := e.request(t, http.MethodPost, "/v1/session/mfa", passagesdk.MFAVerifyRequest{
			Ticket: challenge.Ticket,
			Code:   totpCode(t, enrollment.Secret),
		})
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &mfaSession)
		require.NotEmpty(t, mfaSession.AccessToken)
		require.True(t, mfaSession.Account.MFAEnabled)
	})

	t.Run("redeemed ticket is dead", func(t *testing.T) {
		rec := e.request(t, http.MethodPost, "/v1/session/mfa", passagesdk.MFAVerifyRequest{
			Ticket: challenge.Ticket,
			Code:   totpCode(t, enrollment.Secret),
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid_or_expired_ticket", errorCode(t, rec))
	})

	t.Run("disable turns the gate back off", func(t *testing.T) {
		rec := e.request(t, http.MethodPost, "/v1/mfa/totp/disable", passagesdk.MFACodeRequest{
			Code: totpCode(t, enrollment.Secret),
		}, withBearer(mfaSession.AccessToken))
		require.Equal(t, http.StatusNoContent, rec.Code)

		session := login(t, e, "alice@example.com", "password123")
		require.NotEmpty(t, session.AccessToken)
	})
}

func TestSMSLifecycle(t *testing.T) {
	e := newTestEnv(t)
	registerActive(t, e, "bob@example.com", "password123")
	session := login(t, e, "bob@example.com", "password123")

	rec := e.request(t, http.MethodPost, "/v1/mfa/sms/generate", passagesdk.SMSEnrollRequest{
		PhoneNumber: "+15550100",
	}, withBearer(session.AccessToken))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The first code goes out immediately
	require.NotEmpty(t, e.sms.sent)
	require.True(t, strings.HasPrefix(e.sms.sent[0], "+15550100:"))

	rec = e.request(t, http.MethodPost, "/v1/mfa/sms/enable", passagesdk.MFACodeRequest{
		Code: smsCodeFor(t, e, "bob@example.com"),
	}, withBearer(session.AccessToken))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Login now answers with an SMS challenge and dispatches a code
	rec = e.request(t, http.MethodPost, "/v1/session", passagesdk.LoginRequest{
		Email:    "bob@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var challenge passagesdk.MFAChallengeResponse
	decode(t, rec, &challenge)
	require.True(t, challenge.MFA)
	require.Equal(t, []string{"sms"}, challenge.Methods)

	rec = e.request(t, http.MethodPost, "/v1/session/mfa", passagesdk.MFAVerifyRequest{
		Ticket: challenge.Ticket,
		Code:   smsCodeFor(t, e, "bob@example.com"),
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMFARequiresAuth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(t, http.MethodPost, "/v1/mfa/totp/generate", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.request(t, http.MethodPost, "/v1/mfa/totp/generate", nil,
		withBearer("not-a-token"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
