package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/quokkalabs/passage/internal/domain"
	"github.com/quokkalabs/passage/internal/notify"
	"github.com/quokkalabs/passage/internal/store"
	"github.com/quokkalabs/passage/pkg/slogx"
)

// smsPeriod stretches the TOTP step for SMS codes: the code in the
// message must survive delivery latency plus typing time. With a skew of
// one step either side, a dispatched code is good for up to ten minutes.
const smsPeriod = 300

// MFAEnrollment is returned when a new TOTP secret is generated: the raw
// secret for manual entry, the otpauth URL, and a base64-encoded PNG of
// the QR code so clients can show it without rendering the URL themselves.
type MFAEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	Image  string `json:"image"`
}

// MFAService enrolls and verifies both code families (TOTP, SMS) and owns
// the ticket-gated login challenge.
type MFAService struct {
	Store    store.Store
	SMS      notify.SMSSender
	Tickets  *TicketService
	Sessions *SessionService

	Issuer        string // issuer name embedded in otpauth URLs
	TicketTTL     time.Duration
	MFAEnabled    bool // TOTP family feature gate
	SMSMFAEnabled bool // SMS family feature gate
}

// GenerateTOTP creates a new TOTP secret and persists it on the account
// without enabling MFA. Login is not gated until Enable verifies a code.
func (s *MFAService) GenerateTOTP(ctx context.Context, accountID string) (MFAEnrollment, error) {
	if !s.MFAEnabled {
		return MFAEnrollment{}, ErrFeatureDisabled
	}

	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return MFAEnrollment{}, err
	}
	if account.MFAEnabled {
		return MFAEnrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: account.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return MFAEnrollment{}, fmt.Errorf("generate totp key: %w", err)
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return MFAEnrollment{}, fmt.Errorf("render totp qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return MFAEnrollment{}, fmt.Errorf("encode totp qr: %w", err)
	}

	if err := s.Store.Accounts().SetOTPSecret(ctx, accountID, key.Secret(), time.Now()); err != nil {
		return MFAEnrollment{}, fmt.Errorf("store totp secret: %w", err)
	}

	return MFAEnrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		Image:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// EnableTOTP verifies one code against the stored secret and flips the
// mfa_enabled flag.
func (s *MFAService) EnableTOTP(ctx context.Context, accountID, code string) error {
	if !s.MFAEnabled {
		return ErrFeatureDisabled
	}

	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.MFAEnabled {
		return ErrMFAAlreadyEnabled
	}
	if account.OTPSecret == nil || *account.OTPSecret == "" {
		return ErrMFASecretNotSet
	}

	if !totp.Validate(code, *account.OTPSecret) {
		return ErrInvalidCode
	}

	return s.Store.Accounts().EnableMFA(ctx, accountID, time.Now())
}

// DisableTOTP verifies one code, then clears the secret and the flag.
func (s *MFAService) DisableTOTP(ctx context.Context, accountID, code string) error {
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.MFAEnabled || account.OTPSecret == nil {
		return ErrMFANotEnabled
	}

	if !totp.Validate(code, *account.OTPSecret) {
		return ErrInvalidCode
	}

	return s.Store.Accounts().DisableMFA(ctx, accountID, time.Now())
}

// GenerateSMS creates a new SMS secret, stores it with the phone number,
// and dispatches the first code through the SMS gateway.
func (s *MFAService) GenerateSMS(ctx context.Context, accountID, phone string) error {
	if !s.SMSMFAEnabled {
		return ErrFeatureDisabled
	}

	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.SMSMFAEnabled {
		return ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: account.Email,
		Period:      smsPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return fmt.Errorf("generate sms secret: %w", err)
	}

	var phonePtr *string
	if phone != "" {
		phonePtr = &phone
	}
	if err := s.Store.Accounts().SetSMSOTPSecret(ctx, accountID, key.Secret(), phonePtr, time.Now()); err != nil {
		return fmt.Errorf("store sms secret: %w", err)
	}

	target := phone
	if target == "" && account.PhoneNumber != nil {
		target = *account.PhoneNumber
	}
	return s.dispatchSMSCode(ctx, key.Secret(), target)
}

// EnableSMS verifies one code and flips sms_mfa_enabled.
func (s *MFAService) EnableSMS(ctx context.Context, accountID, code string) error {
	if !s.SMSMFAEnabled {
		return ErrFeatureDisabled
	}

	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.SMSMFAEnabled {
		return ErrMFAAlreadyEnabled
	}
	if account.SMSOTPSecret == nil || *account.SMSOTPSecret == "" {
		return ErrMFASecretNotSet
	}

	ok, err := validateSMSCode(code, *account.SMSOTPSecret)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}

	return s.Store.Accounts().EnableSMSMFA(ctx, accountID, time.Now())
}

// DisableSMS verifies one code, then clears the SMS secret and flag.
func (s *MFAService) DisableSMS(ctx context.Context, accountID, code string) error {
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.SMSMFAEnabled || account.SMSOTPSecret == nil {
		return ErrMFANotEnabled
	}

	ok, err := validateSMSCode(code, *account.SMSOTPSecret)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}

	return s.Store.Accounts().DisableSMSMFA(ctx, accountID, time.Now())
}

// Challenge short-circuits login for an MFA-gated account: a short-lived
// ticket is issued and no bearer token leaves the building. For SMS
// accounts a fresh code is dispatched alongside.
func (s *MFAService) Challenge(ctx context.Context, account *domain.Account) (domain.MFAChallenge, error) {
	ticket, err := s.Tickets.Issue(ctx, account.ID, s.TicketTTL)
	if err != nil {
		return domain.MFAChallenge{}, err
	}

	var methods []string
	if account.MFAEnabled {
		methods = append(methods, "totp")
	}
	if account.SMSMFAEnabled {
		methods = append(methods, "sms")

		if account.SMSOTPSecret != nil && account.PhoneNumber != nil {
			if err := s.dispatchSMSCode(ctx, *account.SMSOTPSecret, *account.PhoneNumber); err != nil {
				// The TOTP path (or a retry) can still redeem the ticket.
				slogx.FromContext(ctx).Error("sms challenge dispatch failed", "err", err)
			}
		}
	}

	return domain.MFAChallenge{MFA: true, Ticket: ticket, Methods: methods}, nil
}

// VerifyChallenge redeems a login challenge: look up the account by live
// ticket, check the code against whichever family is enabled, rotate the
// ticket, and hand out a full session. On any failure the ticket is left
// untouched so the holder can retry until it naturally expires.
func (s *MFAService) VerifyChallenge(ctx context.Context, ticket, code string) (domain.Session, error) {
	now := time.Now()

	account, err := s.Store.Accounts().GetAccountByLiveTicket(ctx, ticket, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrInvalidTicket
		}
		return domain.Session{}, err
	}
	if !account.Active {
		return domain.Session{}, ErrAccountInactive
	}

	ok, err := s.checkCode(&account, code)
	if err != nil {
		return domain.Session{}, err
	}
	if !ok {
		return domain.Session{}, ErrInvalidCode
	}

	// Code accepted: kill the ticket before any token is minted.
	if err := s.Store.Accounts().RotateTicketByTicket(ctx, ticket, uuid.NewString(), now); err != nil {
		return domain.Session{}, mapTicketErr(err)
	}

	return s.Sessions.Create(ctx, &account)
}

func (s *MFAService) checkCode(account *domain.Account, code string) (bool, error) {
	if account.MFAEnabled && account.OTPSecret != nil {
		return totp.Validate(code, *account.OTPSecret), nil
	}
	if account.SMSMFAEnabled && account.SMSOTPSecret != nil {
		return validateSMSCode(code, *account.SMSOTPSecret)
	}
	return false, ErrMFANotEnabled
}

func (s *MFAService) dispatchSMSCode(ctx context.Context, secret, phone string) error {
	if phone == "" {
		return ErrSMSDelivery
	}

	code, err := totp.GenerateCodeCustom(secret, time.Now(), totp.ValidateOpts{
		Period:    smsPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return fmt.Errorf("generate sms code: %w", err)
	}

	if err := s.SMS.Send(ctx, phone, "Your verification code is "+code); err != nil {
		slogx.FromContext(ctx).Error("sms send failed", "err", err)
		return ErrSMSDelivery
	}
	return nil
}

func validateSMSCode(code, secret string) (bool, error) {
	return totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    smsPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}
