package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/quokkalabs/passage/internal/domain"
	"github.com/quokkalabs/passage/internal/store"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, email, new_email, password_hash, active, anonymous,
	default_role, roles, profile, ticket, ticket_expires_at,
	mfa_enabled, otp_secret, sms_mfa_enabled, sms_otp_secret, phone_number,
	created_at, updated_at`

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	profile, err := marshalProfile(a.Profile)
	if err != nil {
		return err
	}

	var ticketExp sql.NullTime
	if a.TicketExpiresAt != nil {
		ticketExp = sql.NullTime{Time: a.TicketExpiresAt.UTC(), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		mapOptionalString(a.NewEmail),
		mapOptionalString(a.PasswordHash),
		a.Active,
		a.Anonymous,
		a.DefaultRole,
		strings.Join(a.Roles, " "),
		profile,
		mapOptionalString(a.Ticket),
		ticketExp,
		a.MFAEnabled,
		mapOptionalString(a.OTPSecret),
		a.SMSMFAEnabled,
		mapOptionalString(a.SMSOTPSecret),
		mapOptionalString(a.PhoneNumber),
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	return mapConflict(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ? COLLATE NOCASE`, email)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByLiveTicket(ctx context.Context, ticket string, now time.Time) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE ticket = ? AND ticket_expires_at > ?`, ticket, now.UTC())
	return scanAccount(row)
}

func (r *accountsRepo) EmailInUse(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM accounts WHERE email = ? COLLATE NOCASE`, email).Scan(&n)
	return n > 0, err
}

func (r *accountsRepo) SetTicket(ctx context.Context, accountID, ticket string, expiresAt, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET ticket = ?, ticket_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		ticket, expiresAt.UTC(), now.UTC(), accountID)
	return requireRow(res, err)
}

func (r *accountsRepo) StageEmailChange(ctx context.Context, accountID, newEmail, ticket string, expiresAt, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET new_email = ?, ticket = ?, ticket_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		newEmail, ticket, expiresAt.UTC(), now.UTC(), accountID)
	return requireRow(res, err)
}

func (r *accountsRepo) ActivateByTicket(ctx context.Context, ticket, nextTicket string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET active = 1, ticket = ?, ticket_expires_at = ?, updated_at = ?
		WHERE ticket = ? AND ticket_expires_at > ?`,
		nextTicket, now.UTC(), now.UTC(), ticket, now.UTC())
	return requireRow(res, err)
}

func (r *accountsRepo) SetPasswordHashByTicket(ctx context.Context, ticket, nextTicket, passwordHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET password_hash = ?, ticket = ?, ticket_expires_at = ?, updated_at = ?
		WHERE ticket = ? AND ticket_expires_at > ?`,
		passwordHash, nextTicket, now.UTC(), now.UTC(), ticket, now.UTC())
	return requireRow(res, err)
}

func (r *accountsRepo) ConfirmEmailChangeByTicket(ctx context.Context, ticket, nextTicket string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET email = new_email, new_email = NULL,
		    ticket = ?, ticket_expires_at = ?, updated_at = ?
		WHERE ticket = ? AND ticket_expires_at > ? AND new_email IS NOT NULL`,
		nextTicket, now.UTC(), now.UTC(), ticket, now.UTC())
	if err != nil {
		return mapConflict(err)
	}
	return requireRow(res, err)
}

func (r *accountsRepo) RotateTicketByTicket(ctx context.Context, ticket, nextTicket string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET ticket = ?, ticket_expires_at = ?, updated_at = ?
		WHERE ticket = ? AND ticket_expires_at > ?`,
		nextTicket, now.UTC(), now.UTC(), ticket, now.UTC())
	return requireRow(res, err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, accountID, passwordHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, now.UTC(), accountID)
	return requireRow(res, err)
}

func (r *accountsRepo) SetOTPSecret(ctx context.Context, accountID, secret string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET otp_secret = ?, updated_at = ? WHERE id = ?`,
		secret, now.UTC(), accountID)
	return requireRow(res, err)
}

func (r *accountsRepo) EnableMFA(ctx context.Context, accountID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET mfa_enabled = 1, updated_at = ? WHERE id = ?`,
		now.UTC(), accountID)
	return requireRow(res, err)
}

func (r *accountsRepo) DisableMFA(ctx context.Context, accountID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET mfa_enabled = 0, otp_secret = NULL, updated_at = ? WHERE id = ?`,
		now.UTC(), accountID)
	return requireRow(res, err)
}

func (r *accountsRepo) SetSMSOTPSecret(ctx context.Context, accountID, secret string, phone *string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET sms_otp_secret = ?, phone_number = COALESCE(?, phone_number), updated_at = ?
		WHERE id = ?`,
		secret, mapOptionalString(phone), now.UTC(), accountID)
	return requireRow(res, err)
}

func (r *accountsRepo) EnableSMSMFA(ctx context.Context, accountID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET sms_mfa_enabled = 1, updated_at = ? WHERE id = ?`,
		now.UTC(), accountID)
	return requireRow(res, err)
}

func (r *accountsRepo) DisableSMSMFA(ctx context.Context, accountID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET sms_mfa_enabled = 0, sms_otp_secret = NULL, updated_at = ? WHERE id = ?`,
		now.UTC(), accountID)
	return requireRow(res, err)
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
	return err
}

// requireRow converts a zero-row update into store.ErrNotFound. This is
// what makes the ByTicket family single-use: a ticket that expired or was
// already rotated simply matches nothing.
func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a          domain.Account
		newEmail   sql.NullString
		pwHash     sql.NullString
		roles      string
		profile    string
		ticket     sql.NullString
		ticketExp  sql.NullTime
		otpSecret  sql.NullString
		smsSecret  sql.NullString
		phone      sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.Email, &newEmail, &pwHash, &a.Active, &a.Anonymous,
		&a.DefaultRole, &roles, &profile, &ticket, &ticketExp,
		&a.MFAEnabled, &otpSecret, &a.SMSMFAEnabled, &smsSecret, &phone,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.NewEmail = mapNullStringPtr(newEmail)
	a.PasswordHash = mapNullStringPtr(pwHash)
	a.Roles = strings.Fields(roles)
	a.Ticket = mapNullStringPtr(ticket)
	if ticketExp.Valid {
		t := ticketExp.Time
		a.TicketExpiresAt = &t
	}
	a.OTPSecret = mapNullStringPtr(otpSecret)
	a.SMSOTPSecret = mapNullStringPtr(smsSecret)
	a.PhoneNumber = mapNullStringPtr(phone)

	if profile != "" {
		if err := json.Unmarshal([]byte(profile), &a.Profile); err != nil {
			return domain.Account{}, err
		}
	}

	return a, nil
}

func marshalProfile(p map[string]any) (string, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
