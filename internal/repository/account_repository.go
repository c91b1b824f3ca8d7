package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/pkg/database"
)

const (
	accountColumns = `id, email, password_hash, full_name, role, status, national_id, phone, address,
		failed_login_attempts, last_failed_login_at, blocked_until, last_login_at,
		email_verified, email_verified_at, verification_token, reset_token, reset_token_expires_at,
		created_at, created_by, updated_at`

	uniqueViolation = "23505"

	accountsNationalIDConstraint = "accounts_national_id_key"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *database.Postgres
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.Postgres) AccountRepository {
	return &accountRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Save inserts a new account
func (r *accountRepository) Save(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	rec := account.Record()
	if rec.PasswordHash == "" {
		return fmt.Errorf("account %s: %w", rec.ID, domain.ErrInvalidPasswordState)
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		rec.ID,
		rec.Email,
		rec.PasswordHash,
		rec.FullName,
		string(rec.Role),
		string(rec.Status),
		rec.NationalID,
		rec.Phone,
		rec.Address,
		rec.FailedLoginAttempts,
		rec.LastFailedLoginAt,
		rec.BlockedUntil,
		rec.LastLoginAt,
		rec.EmailVerified,
		rec.EmailVerifiedAt,
		rec.VerificationToken,
		rec.ResetToken,
		rec.ResetTokenExpiresAt,
		rec.CreatedAt,
		rec.CreatedBy,
		rec.UpdatedAt,
	)
	if err != nil {
		return mapAccountWriteError(err, rec)
	}

	return nil
}

// FindByID retrieves an account by ID
func (r *accountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// FindByEmail retrieves an account by its normalized email
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = LOWER($1)`

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// ExistsByEmail checks whether an account with the email exists
func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = LOWER($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account email: %w", err)
	}
	return exists, nil
}

// ExistsByNationalID checks whether an account with the national id exists
func (r *accountRepository) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	var exists bool
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE national_id = $1)`, nationalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account national id: %w", err)
	}
	return exists, nil
}

// Update persists the mutable fields of an account in a single statement
func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, status = $3, phone = $4, address = $5,
			failed_login_attempts = $6, last_failed_login_at = $7, blocked_until = $8, last_login_at = $9,
			email_verified = $10, email_verified_at = $11, verification_token = $12,
			reset_token = $13, reset_token_expires_at = $14, updated_at = $15
		WHERE id = $1
	`

	rec := account.Record()
	if rec.PasswordHash == "" {
		return fmt.Errorf("account %s: %w", rec.ID, domain.ErrInvalidPasswordState)
	}

	result, err := r.db.DB.ExecContext(ctx, query,
		rec.ID,
		rec.PasswordHash,
		string(rec.Status),
		rec.Phone,
		rec.Address,
		rec.FailedLoginAttempts,
		rec.LastFailedLoginAt,
		rec.BlockedUntil,
		rec.LastLoginAt,
		rec.EmailVerified,
		rec.EmailVerifiedAt,
		rec.VerificationToken,
		rec.ResetToken,
		rec.ResetTokenExpiresAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return mapAccountWriteError(err, rec)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account with id %s not found: %w", rec.ID, ErrNotFound)
	}

	return nil
}

// Delete deletes an account by ID
func (r *accountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}

	return nil
}

func mapAccountWriteError(err error, rec domain.AccountRecord) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == accountsNationalIDConstraint {
			return fmt.Errorf("account with national id already exists: %w", ErrDuplicateNationalID)
		}
		return fmt.Errorf("account with email %s already exists: %w", rec.Email, ErrDuplicateEmail)
	}
	return fmt.Errorf("failed to write account: %w", err)
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		rec                                          domain.AccountRecord
		role, status                                 string
		nationalID, phone, address, createdBy        sql.NullString
		verificationToken, resetToken                sql.NullString
		lastFailedLoginAt, blockedUntil, lastLoginAt sql.NullTime
		emailVerifiedAt, resetTokenExpiresAt         sql.NullTime
	)

	err := row.Scan(
		&rec.ID,
		&rec.Email,
		&rec.PasswordHash,
		&rec.FullName,
		&role,
		&status,
		&nationalID,
		&phone,
		&address,
		&rec.FailedLoginAttempts,
		&lastFailedLoginAt,
		&blockedUntil,
		&lastLoginAt,
		&rec.EmailVerified,
		&emailVerifiedAt,
		&verificationToken,
		&resetToken,
		&resetTokenExpiresAt,
		&rec.CreatedAt,
		&createdBy,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Role = domain.Role(role)
	rec.Status = domain.Status(status)
	rec.NationalID = nullString(nationalID)
	rec.Phone = nullString(phone)
	rec.Address = nullString(address)
	rec.CreatedBy = nullString(createdBy)
	rec.VerificationToken = nullString(verificationToken)
	rec.ResetToken = nullString(resetToken)
	rec.LastFailedLoginAt = nullTime(lastFailedLoginAt)
	rec.BlockedUntil = nullTime(blockedUntil)
	rec.LastLoginAt = nullTime(lastLoginAt)
	rec.EmailVerifiedAt = nullTime(emailVerifiedAt)
	rec.ResetTokenExpiresAt = nullTime(resetTokenExpiresAt)

	return domain.ReconstituteAccount(rec)
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
