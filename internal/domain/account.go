package domain

import (
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
)

// Role is the flat authorization tag of an account
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
)

// Status is the lifecycle state of an account
type Status string

const (
	StatusPendingVerification Status = "pending_verification"
	StatusActive              Status = "active"
	StatusInactive            Status = "inactive"
	StatusBlocked             Status = "blocked"
)

const (
	// MaxLoginAttempts is the number of consecutive failures that blocks an account
	MaxLoginAttempts = 5

	// LockoutDuration is how long an account stays blocked after MaxLoginAttempts
	LockoutDuration = 30 * time.Minute

	// ResetTokenTTL is the lifetime of a password reset token
	ResetTokenTTL = 10 * time.Minute
)

// ResetToken is a single-use password reset credential. Token and expiry exist together.
type ResetToken struct {
	Token     string
	ExpiresAt time.Time
}

// Account is the user aggregate: credentials, profile and security state
type Account struct {
	ID       string
	Email    Email
	Password Password
	FullName string
	Role     Role
	Status   Status

	NationalID *string
	Phone      *string
	Address    *string

	FailedLoginAttempts int
	LastFailedLoginAt   *time.Time
	BlockedUntil        *time.Time
	LastLoginAt         *time.Time

	EmailVerified     bool
	EmailVerifiedAt   *time.Time
	VerificationToken *string

	Reset *ResetToken

	CreatedAt time.Time
	CreatedBy *string
	UpdatedAt time.Time
}

func (a *Account) touch(now time.Time) {
	a.UpdatedAt = now
}

// IncrementLoginAttempts records a failed login. It reports whether this failure
// moved the account into the blocked state.
func (a *Account) IncrementLoginAttempts(now time.Time) bool {
	a.FailedLoginAttempts++
	a.LastFailedLoginAt = ptr(now)
	a.touch(now)

	if a.FailedLoginAttempts >= MaxLoginAttempts && a.Status != StatusBlocked {
		a.BlockAccount(LockoutDuration, now)
		return true
	}
	return false
}

// BlockAccount sets the blocked status with an expiry of now+d
func (a *Account) BlockAccount(d time.Duration, now time.Time) {
	a.Status = StatusBlocked
	a.BlockedUntil = ptr(now.Add(d))
	a.touch(now)
}

// EvaluateLockout reports whether the account is blocked at now. An expired lockout is
// reverted to active with counters cleared, and changed is true so the caller can persist it.
func (a *Account) EvaluateLockout(now time.Time) (blocked, changed bool) {
	if a.Status != StatusBlocked || a.BlockedUntil == nil {
		return false, false
	}

	if now.After(*a.BlockedUntil) {
		a.Status = StatusActive
		a.BlockedUntil = nil
		a.resetLoginAttempts()
		a.touch(now)
		return false, true
	}

	return true, false
}

// IsBlocked is EvaluateLockout without the change flag
func (a *Account) IsBlocked(now time.Time) bool {
	blocked, _ := a.EvaluateLockout(now)
	return blocked
}

func (a *Account) resetLoginAttempts() {
	a.FailedLoginAttempts = 0
	a.LastFailedLoginAt = nil
}

// UpdateLastLogin records a successful login and clears the failure counter
func (a *Account) UpdateLastLogin(now time.Time) {
	a.LastLoginAt = ptr(now)
	a.resetLoginAttempts()
	a.touch(now)
}

// VerifyEmail marks the email verified and consumes the verification token.
// A pending account becomes active; a blocked account stays blocked.
func (a *Account) VerifyEmail(now time.Time) {
	a.EmailVerified = true
	a.EmailVerifiedAt = ptr(now)
	a.VerificationToken = nil
	if a.Status == StatusPendingVerification {
		a.Status = StatusActive
	}
	a.touch(now)
}

// GenerateVerificationToken stores and returns a fresh verification token
func (a *Account) GenerateVerificationToken(now time.Time) string {
	token := uuid.NewString()
	a.VerificationToken = &token
	a.touch(now)
	return token
}

// IsVerificationTokenValid reports whether candidate is the outstanding verification token
func (a *Account) IsVerificationTokenValid(candidate string) bool {
	if a.VerificationToken == nil || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*a.VerificationToken), []byte(candidate)) == 1
}

// GenerateResetToken stores and returns a fresh reset token valid for ResetTokenTTL
func (a *Account) GenerateResetToken(now time.Time) string {
	a.Reset = &ResetToken{
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(ResetTokenTTL),
	}
	a.touch(now)
	return a.Reset.Token
}

// IsResetTokenValid reports whether candidate matches the reset token and it has not expired
func (a *Account) IsResetTokenValid(candidate string, now time.Time) bool {
	if a.Reset == nil || candidate == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(a.Reset.Token), []byte(candidate)) != 1 {
		return false
	}
	return now.Before(a.Reset.ExpiresAt)
}

// ClearResetToken drops any outstanding reset token
func (a *Account) ClearResetToken(now time.Time) {
	a.Reset = nil
	a.touch(now)
}

// ChangePassword replaces the secret. The new password must already be hashed.
// The reset token is consumed and any lockout is lifted.
func (a *Account) ChangePassword(p Password, now time.Time) error {
	if !p.IsHashed() {
		return ErrInvalidPasswordState
	}

	a.Password = p
	a.Reset = nil
	a.resetLoginAttempts()
	if a.Status == StatusBlocked {
		a.Status = StatusActive
		a.BlockedUntil = nil
	}
	a.touch(now)
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
