package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidEmail is returned when an email fails format validation
	ErrInvalidEmail = errors.New("invalid email")

	// ErrWeakPassword is returned when a plaintext password does not meet the policy
	ErrWeakPassword = errors.New("password must be at least 8 characters long and contain uppercase, lowercase, number and special character (@$!%*?&)")

	// ErrInvalidPasswordState is returned when comparing against a password that was never hashed
	ErrInvalidPasswordState = errors.New("cannot compare unhashed password")

	// ErrAccountNotFound is returned when no account matches the lookup
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned when the password does not match
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateAccount is returned when an email or national id is already registered
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrAccountLocked is matched by AccountLockedError
	ErrAccountLocked = errors.New("account locked")

	// ErrInvalidToken is returned for unknown, mismatched or expired verification/reset tokens
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidResetCode is returned when a reset code is unknown or expired
	ErrInvalidResetCode = errors.New("invalid or expired reset code")
)

// DomainError carries a human readable message for business rule violations
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// DuplicateAccountError reports which unique field collided
type DuplicateAccountError struct {
	Field string
	Value string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account with %s %s already exists", e.Field, e.Value)
}

// Is makes errors.Is(err, ErrDuplicateAccount) hold
func (e *DuplicateAccountError) Is(target error) bool {
	return target == ErrDuplicateAccount
}

// AccountLockedError is returned while an account is inside its lockout window
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrAccountLocked) hold
func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
