package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewAccountParams holds the inputs for creating a brand new account
type NewAccountParams struct {
	Email      string
	Password   string
	FullName   string
	Role       Role
	NationalID *string
	Phone      *string
	Address    *string
	CreatedBy  *string
}

// AccountRecord is the stored shape of an account, used to reconstitute the entity
type AccountRecord struct {
	ID                  string
	Email               string
	PasswordHash        string
	FullName            string
	Role                Role
	Status              Status
	NationalID          *string
	Phone               *string
	Address             *string
	FailedLoginAttempts int
	LastFailedLoginAt   *time.Time
	BlockedUntil        *time.Time
	LastLoginAt         *time.Time
	EmailVerified       bool
	EmailVerifiedAt     *time.Time
	VerificationToken   *string
	ResetToken          *string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	CreatedBy           *string
	UpdatedAt           time.Time
}

// AccountFactory builds accounts, hashing passwords with the configured bcrypt cost
type AccountFactory struct {
	bcryptCost int
	clock      Clock
}

// NewAccountFactory creates a new account factory
func NewAccountFactory(bcryptCost int, clock Clock) *AccountFactory {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AccountFactory{
		bcryptCost: bcryptCost,
		clock:      clock,
	}
}

// New validates the credentials and returns an account in pending verification
func (f *AccountFactory) New(params NewAccountParams) (*Account, error) {
	email, err := NewEmail(params.Email)
	if err != nil {
		return nil, err
	}

	plain, err := NewPassword(params.Password)
	if err != nil {
		return nil, err
	}

	hashed, err := plain.Hash(f.bcryptCost)
	if err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = RoleCustomer
	}

	now := f.clock.Now()
	return &Account{
		ID:         uuid.NewString(),
		Email:      email,
		Password:   hashed,
		FullName:   params.FullName,
		Role:       role,
		Status:     StatusPendingVerification,
		NationalID: params.NationalID,
		Phone:      params.Phone,
		Address:    params.Address,
		CreatedAt:  now,
		CreatedBy:  params.CreatedBy,
		UpdatedAt:  now,
	}, nil
}

// Reconstitute rebuilds an account from storage. The password is taken as an existing hash.
func (f *AccountFactory) Reconstitute(r AccountRecord) (*Account, error) {
	return ReconstituteAccount(r)
}

// ReconstituteAccount rebuilds an account from storage without needing a factory
func ReconstituteAccount(r AccountRecord) (*Account, error) {
	email, err := NewEmail(r.Email)
	if err != nil {
		return nil, fmt.Errorf("stored account %s: %w", r.ID, err)
	}

	var reset *ResetToken
	if r.ResetToken != nil && r.ResetTokenExpiresAt != nil {
		reset = &ResetToken{Token: *r.ResetToken, ExpiresAt: *r.ResetTokenExpiresAt}
	}

	return &Account{
		ID:                  r.ID,
		Email:               email,
		Password:            PasswordFromHash(r.PasswordHash),
		FullName:            r.FullName,
		Role:                r.Role,
		Status:              r.Status,
		NationalID:          r.NationalID,
		Phone:               r.Phone,
		Address:             r.Address,
		FailedLoginAttempts: r.FailedLoginAttempts,
		LastFailedLoginAt:   r.LastFailedLoginAt,
		BlockedUntil:        r.BlockedUntil,
		LastLoginAt:         r.LastLoginAt,
		EmailVerified:       r.EmailVerified,
		EmailVerifiedAt:     r.EmailVerifiedAt,
		VerificationToken:   r.VerificationToken,
		Reset:               reset,
		CreatedAt:           r.CreatedAt,
		CreatedBy:           r.CreatedBy,
		UpdatedAt:           r.UpdatedAt,
	}, nil
}

// Record flattens the account into its stored shape
func (a *Account) Record() AccountRecord {
	r := AccountRecord{
		ID:                  a.ID,
		Email:               a.Email.String(),
		PasswordHash:        a.Password.HashValue(),
		FullName:            a.FullName,
		Role:                a.Role,
		Status:              a.Status,
		NationalID:          a.NationalID,
		Phone:               a.Phone,
		Address:             a.Address,
		FailedLoginAttempts: a.FailedLoginAttempts,
		LastFailedLoginAt:   a.LastFailedLoginAt,
		BlockedUntil:        a.BlockedUntil,
		LastLoginAt:         a.LastLoginAt,
		EmailVerified:       a.EmailVerified,
		EmailVerifiedAt:     a.EmailVerifiedAt,
		VerificationToken:   a.VerificationToken,
		CreatedAt:           a.CreatedAt,
		CreatedBy:           a.CreatedBy,
		UpdatedAt:           a.UpdatedAt,
	}
	if a.Reset != nil {
		r.ResetToken = ptr(a.Reset.Token)
		r.ResetTokenExpiresAt = ptr(a.Reset.ExpiresAt)
	}
	return r
}
