package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestAccount(t *testing.T) (*Account, *FixedClock) {
	t.Helper()

	clock := &FixedClock{T: testNow}
	factory := NewAccountFactory(bcrypt.MinCost, clock)

	account, err := factory.New(NewAccountParams{
		Email:      "A@X.com",
		Password:   "Abcdef1!",
		FullName:   "Jane Doe",
		NationalID: ptr("1234567890"),
	})
	require.NoError(t, err)

	return account, clock
}

func TestAccountFactory_New(t *testing.T) {
	account, _ := newTestAccount(t)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "a@x.com", account.Email.String())
	assert.Equal(t, RoleCustomer, account.Role)
	assert.Equal(t, StatusPendingVerification, account.Status)
	assert.Zero(t, account.FailedLoginAttempts)
	assert.False(t, account.EmailVerified)
	assert.Nil(t, account.Reset)
	assert.Equal(t, testNow, account.CreatedAt)
	assert.Equal(t, testNow, account.UpdatedAt)

	require.True(t, account.Password.IsHashed())
	ok, err := account.Password.Compare("Abcdef1!")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountFactory_NewRejectsBadInput(t *testing.T) {
	factory := NewAccountFactory(bcrypt.MinCost, &FixedClock{T: testNow})

	_, err := factory.New(NewAccountParams{Email: "bad", Password: "Abcdef1!"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = factory.New(NewAccountParams{Email: "a@x.com", Password: "weak"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAccount_FiveFailuresBlock(t *testing.T) {
	account, clock := newTestAccount(t)

	for i := 1; i < MaxLoginAttempts; i++ {
		lockedNow := account.IncrementLoginAttempts(clock.Now())
		assert.False(t, lockedNow, "attempt %d should not lock", i)
		assert.False(t, account.IsBlocked(clock.Now()))
	}

	lockedNow := account.IncrementLoginAttempts(clock.Now())
	assert.True(t, lockedNow)
	assert.True(t, account.IsBlocked(clock.Now()))
	assert.Equal(t, StatusBlocked, account.Status)
	require.NotNil(t, account.BlockedUntil)
	assert.Equal(t, testNow.Add(30*time.Minute), *account.BlockedUntil)
	assert.Equal(t, MaxLoginAttempts, account.FailedLoginAttempts)
}

func TestAccount_LockoutExpiresLazily(t *testing.T) {
	account, clock := newTestAccount(t)
	for i := 0; i < MaxLoginAttempts; i++ {
		account.IncrementLoginAttempts(clock.Now())
	}

	clock.Advance(29 * time.Minute)
	blocked, changed := account.EvaluateLockout(clock.Now())
	assert.True(t, blocked)
	assert.False(t, changed)

	clock.Advance(2 * time.Minute)
	blocked, changed = account.EvaluateLockout(clock.Now())
	assert.False(t, blocked)
	assert.True(t, changed)
	assert.Equal(t, StatusActive, account.Status)
	assert.Zero(t, account.FailedLoginAttempts)
	assert.Nil(t, account.BlockedUntil)
	assert.Nil(t, account.LastFailedLoginAt)
	assert.Equal(t, clock.Now(), account.UpdatedAt)

	blocked, changed = account.EvaluateLockout(clock.Now())
	assert.False(t, blocked)
	assert.False(t, changed)
}

func TestAccount_UpdateLastLoginResetsCounter(t *testing.T) {
	account, clock := newTestAccount(t)
	account.IncrementLoginAttempts(clock.Now())
	account.IncrementLoginAttempts(clock.Now())

	clock.Advance(time.Minute)
	account.UpdateLastLogin(clock.Now())

	assert.Zero(t, account.FailedLoginAttempts)
	require.NotNil(t, account.LastLoginAt)
	assert.Equal(t, clock.Now(), *account.LastLoginAt)
}

func TestAccount_VerifyEmail(t *testing.T) {
	account, clock := newTestAccount(t)
	token := account.GenerateVerificationToken(clock.Now())
	assert.NotEmpty(t, token)
	assert.True(t, account.IsVerificationTokenValid(token))
	assert.False(t, account.IsVerificationTokenValid("other"))

	clock.Advance(time.Hour)
	account.VerifyEmail(clock.Now())

	assert.True(t, account.EmailVerified)
	require.NotNil(t, account.EmailVerifiedAt)
	assert.Equal(t, clock.Now(), *account.EmailVerifiedAt)
	assert.Nil(t, account.VerificationToken)
	assert.Equal(t, StatusActive, account.Status)
	assert.False(t, account.IsVerificationTokenValid(token))
}

func TestAccount_VerifyEmailKeepsLockout(t *testing.T) {
	account, clock := newTestAccount(t)
	account.BlockAccount(LockoutDuration, clock.Now())

	account.VerifyEmail(clock.Now())

	assert.True(t, account.EmailVerified)
	assert.Equal(t, StatusBlocked, account.Status)
	assert.True(t, account.IsBlocked(clock.Now()))
}

func TestAccount_ResetToken(t *testing.T) {
	account, clock := newTestAccount(t)

	token := account.GenerateResetToken(clock.Now())
	require.NotNil(t, account.Reset)
	assert.Equal(t, testNow.Add(10*time.Minute), account.Reset.ExpiresAt)

	assert.True(t, account.IsResetTokenValid(token, clock.Now()))
	assert.False(t, account.IsResetTokenValid(token+"x", clock.Now()))
	assert.False(t, account.IsResetTokenValid("", clock.Now()))

	clock.Advance(10 * time.Minute)
	assert.False(t, account.IsResetTokenValid(token, clock.Now()))
}

func TestAccount_ResetTokenRegenerationInvalidatesPrevious(t *testing.T) {
	account, clock := newTestAccount(t)

	first := account.GenerateResetToken(clock.Now())
	second := account.GenerateResetToken(clock.Now())

	assert.NotEqual(t, first, second)
	assert.False(t, account.IsResetTokenValid(first, clock.Now()))
	assert.True(t, account.IsResetTokenValid(second, clock.Now()))
}

func TestAccount_ChangePassword(t *testing.T) {
	account, clock := newTestAccount(t)
	account.GenerateResetToken(clock.Now())
	for i := 0; i < MaxLoginAttempts; i++ {
		account.IncrementLoginAttempts(clock.Now())
	}

	plain, err := NewPassword("N3wPassw0rd!")
	require.NoError(t, err)

	err = account.ChangePassword(plain, clock.Now())
	assert.ErrorIs(t, err, ErrInvalidPasswordState)

	hashed, err := plain.Hash(bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, account.ChangePassword(hashed, clock.Now()))

	assert.Nil(t, account.Reset)
	assert.Equal(t, StatusActive, account.Status)
	assert.Zero(t, account.FailedLoginAttempts)
	assert.False(t, account.IsBlocked(clock.Now()))

	ok, err := account.Password.Compare("N3wPassw0rd!")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccount_RecordRoundTrip(t *testing.T) {
	account, clock := newTestAccount(t)
	account.GenerateResetToken(clock.Now())
	account.GenerateVerificationToken(clock.Now())

	rebuilt, err := ReconstituteAccount(account.Record())
	require.NoError(t, err)

	assert.Equal(t, account, rebuilt)
}

func TestReconstituteAccount_PartialResetPairIsDropped(t *testing.T) {
	account, _ := newTestAccount(t)
	record := account.Record()
	record.ResetToken = ptr("orphan")

	rebuilt, err := ReconstituteAccount(record)
	require.NoError(t, err)
	assert.Nil(t, rebuilt.Reset)
}
