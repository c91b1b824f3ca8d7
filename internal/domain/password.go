package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8

	// MaxPasswordBytes is the longest input bcrypt accepts
	MaxPasswordBytes = 72

	// PasswordSpecialChars is the set a password must draw at least one character from
	PasswordSpecialChars = "@$!%*?&"
)

// Password holds either a validated plaintext or a bcrypt hash, never both
type Password struct {
	value  string
	hashed bool
}

// NewPassword validates plain against the password policy
func NewPassword(plain string) (Password, error) {
	if !isStrongPassword(plain) {
		return Password{}, ErrWeakPassword
	}
	return Password{value: plain}, nil
}

// PasswordFromHash wraps a stored hash. No validation is performed.
func PasswordFromHash(hash string) Password {
	return Password{value: hash, hashed: true}
}

func isStrongPassword(p string) bool {
	if utf8.RuneCountInString(p) < minPasswordLength || len(p) > MaxPasswordBytes {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range p {
		switch {
		case 'A' <= char && char <= 'Z':
			hasUpper = true
		case 'a' <= char && char <= 'z':
			hasLower = true
		case '0' <= char && char <= '9':
			hasNumber = true
		case strings.ContainsRune(PasswordSpecialChars, char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasNumber && hasSpecial
}

// Hash returns the hashed form. An already hashed password is returned unchanged.
func (p Password) Hash(cost int) (Password, error) {
	if p.hashed {
		return p, nil
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(p.value), cost)
	if err != nil {
		return Password{}, fmt.Errorf("failed to hash password: %w", err)
	}

	return PasswordFromHash(string(bytes)), nil
}

// Compare reports whether candidate matches the stored hash
func (p Password) Compare(candidate string) (bool, error) {
	if !p.hashed {
		return false, ErrInvalidPasswordState
	}

	err := bcrypt.CompareHashAndPassword([]byte(p.value), []byte(candidate))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare password: %w", err)
}

// IsHashed reports whether the value is a hash
func (p Password) IsHashed() bool {
	return p.hashed
}

// HashValue returns the stored hash for persistence, or "" for a plaintext password
func (p Password) HashValue() string {
	if !p.hashed {
		return ""
	}
	return p.value
}

// String never reveals the underlying value
func (p Password) String() string {
	return "[REDACTED]"
}
