package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const maxEmailLength = 100

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email is a normalized, validated email address
type Email struct {
	value string
}

// NewEmail lower-cases and trims raw and validates the result
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if len(normalized) > maxEmailLength || !emailRegex.MatchString(normalized) {
		return Email{}, fmt.Errorf("%q: %w", raw, ErrInvalidEmail)
	}

	return Email{value: normalized}, nil
}

// String returns the normalized address
func (e Email) String() string {
	return e.value
}

// Equals compares normalized values
func (e Email) Equals(other Email) bool {
	return e.value == other.value
}

// IsZero reports whether the email was never set
func (e Email) IsZero() bool {
	return e.value == ""
}
