package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmail_Normalizes(t *testing.T) {
	e, err := NewEmail("  Jane.Doe@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", e.String())
}

func TestNewEmail_Invalid(t *testing.T) {
	tests := []string{
		"",
		"plainaddress",
		"missing-domain@",
		"@missing-local.com",
		"no-tld@example",
		"two@@example.com",
		"spaces in@example.com",
		strings.Repeat("a", 95) + "@example.com",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := NewEmail(raw)
			assert.ErrorIs(t, err, ErrInvalidEmail)
		})
	}
}

func TestEmail_Equals(t *testing.T) {
	a, err := NewEmail("A@X.com")
	require.NoError(t, err)
	b, err := NewEmail("a@x.com")
	require.NoError(t, err)
	c, err := NewEmail("b@x.com")
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}
