package validation

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,strongpwd"`
	Code     string  `json:"code" binding:"omitempty,resetcode"`
	Phone    *string `json:"phone" binding:"omitempty,phone"`
}

func TestToDetails_UsesJSONNamesAndAliases(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(&sample{Email: "nope", Password: "weakpass", Code: "12ab"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Contains(t, details["password"], "special character")
	assert.Equal(t, "must be a 6 digit code", details["code"])
}

func TestStrongPasswordAlias(t *testing.T) {
	Init()

	cases := map[string]bool{
		"Secret1!":  true,
		"Secret1?":  true,
		"secret1!":  false,
		"SECRET1!":  false,
		"Secretab!": false,
		"Secret12":  false,
		"Se1!":      false,

		"Aa1!" + strings.Repeat("x", 68): true,
		"Aa1!" + strings.Repeat("é", 34): true,
		"Aa1!" + strings.Repeat("é", 40): false,
	}
	for pwd, ok := range cases {
		err := binding.Validator.ValidateStruct(&sample{Email: "ana@example.com", Password: pwd})
		if ok {
			assert.NoError(t, err, pwd)
		} else {
			assert.Error(t, err, pwd)
		}
	}
}

func TestToDetails_Nil(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
}
