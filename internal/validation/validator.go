// Package validation configures gin's request binding validator.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
)

var initOnce sync.Once

// Init registers json tag names and the aliases used by the request DTOs on
// gin's validator. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		// bcrypt rejects inputs over 72 bytes, which max= cannot express for multibyte runes
		_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= domain.MaxPasswordBytes
		})

		v.RegisterAlias("strongpwd", "min=8,bcryptlen,containsany="+domain.PasswordSpecialChars+
			",containsany=0123456789,containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ,containsany=abcdefghijklmnopqrstuvwxyz")
		v.RegisterAlias("resetcode", "len=6,numeric")
		v.RegisterAlias("nationalid", "min=6,max=20,alphanum")
		v.RegisterAlias("phone", "e164")
	})
}

// ToDetails converts binding errors into a map[field]message for ErrorResponse.Details
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		return map[string]string{"payload": "request body is required"}
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + param + " characters long"
	case "max":
		return "must be at most " + param + " characters long"
	case "len":
		return "must be exactly " + param + " characters long"
	case "numeric":
		return "must be numeric"
	case "alphanum":
		return "must contain alphanumeric characters only"
	case "uuid":
		return "must be a valid UUID"
	case "strongpwd":
		return "must be 8 to 72 characters (at most 72 bytes) with uppercase, lowercase, number and special character (" + domain.PasswordSpecialChars + ")"
	case "resetcode":
		return "must be a 6 digit code"
	case "nationalid":
		return "must be 6 to 20 alphanumeric characters"
	case "phone":
		return "must be a valid phone number"
	default:
		if param != "" {
			return "failed on '" + fe.Tag() + "' with parameter '" + param + "'"
		}
		return "failed on '" + fe.Tag() + "'"
	}
}
