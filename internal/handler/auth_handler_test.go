package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"github.com/prperemyshlev/pagoseguro-auth/internal/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "ana@example.com",
		Password: testPassword,
		FullName: "Ana Torres",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.UserID)
	assert.NotEmpty(t, resp.Message)
	assert.NotNil(t, srv.transport.lastData(mailer.TemplateVerifyEmail))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")

	rec := srv.do(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "ANA@example.com",
		Password: testPassword,
		FullName: "Ana Torres",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_ValidationDetails(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":     "not-an-email",
		"password":  "short",
		"full_name": "Ana Torres",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeError(t, rec)
	details, ok := resp.Details.(map[string]interface{})
	require.True(t, ok, "details should be an object")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestLogin_SetsRefreshCookie(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")

	resp, cookies := srv.login(t, "ana@example.com")
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "ana@example.com", resp.User.Email)

	require.Len(t, cookies, 1)
	assert.Equal(t, refreshCookieName, cookies[0].Name)
	assert.Equal(t, resp.RefreshToken, cookies[0].Value)
	assert.Equal(t, refreshCookiePath, cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")

	unknown := srv.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "nobody@example.com", Password: testPassword})
	wrong := srv.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "ana@example.com", Password: "Wrong1!x"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.JSONEq(t, unknown.Body.String(), wrong.Body.String())
	assert.Equal(t, invalidLoginMessage, decodeError(t, wrong).Message)
}

func TestLogin_LockedAccount(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")

	for i := 0; i < domain.MaxLoginAttempts; i++ {
		rec := srv.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "ana@example.com", Password: "Wrong1!x"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	assert.NotNil(t, srv.transport.lastData(mailer.TemplateAccountBlocked))

	rec := srv.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "ana@example.com", Password: testPassword})
	require.Equal(t, http.StatusForbidden, rec.Code)

	details, ok := decodeError(t, rec).Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, testNow.Add(domain.LockoutDuration).Format(time.RFC3339), details["locked_until"])

	srv.clock.Advance(domain.LockoutDuration + time.Second)
	srv.login(t, "ana@example.com")
}

func TestPasswordRecoveryFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")

	known := srv.do(http.MethodPost, "/api/v1/auth/recover-password", dto.RecoverPasswordRequest{Email: "ana@example.com"})
	unknown := srv.do(http.MethodPost, "/api/v1/auth/recover-password", dto.RecoverPasswordRequest{Email: "nobody@example.com"})
	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())

	data := srv.transport.lastData(mailer.TemplatePasswordReset)
	require.NotNil(t, data)
	code, _ := data["Code"].(string)
	require.Len(t, code, 6)

	wrongCode := "000000"
	if code == wrongCode {
		wrongCode = "111111"
	}
	rec := srv.do(http.MethodPost, "/api/v1/auth/recover-password/confirm", dto.ConfirmResetCodeRequest{Email: "ana@example.com", Code: wrongCode})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/auth/recover-password/confirm", dto.ConfirmResetCodeRequest{Email: "ana@example.com", Code: code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var grant dto.ResetTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grant))
	require.NotEmpty(t, grant.ResetToken)

	rec = srv.do(http.MethodPost, "/api/v1/auth/reset-password", dto.ResetPasswordRequest{
		Email:       "ana@example.com",
		Token:       grant.ResetToken,
		NewPassword: "Brand2New!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "ana@example.com", Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = srv.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "ana@example.com", Password: "Brand2New!"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyEmail(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")

	data := srv.transport.lastData(mailer.TemplateVerifyEmail)
	require.NotNil(t, data)
	token, _ := data["Token"].(string)
	require.NotEmpty(t, token)

	rec := srv.do(http.MethodPost, "/api/v1/auth/verify-email", dto.VerifyEmailRequest{Email: "ana@example.com", Token: "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/auth/verify-email", dto.VerifyEmailRequest{Email: "ana@example.com", Token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp, _ := srv.login(t, "ana@example.com")
	rec = srv.do(http.MethodGet, "/api/v1/auth/me", nil, bearer(resp.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)

	var profile dto.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, string(domain.StatusActive), profile.Status)
}

func TestResendVerification(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")

	rec := srv.do(http.MethodPost, "/api/v1/auth/verify-email/resend", dto.ResendVerificationRequest{Email: "ana@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/auth/verify-email/resend", dto.ResendVerificationRequest{Email: "nobody@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")
	_, cookies := srv.login(t, "ana@example.com")

	rec := srv.do(http.MethodPost, "/api/v1/auth/refresh", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/auth/refresh", nil, withCookies(cookies))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, cookies[0].Value, resp.RefreshToken)

	// the rotated token cannot be used twice
	rec = srv.do(http.MethodPost, "/api/v1/auth/refresh", nil, withCookies(cookies))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_FromBody(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")
	resp, _ := srv.login(t, "ana@example.com")

	rec := srv.do(http.MethodPost, "/api/v1/auth/refresh", dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetMe_RequiresBearerToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodGet, "/api/v1/auth/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Basic abc")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodGet, "/api/v1/auth/me", nil, bearer("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "ana@example.com")
	resp, cookies := srv.login(t, "ana@example.com")

	rec := srv.do(http.MethodPost, "/api/v1/auth/logout", nil, bearer(resp.AccessToken), withCookies(cookies))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)

	rec = srv.do(http.MethodGet, "/api/v1/auth/me", nil, bearer(resp.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/auth/refresh", nil, withCookies(cookies))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.NotEmpty(t, srv.audit.Entries())
}

func TestPasswordOverBcryptLimitIsRejected(t *testing.T) {
	srv := newTestServer(t)
	// 44 characters but 84 bytes
	long := "Aa1!" + strings.Repeat("é", 40)

	rec := srv.do(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "ana@example.com",
		Password: long,
		FullName: "Ana Torres",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	details, ok := decodeError(t, rec).Details.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "password")

	rec = srv.do(http.MethodPost, "/api/v1/auth/reset-password", dto.ResetPasswordRequest{
		Email:       "ana@example.com",
		Token:       "any",
		NewPassword: long,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}
