package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"github.com/prperemyshlev/pagoseguro-auth/internal/mailer"
)

const acceptancePassword = "Secret1!"

func (s *Suite) post(path string, body any, opts ...func(*http.Request)) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) get(path string, opts ...func(*http.Request)) *http.Response {
	req, err := http.NewRequest(http.MethodGet, s.BaseURL+path, nil)
	s.Require().NoError(err)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
}

func withCookies(cookies []*http.Cookie) func(*http.Request) {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func (s *Suite) register(email string) {
	resp := s.post("/api/v1/auth/register", dto.RegisterRequest{
		Email:    email,
		Password: acceptancePassword,
		FullName: "Ana Torres",
	})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
}

func (s *Suite) login(email, password string) (*http.Response, dto.AuthResponse) {
	resp := s.post("/api/v1/auth/login", dto.LoginRequest{Email: email, Password: password})
	defer resp.Body.Close()

	var auth dto.AuthResponse
	if resp.StatusCode == http.StatusOK {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&auth))
	}
	return resp, auth
}

func (s *Suite) TestHealthEndpoint() {
	resp := s.get("/health")
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestRegister_DuplicateEmail() {
	s.register("duplicate@example.com")

	resp := s.post("/api/v1/auth/register", dto.RegisterRequest{
		Email:    "Duplicate@Example.com",
		Password: acceptancePassword,
		FullName: "Ana Torres",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *Suite) TestLogin_LockoutAfterFailedAttempts() {
	s.register("lockout@example.com")

	for i := 0; i < domain.MaxLoginAttempts; i++ {
		resp, _ := s.login("lockout@example.com", "Wrong1!x")
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	}

	resp, _ := s.login("lockout@example.com", acceptancePassword)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	_, ok := s.Transport.last(mailer.TemplateAccountBlocked)
	s.True(ok)

	var failures int
	err := s.Postgres.DB.QueryRow(
		"SELECT COUNT(*) FROM audit_logs WHERE action = $1 AND status = $2",
		domain.ActionLogin, string(domain.AuditFailure),
	).Scan(&failures)
	s.Require().NoError(err)
	s.Equal(domain.MaxLoginAttempts+1, failures)
}

func (s *Suite) TestPasswordRecovery() {
	s.register("recover@example.com")

	resp := s.post("/api/v1/auth/recover-password", dto.RecoverPasswordRequest{Email: "recover@example.com"})
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	job, ok := s.Transport.last(mailer.TemplatePasswordReset)
	s.Require().True(ok)
	code, _ := job.Data["Code"].(string)

	resp = s.post("/api/v1/auth/recover-password/confirm", dto.ConfirmResetCodeRequest{Email: "recover@example.com", Code: code})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var grant dto.ResetTokenResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&grant))
	resp.Body.Close()

	resp = s.post("/api/v1/auth/reset-password", dto.ResetPasswordRequest{
		Email:       "recover@example.com",
		Token:       grant.ResetToken,
		NewPassword: "Brand2New!",
	})
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	loginResp, _ := s.login("recover@example.com", "Brand2New!")
	s.Equal(http.StatusOK, loginResp.StatusCode)
}

func (s *Suite) TestCompleteFlow() {
	s.register("complete@example.com")

	loginResp, auth := s.login("complete@example.com", acceptancePassword)
	s.Require().Equal(http.StatusOK, loginResp.StatusCode)
	cookies := loginResp.Cookies()
	s.Require().NotEmpty(cookies)

	meResp := s.get("/api/v1/auth/me", withBearer(auth.AccessToken))
	meResp.Body.Close()
	s.Equal(http.StatusOK, meResp.StatusCode)

	refreshResp := s.post("/api/v1/auth/refresh", struct{}{}, withCookies(cookies))
	s.Require().Equal(http.StatusOK, refreshResp.StatusCode)
	var refreshed dto.AuthResponse
	s.Require().NoError(json.NewDecoder(refreshResp.Body).Decode(&refreshed))
	refreshResp.Body.Close()

	logoutResp := s.post("/api/v1/auth/logout", struct{}{}, withBearer(refreshed.AccessToken), withCookies(refreshResp.Cookies()))
	logoutResp.Body.Close()
	s.Equal(http.StatusOK, logoutResp.StatusCode)

	meResp = s.get("/api/v1/auth/me", withBearer(refreshed.AccessToken))
	meResp.Body.Close()
	s.Equal(http.StatusUnauthorized, meResp.StatusCode)
}
