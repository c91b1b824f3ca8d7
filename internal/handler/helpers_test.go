package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"github.com/prperemyshlev/pagoseguro-auth/internal/mailer"
	"github.com/prperemyshlev/pagoseguro-auth/internal/repository/memory"
	"github.com/prperemyshlev/pagoseguro-auth/internal/service"
	"github.com/prperemyshlev/pagoseguro-auth/internal/utils"
	"github.com/prperemyshlev/pagoseguro-auth/internal/validation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testPassword = "Secret1!"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// captureTransport keeps every email job in memory
type captureTransport struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (t *captureTransport) Deliver(ctx context.Context, job mailer.EmailJob) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs = append(t.jobs, job)
	return nil
}

func (t *captureTransport) lastData(template string) map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.jobs) - 1; i >= 0; i-- {
		if t.jobs[i].Template == template {
			return t.jobs[i].Data
		}
	}
	return nil
}

// stubLimiter returns a fixed decision
type stubLimiter struct {
	decision service.RateLimitDecision
	err      error
	keys     []string
}

func (l *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (service.RateLimitDecision, error) {
	l.keys = append(l.keys, key)
	return l.decision, l.err
}

type testServer struct {
	router    *gin.Engine
	clock     *domain.FixedClock
	transport *captureTransport
	audit     *memory.AuditRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	validation.Init()

	clock := &domain.FixedClock{T: testNow}
	transport := &captureTransport{}
	audit := memory.NewAuditRepository()

	authService := service.NewAuthService(service.Deps{
		Accounts:        memory.NewAccountRepository(),
		RefreshTokens:   memory.NewRefreshTokenRepository(clock.Now),
		Audit:           audit,
		Tokens:          utils.NewJWTManager(testSecret, 15*time.Minute, 7*24*time.Hour).WithClock(clock),
		Mailer:          mailer.NewJobSender(transport, mailer.Options{FrontendURL: "https://app.example.com"}),
		Blacklist:       memory.NewTokenBlacklist(clock.Now),
		ResetCodes:      memory.NewResetCodeStore(clock.Now),
		Clock:           clock,
		Logger:          zap.NewNop(),
		BCryptCost:      bcrypt.MinCost,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})

	h := NewAuthHandler(authService, zap.NewNop(), CookieOptions{})

	router := gin.New()
	auth := router.Group("/api/v1/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/recover-password", h.RecoverPassword)
	auth.POST("/recover-password/confirm", h.ConfirmResetCode)
	auth.POST("/reset-password", h.ResetPassword)
	auth.POST("/verify-email", h.VerifyEmail)
	auth.POST("/verify-email/resend", h.ResendVerification)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", AuthMiddleware(authService), h.Logout)
	auth.GET("/me", AuthMiddleware(authService), h.GetMe)

	return &testServer{
		router:    router,
		clock:     clock,
		transport: transport,
		audit:     audit,
	}
}

func (s *testServer) do(method, path string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, email string) {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    email,
		Password: testPassword,
		FullName: "Ana Torres",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(t *testing.T, email string) (dto.AuthResponse, []*http.Cookie) {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: email, Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp, rec.Result().Cookies()
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookies(cookies []*http.Cookie) func(*http.Request) {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
