package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"github.com/prperemyshlev/pagoseguro-auth/internal/repository/memory"
	"github.com/prperemyshlev/pagoseguro-auth/internal/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testPassword = "Secret1!"
)

var (
	testNow    = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	testOrigin = domain.Origin{IPAddress: "203.0.113.7", UserAgent: "service-test"}
)

type sentEmail struct {
	Kind  string
	To    string
	Token string
	Until time.Time
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) record(e sentEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

func (m *fakeMailer) SendVerificationEmail(ctx context.Context, to, name, token string) error {
	return m.record(sentEmail{Kind: emailVerification, To: to, Token: token})
}

func (m *fakeMailer) SendPasswordResetEmail(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return m.record(sentEmail{Kind: emailPasswordReset, To: to, Token: code})
}

func (m *fakeMailer) SendWelcomeEmail(ctx context.Context, to, name string) error {
	return m.record(sentEmail{Kind: emailWelcome, To: to})
}

func (m *fakeMailer) SendAccountBlockedEmail(ctx context.Context, to, name string, until time.Time) error {
	return m.record(sentEmail{Kind: emailAccountBlocked, To: to, Until: until})
}

// last returns the most recent email of kind
func (m *fakeMailer) last(kind string) (sentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i], true
		}
	}
	return sentEmail{}, false
}

type testEnv struct {
	svc           AuthService
	clock         *domain.FixedClock
	accounts      *memory.AccountRepository
	refreshTokens *memory.RefreshTokenRepository
	audit         *memory.AuditRepository
	blacklist     *memory.TokenBlacklist
	resetCodes    *memory.ResetCodeStore
	mailer        *fakeMailer
	tokens        *utils.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithMetrics(t, nil)
}

func newTestEnvWithMetrics(t *testing.T, metrics *Metrics) *testEnv {
	t.Helper()

	clock := &domain.FixedClock{T: testNow}
	env := &testEnv{
		clock:         clock,
		accounts:      memory.NewAccountRepository(),
		refreshTokens: memory.NewRefreshTokenRepository(clock.Now),
		audit:         memory.NewAuditRepository(),
		blacklist:     memory.NewTokenBlacklist(clock.Now),
		resetCodes:    memory.NewResetCodeStore(clock.Now),
		mailer:        &fakeMailer{},
		tokens:        utils.NewJWTManager(testSecret, 15*time.Minute, 7*24*time.Hour).WithClock(clock),
	}

	env.svc = NewAuthService(Deps{
		Accounts:        env.accounts,
		RefreshTokens:   env.refreshTokens,
		Audit:           env.audit,
		Tokens:          env.tokens,
		Mailer:          env.mailer,
		Blacklist:       env.blacklist,
		ResetCodes:      env.resetCodes,
		Clock:           clock,
		Metrics:         metrics,
		Logger:          zap.NewNop(),
		BCryptCost:      bcrypt.MinCost,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})

	return env
}

func (e *testEnv) register(t *testing.T, email string) *dto.RegisterResponse {
	t.Helper()
	resp, err := e.svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    email,
		Password: testPassword,
		FullName: "Ana Torres",
	}, testOrigin)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) login(email, password string) (*AuthResult, error) {
	return e.svc.Login(context.Background(), &dto.LoginRequest{Email: email, Password: password}, testOrigin)
}

// auditFor returns the entries for action in insertion order
func (e *testEnv) auditFor(action string) []domain.AuditEntry {
	var out []domain.AuditEntry
	for _, entry := range e.audit.Entries() {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}
