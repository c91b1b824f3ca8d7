package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/mailer"
	"github.com/prperemyshlev/pagoseguro-auth/internal/repository"
	"go.uber.org/zap"
)

// Email kinds used for failure metrics and logs
const (
	emailVerification   = "verification"
	emailPasswordReset  = "password_reset"
	emailWelcome        = "welcome"
	emailAccountBlocked = "account_blocked"
)

// unknownAccountPassword is hashed once so logins for unknown emails spend the same bcrypt time
const unknownAccountPassword = "Unknown-account-1!"

// Deps holds the collaborators of the auth service
type Deps struct {
	Accounts      repository.AccountRepository
	RefreshTokens repository.RefreshTokenRepository
	Audit         repository.AuditRepository
	Tokens        TokenIssuer
	Mailer        mailer.Sender
	Blacklist     TokenBlacklist
	ResetCodes    ResetCodeStore
	Clock         domain.Clock
	Metrics       *Metrics
	Logger        *zap.Logger

	BCryptCost      int
	RefreshTokenTTL time.Duration
}

// authService implements AuthService interface
type authService struct {
	accounts      repository.AccountRepository
	refreshTokens repository.RefreshTokenRepository
	tokens        TokenIssuer
	mailer        mailer.Sender
	blacklist     TokenBlacklist
	resetCodes    ResetCodeStore
	factory       *domain.AccountFactory
	audit         *AuditRecorder
	clock         domain.Clock
	metrics       *Metrics
	logger        *zap.Logger

	bcryptCost      int
	refreshTokenTTL time.Duration
	dummyHash       domain.Password
}

// NewAuthService creates a new auth service
func NewAuthService(d Deps) AuthService {
	if d.Clock == nil {
		d.Clock = domain.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = NoopMetrics()
	}

	dummyHash, err := domain.NewPassword(unknownAccountPassword)
	if err == nil {
		dummyHash, err = dummyHash.Hash(d.BCryptCost)
	}
	if err != nil {
		d.Logger.Warn("Failed to prepare dummy password hash", zap.Error(err))
	}

	return &authService{
		accounts:        d.Accounts,
		refreshTokens:   d.RefreshTokens,
		tokens:          d.Tokens,
		mailer:          d.Mailer,
		blacklist:       d.Blacklist,
		resetCodes:      d.ResetCodes,
		factory:         domain.NewAccountFactory(d.BCryptCost, d.Clock),
		audit:           NewAuditRecorder(d.Audit, d.Clock, d.Logger),
		clock:           d.Clock,
		metrics:         d.Metrics,
		logger:          d.Logger,
		bcryptCost:      d.BCryptCost,
		refreshTokenTTL: d.RefreshTokenTTL,
		dummyHash:       dummyHash,
	}
}

// equalizeUnknownAccount runs a bcrypt comparison that always fails
func (s *authService) equalizeUnknownAccount(candidate string) {
	_, _ = s.dummyHash.Compare(candidate)
}

// findByEmail loads an account, mapping a missing row to domain.ErrAccountNotFound
func (s *authService) findByEmail(ctx context.Context, email domain.Email) (*domain.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, email.String())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *authService) findByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *authService) update(ctx context.Context, account *domain.Account) error {
	if err := s.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// emailFailed logs a delivery failure. Email never blocks a use case result.
func (s *authService) emailFailed(ctx context.Context, kind string, account *domain.Account, err error) {
	s.metrics.EmailFailure(ctx, kind)
	s.logger.Error("Failed to send email",
		zap.String("kind", kind),
		zap.String("account_id", account.ID),
		zap.Error(err),
	)
}

func auditDetails(email string, reason string) map[string]any {
	details := map[string]any{"email": email}
	if reason != "" {
		details["error"] = reason
	}
	return details
}
