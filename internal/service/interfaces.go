package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
)

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, origin domain.Origin) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, origin domain.Origin) (*AuthResult, error)
	RecoverPassword(ctx context.Context, req *dto.RecoverPasswordRequest, origin domain.Origin) (*dto.SuccessResponse, error)
	ConfirmResetCode(ctx context.Context, req *dto.ConfirmResetCodeRequest, origin domain.Origin) (*dto.ResetTokenResponse, error)
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest, origin domain.Origin) (*dto.SuccessResponse, error)
	VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest, origin domain.Origin) (*dto.SuccessResponse, error)
	ResendVerification(ctx context.Context, req *dto.ResendVerificationRequest, origin domain.Origin) (*dto.SuccessResponse, error)
	Refresh(ctx context.Context, refreshToken string, origin domain.Origin) (*AuthResult, error)
	Logout(ctx context.Context, req LogoutInput) error
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
	ValidateAccessToken(ctx context.Context, token string) (*domain.TokenClaims, error)
}

// TokenIssuer issues and verifies signed tokens and reset codes
type TokenIssuer interface {
	GenerateTokens(payload domain.TokenPayload) (domain.TokenPair, error)
	VerifyAccessToken(token string) (*domain.TokenClaims, error)
	VerifyRefreshToken(token string) (*domain.TokenClaims, error)
	GenerateResetCode() (string, error)
	AccessTokenTTL() time.Duration
}

// TokenBlacklist remembers revoked tokens until they would have expired anyway
type TokenBlacklist interface {
	AddToken(ctx context.Context, token string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

// ResetCodeStore holds emailed reset codes until they are confirmed or expire.
// Consume returns domain.ErrInvalidResetCode for unknown or expired codes.
type ResetCodeStore interface {
	Store(ctx context.Context, email, code string, grant domain.ResetCodeGrant, ttl time.Duration) error
	Consume(ctx context.Context, email, code string) (*domain.ResetCodeGrant, error)
}

// RateLimiter decides whether another request for key fits in the window
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}

// RateLimitDecision is the outcome of a rate limit check
type RateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// LogoutInput identifies the session being closed
type LogoutInput struct {
	Claims       *domain.TokenClaims
	AccessToken  string
	RefreshToken string
	Origin       domain.Origin
}
