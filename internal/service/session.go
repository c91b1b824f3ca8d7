package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"github.com/prperemyshlev/pagoseguro-auth/internal/repository"
	"go.uber.org/zap"
)

// Refresh rotates a refresh token: the presented one is revoked and a new pair is issued
func (s *authService) Refresh(ctx context.Context, refreshToken string, origin domain.Origin) (*AuthResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	blacklisted, err := s.blacklist.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, domain.ErrInvalidToken
	}

	record, err := s.refreshTokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	now := s.clock.Now()
	if record.IsExpired(now) || record.UserID != claims.UserID {
		return nil, domain.ErrInvalidToken
	}

	account, err := s.findByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	blocked, changed := account.EvaluateLockout(now)
	if blocked {
		return nil, &domain.AccountLockedError{Until: *account.BlockedUntil}
	}
	if changed {
		if err := s.update(ctx, account); err != nil {
			return nil, err
		}
	}

	if err := s.refreshTokens.DeleteByToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if err := s.blacklist.AddToken(ctx, refreshToken, record.ExpiresAt.Sub(now)); err != nil {
		s.logger.Warn("Failed to blacklist rotated refresh token", zap.Error(err))
	}

	result, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEvent{
		Action:  domain.ActionTokenRefresh,
		Outcome: domain.AuditSuccess,
		ActorID: account.ID,
		Origin:  origin,
	})

	return result, nil
}

// Logout revokes the refresh token and blacklists the access token until it expires.
// A missing refresh token record is not an error.
func (s *authService) Logout(ctx context.Context, req LogoutInput) error {
	if req.Claims == nil {
		return domain.ErrInvalidToken
	}

	if req.RefreshToken != "" {
		record, err := s.refreshTokens.FindByToken(ctx, req.RefreshToken)
		switch {
		case err == nil && record.UserID == req.Claims.UserID:
			if err := s.refreshTokens.DeleteByToken(ctx, req.RefreshToken); err != nil {
				return fmt.Errorf("failed to delete refresh token: %w", err)
			}
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("failed to get refresh token: %w", err)
		}
	}

	if req.AccessToken != "" {
		ttl := req.Claims.ExpiresAt().Sub(s.clock.Now())
		if err := s.blacklist.AddToken(ctx, req.AccessToken, ttl); err != nil {
			s.logger.Warn("Failed to blacklist access token", zap.Error(err))
		}
	}

	s.audit.Record(ctx, AuditEvent{
		Action:  domain.ActionLogout,
		Outcome: domain.AuditSuccess,
		ActorID: req.Claims.UserID,
		Origin:  req.Origin,
		Details: map[string]any{"email": req.Claims.Email},
	})

	return nil
}

// GetProfile returns the account of an authenticated user
func (s *authService) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	account, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(account), nil
}

// ValidateAccessToken verifies an access token and checks it was not revoked
func (s *authService) ValidateAccessToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	blacklisted, err := s.blacklist.IsTokenBlacklisted(ctx, token)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, domain.ErrInvalidToken
	}

	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	return claims, nil
}
