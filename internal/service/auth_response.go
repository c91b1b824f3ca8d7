package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
)

// AuthResult is a freshly issued session
type AuthResult struct {
	Response        *dto.AuthResponse
	RefreshTokenTTL time.Duration
}

// issueSession generates a token pair for the account and stores the refresh token
func (s *authService) issueSession(ctx context.Context, account *domain.Account) (*AuthResult, error) {
	pair, err := s.tokens.GenerateTokens(domain.TokenPayload{
		UserID: account.ID,
		Email:  account.Email.String(),
		Role:   account.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	now := s.clock.Now()
	err = s.refreshTokens.Save(ctx, &domain.RefreshToken{
		Token:     pair.RefreshToken,
		UserID:    account.ID,
		ExpiresAt: now.Add(s.refreshTokenTTL),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &AuthResult{
		Response: &dto.AuthResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.tokens.AccessTokenTTL().Seconds()),
			User:         toUserInfo(account),
		},
		RefreshTokenTTL: s.refreshTokenTTL,
	}, nil
}

func toUserInfo(account *domain.Account) dto.UserInfo {
	return dto.UserInfo{
		ID:       account.ID,
		Email:    account.Email.String(),
		FullName: account.FullName,
		Role:     string(account.Role),
	}
}

func toUserResponse(account *domain.Account) *dto.UserResponse {
	response := &dto.UserResponse{
		ID:            account.ID,
		Email:         account.Email.String(),
		FullName:      account.FullName,
		Role:          string(account.Role),
		Status:        string(account.Status),
		Phone:         account.Phone,
		Address:       account.Address,
		EmailVerified: account.EmailVerified,
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     account.UpdatedAt.Format(time.RFC3339),
	}

	if account.LastLoginAt != nil {
		lastLogin := account.LastLoginAt.Format(time.RFC3339)
		response.LastLoginAt = &lastLogin
	}

	return response
}
