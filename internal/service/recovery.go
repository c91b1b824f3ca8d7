package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"go.uber.org/zap"
)

const (
	recoverMessage = "If the email is registered, you will receive a password reset code."
	resetMessage   = "Password updated successfully. Please sign in again."
)

// RecoverPassword emails a reset code. The response never reveals whether the email is registered.
func (s *authService) RecoverPassword(ctx context.Context, req *dto.RecoverPasswordRequest, origin domain.Origin) (*dto.SuccessResponse, error) {
	generic := &dto.SuccessResponse{Message: recoverMessage}

	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return generic, nil
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.audit.Record(ctx, AuditEvent{
				Action:  domain.ActionPasswordRecovery,
				Outcome: domain.AuditFailure,
				Origin:  origin,
				Details: auditDetails(email.String(), "account not found"),
			})
			return generic, nil
		}
		return nil, err
	}

	code, err := s.tokens.GenerateResetCode()
	if err != nil {
		return nil, err
	}

	resetToken := account.GenerateResetToken(s.clock.Now())
	if err := s.update(ctx, account); err != nil {
		return nil, err
	}

	grant := domain.ResetCodeGrant{AccountID: account.ID, ResetToken: resetToken}
	if err := s.resetCodes.Store(ctx, email.String(), code, grant, domain.ResetTokenTTL); err != nil {
		return nil, err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, email.String(), account.FullName, code, domain.ResetTokenTTL); err != nil {
		s.emailFailed(ctx, emailPasswordReset, account, err)
		s.audit.Record(ctx, AuditEvent{
			Action:  domain.ActionPasswordRecovery,
			Outcome: domain.AuditFailure,
			ActorID: account.ID,
			Origin:  origin,
			Details: auditDetails(email.String(), "email delivery failed"),
		})
		return generic, nil
	}

	s.metrics.PasswordRecovery(ctx)
	s.audit.Record(ctx, AuditEvent{
		Action:  domain.ActionPasswordRecovery,
		Outcome: domain.AuditSuccess,
		ActorID: account.ID,
		Origin:  origin,
		Details: auditDetails(email.String(), ""),
	})

	return generic, nil
}

// ConfirmResetCode exchanges an emailed code for the account's reset token
func (s *authService) ConfirmResetCode(ctx context.Context, req *dto.ConfirmResetCodeRequest, origin domain.Origin) (*dto.ResetTokenResponse, error) {
	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidResetCode
	}

	grant, err := s.resetCodes.Consume(ctx, email.String(), req.Code)
	if err != nil {
		return nil, err
	}

	account, err := s.findByID(ctx, grant.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidResetCode
		}
		return nil, err
	}

	if !account.IsResetTokenValid(grant.ResetToken, s.clock.Now()) {
		s.audit.Record(ctx, AuditEvent{
			Action:  domain.ActionPasswordRecovery,
			Outcome: domain.AuditFailure,
			ActorID: account.ID,
			Origin:  origin,
			Details: auditDetails(email.String(), "reset code superseded or expired"),
		})
		return nil, domain.ErrInvalidResetCode
	}

	return &dto.ResetTokenResponse{
		ResetToken: account.Reset.Token,
		ExpiresAt:  account.Reset.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// ResetPassword sets a new password with a valid reset token and signs out every session
func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest, origin domain.Origin) (*dto.SuccessResponse, error) {
	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	now := s.clock.Now()
	if !account.IsResetTokenValid(req.Token, now) {
		s.audit.Record(ctx, AuditEvent{
			Action:  domain.ActionPasswordReset,
			Outcome: domain.AuditFailure,
			ActorID: account.ID,
			Origin:  origin,
			Details: auditDetails(email.String(), "invalid reset token"),
		})
		return nil, domain.ErrInvalidToken
	}

	plain, err := domain.NewPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	hashed, err := plain.Hash(s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := account.ChangePassword(hashed, now); err != nil {
		return nil, err
	}
	if err := s.update(ctx, account); err != nil {
		return nil, err
	}

	if err := s.refreshTokens.DeleteByUserID(ctx, account.ID); err != nil {
		s.logger.Error("Failed to revoke refresh tokens after password reset",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	s.audit.Record(ctx, AuditEvent{
		Action:  domain.ActionPasswordReset,
		Outcome: domain.AuditSuccess,
		ActorID: account.ID,
		Origin:  origin,
		Details: auditDetails(email.String(), ""),
	})

	return &dto.SuccessResponse{Message: resetMessage}, nil
}
