package service

import (
	"context"
	"errors"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
)

const (
	verifiedMessage        = "Email verified successfully."
	alreadyVerifiedMessage = "Email is already verified."
	resendMessage          = "If the account exists and is not verified, a new verification email has been sent."
)

// VerifyEmail consumes the verification token and activates the account
func (s *authService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest, origin domain.Origin) (*dto.SuccessResponse, error) {
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

	if account.EmailVerified {
		return &dto.SuccessResponse{Message: alreadyVerifiedMessage}, nil
	}

	if !account.IsVerificationTokenValid(req.Token) {
		s.audit.Record(ctx, AuditEvent{
			Action:  domain.ActionVerifyEmail,
			Outcome: domain.AuditFailure,
			ActorID: account.ID,
			Origin:  origin,
			Details: auditDetails(email.String(), "invalid verification token"),
		})
		return nil, domain.ErrInvalidToken
	}

	account.VerifyEmail(s.clock.Now())
	if err := s.update(ctx, account); err != nil {
		return nil, err
	}

	if err := s.mailer.SendWelcomeEmail(ctx, email.String(), account.FullName); err != nil {
		s.emailFailed(ctx, emailWelcome, account, err)
	}

	s.audit.Record(ctx, AuditEvent{
		Action:  domain.ActionVerifyEmail,
		Outcome: domain.AuditSuccess,
		ActorID: account.ID,
		Origin:  origin,
		Details: auditDetails(email.String(), ""),
	})

	return &dto.SuccessResponse{Message: verifiedMessage}, nil
}

// ResendVerification issues a fresh verification token for an unverified account
func (s *authService) ResendVerification(ctx context.Context, req *dto.ResendVerificationRequest, origin domain.Origin) (*dto.SuccessResponse, error) {
	generic := &dto.SuccessResponse{Message: resendMessage}

	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return generic, nil
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return generic, nil
		}
		return nil, err
	}

	if account.EmailVerified {
		return generic, nil
	}

	token := account.GenerateVerificationToken(s.clock.Now())
	if err := s.update(ctx, account); err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationEmail(ctx, email.String(), account.FullName, token); err != nil {
		s.emailFailed(ctx, emailVerification, account, err)
	}

	return generic, nil
}
