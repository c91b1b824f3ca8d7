package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"go.uber.org/zap"
)

// Login authenticates an account by email and password.
// Unknown email and wrong password fail with distinct errors that the HTTP layer
// reports identically; only the audit trail tells them apart.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, origin domain.Origin) (*AuthResult, error) {
	email, err := domain.NewEmail(req.Email)
	if err != nil {
		s.equalizeUnknownAccount(req.Password)
		s.metrics.LoginAttempt(ctx, LoginAccountNotFound)
		s.audit.Record(ctx, AuditEvent{
			Action:  domain.ActionLogin,
			Outcome: domain.AuditFailure,
			Origin:  origin,
			Details: auditDetails(req.Email, "account not found"),
		})
		return nil, domain.ErrAccountNotFound
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.equalizeUnknownAccount(req.Password)
			s.metrics.LoginAttempt(ctx, LoginAccountNotFound)
			s.audit.Record(ctx, AuditEvent{
				Action:  domain.ActionLogin,
				Outcome: domain.AuditFailure,
				Origin:  origin,
				Details: auditDetails(email.String(), "account not found"),
			})
		}
		return nil, err
	}

	now := s.clock.Now()
	blocked, changed := account.EvaluateLockout(now)
	if blocked {
		s.metrics.LoginAttempt(ctx, LoginLocked)
		s.audit.Record(ctx, AuditEvent{
			Action:  domain.ActionLogin,
			Outcome: domain.AuditFailure,
			ActorID: account.ID,
			Origin:  origin,
			Details: auditDetails(email.String(), "account locked"),
		})
		return nil, &domain.AccountLockedError{Until: *account.BlockedUntil}
	}
	if changed {
		if err := s.update(ctx, account); err != nil {
			return nil, err
		}
	}

	match, err := account.Password.Compare(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	if !match {
		return nil, s.loginFailed(ctx, account, origin)
	}

	account.UpdateLastLogin(now)
	if err := s.update(ctx, account); err != nil {
		return nil, err
	}

	result, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.metrics.LoginAttempt(ctx, LoginSuccess)
	s.audit.Record(ctx, AuditEvent{
		Action:  domain.ActionLogin,
		Outcome: domain.AuditSuccess,
		ActorID: account.ID,
		Origin:  origin,
		Details: auditDetails(email.String(), ""),
	})

	return result, nil
}

// loginFailed counts a wrong password and locks the account on the last allowed attempt
func (s *authService) loginFailed(ctx context.Context, account *domain.Account, origin domain.Origin) error {
	lockedNow := account.IncrementLoginAttempts(s.clock.Now())
	if err := s.update(ctx, account); err != nil {
		return err
	}

	if lockedNow {
		s.metrics.Lockout(ctx)
		s.logger.Warn("Account locked after failed logins", zap.String("account_id", account.ID))
		if err := s.mailer.SendAccountBlockedEmail(ctx, account.Email.String(), account.FullName, *account.BlockedUntil); err != nil {
			s.emailFailed(ctx, emailAccountBlocked, account, err)
		}
	}

	s.metrics.LoginAttempt(ctx, LoginInvalidCredentials)
	s.audit.Record(ctx, AuditEvent{
		Action:  domain.ActionLogin,
		Outcome: domain.AuditFailure,
		ActorID: account.ID,
		Origin:  origin,
		Details: auditDetails(account.Email.String(), "invalid password"),
	})

	return domain.ErrInvalidCredentials
}
