package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/dto"
	"github.com/prperemyshlev/pagoseguro-auth/internal/repository"
)

const registerMessage = "Registration successful. Please check your email to verify your account."

// Register creates a customer account in pending verification and emails a verification link
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, origin domain.Origin) (*dto.RegisterResponse, error) {
	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return nil, err
	}

	exists, err := s.accounts.ExistsByEmail(ctx, email.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check account existence: %w", err)
	}
	if exists {
		return nil, s.registerDuplicate(ctx, email.String(), "email", email.String(), origin)
	}

	if req.NationalID != nil && *req.NationalID != "" {
		exists, err := s.accounts.ExistsByNationalID(ctx, *req.NationalID)
		if err != nil {
			return nil, fmt.Errorf("failed to check account existence: %w", err)
		}
		if exists {
			return nil, s.registerDuplicate(ctx, email.String(), "national_id", *req.NationalID, origin)
		}
	}

	account, err := s.factory.New(domain.NewAccountParams{
		Email:      email.String(),
		Password:   req.Password,
		FullName:   req.FullName,
		Role:       domain.RoleCustomer,
		NationalID: req.NationalID,
		Phone:      req.Phone,
		Address:    req.Address,
	})
	if err != nil {
		return nil, err
	}

	verificationToken := account.GenerateVerificationToken(s.clock.Now())

	if err := s.accounts.Save(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, s.registerDuplicate(ctx, email.String(), "email", email.String(), origin)
		case errors.Is(err, repository.ErrDuplicateNationalID):
			return nil, s.registerDuplicate(ctx, email.String(), "national_id", *req.NationalID, origin)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, account.Email.String(), account.FullName, verificationToken); err != nil {
		s.emailFailed(ctx, emailVerification, account, err)
	}

	s.metrics.Registration(ctx)
	s.audit.Record(ctx, AuditEvent{
		Action:  domain.ActionRegister,
		Outcome: domain.AuditSuccess,
		ActorID: account.ID,
		Origin:  origin,
		Details: map[string]any{"email": account.Email.String(), "role": string(account.Role)},
	})

	return &dto.RegisterResponse{
		UserID:  account.ID,
		Message: registerMessage,
	}, nil
}

func (s *authService) registerDuplicate(ctx context.Context, email, field, value string, origin domain.Origin) error {
	s.audit.Record(ctx, AuditEvent{
		Action:  domain.ActionRegister,
		Outcome: domain.AuditFailure,
		Origin:  origin,
		Details: auditDetails(email, field+" already registered"),
	})
	return &domain.DuplicateAccountError{Field: field, Value: value}
}
