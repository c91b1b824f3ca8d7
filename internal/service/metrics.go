package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Login outcomes
const (
	LoginSuccess            = "success"
	LoginAccountNotFound    = "account_not_found"
	LoginInvalidCredentials = "invalid_credentials"
	LoginLocked             = "locked"
)

// Metrics holds the authentication counters
type Metrics struct {
	loginAttempts metric.Int64Counter
	lockouts      metric.Int64Counter
	registrations metric.Int64Counter
	recoveries    metric.Int64Counter
	emailFailures metric.Int64Counter
}

// NewMetrics creates the counters on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.loginAttempts, err = meter.Int64Counter("auth_login_attempts_total",
		metric.WithDescription("Login attempts by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create login counter: %w", err)
	}
	if m.lockouts, err = meter.Int64Counter("auth_account_lockouts_total",
		metric.WithDescription("Accounts locked after repeated failed logins")); err != nil {
		return nil, fmt.Errorf("failed to create lockout counter: %w", err)
	}
	if m.registrations, err = meter.Int64Counter("auth_registrations_total",
		metric.WithDescription("Successful registrations")); err != nil {
		return nil, fmt.Errorf("failed to create registration counter: %w", err)
	}
	if m.recoveries, err = meter.Int64Counter("auth_password_recoveries_total",
		metric.WithDescription("Password recovery codes issued")); err != nil {
		return nil, fmt.Errorf("failed to create recovery counter: %w", err)
	}
	if m.emailFailures, err = meter.Int64Counter("auth_email_failures_total",
		metric.WithDescription("Email dispatch failures by kind")); err != nil {
		return nil, fmt.Errorf("failed to create email failure counter: %w", err)
	}

	return m, nil
}

// NoopMetrics returns counters that record nothing
func NoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

func (m *Metrics) LoginAttempt(ctx context.Context, outcome string) {
	m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) Lockout(ctx context.Context) {
	m.lockouts.Add(ctx, 1)
}

func (m *Metrics) Registration(ctx context.Context) {
	m.registrations.Add(ctx, 1)
}

func (m *Metrics) PasswordRecovery(ctx context.Context) {
	m.recoveries.Add(ctx, 1)
}

func (m *Metrics) EmailFailure(ctx context.Context, kind string) {
	m.emailFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
