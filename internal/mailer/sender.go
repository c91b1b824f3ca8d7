// Package mailer delivers account emails. A JobSender turns each notification
// into an EmailJob and hands it to a Transport: the RabbitMQ queue, Mailgun
// directly, or the log.
package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Sender is the email capability used by the authentication use cases
type Sender interface {
	SendVerificationEmail(ctx context.Context, to, name, token string) error
	SendPasswordResetEmail(ctx context.Context, to, name, code string, ttl time.Duration) error
	SendWelcomeEmail(ctx context.Context, to, name string) error
	SendAccountBlockedEmail(ctx context.Context, to, name string, until time.Time) error
}

// Transport delivers a single job
type Transport interface {
	Deliver(ctx context.Context, job EmailJob) error
}

// Options configures the data common to every email
type Options struct {
	AppName     string
	FrontendURL string
}

// JobSender implements Sender on top of a Transport
type JobSender struct {
	transport Transport
	opts      Options
}

var _ Sender = (*JobSender)(nil)

// NewJobSender creates a sender delivering through transport
func NewJobSender(transport Transport, opts Options) *JobSender {
	if opts.AppName == "" {
		opts.AppName = "PagoSeguro"
	}
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")
	return &JobSender{transport: transport, opts: opts}
}

func (s *JobSender) SendVerificationEmail(ctx context.Context, to, name, token string) error {
	q := url.Values{}
	q.Set("email", to)
	q.Set("token", token)

	return s.send(ctx, to, TemplateVerifyEmail, map[string]any{
		"Name":      name,
		"Token":     token,
		"VerifyURL": s.opts.FrontendURL + "/verify-email?" + q.Encode(),
	})
}

func (s *JobSender) SendPasswordResetEmail(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return s.send(ctx, to, TemplatePasswordReset, map[string]any{
		"Name":      name,
		"Code":      code,
		"ExpiresIn": fmt.Sprintf("%d minutes", int(ttl.Minutes())),
	})
}

func (s *JobSender) SendWelcomeEmail(ctx context.Context, to, name string) error {
	return s.send(ctx, to, TemplateWelcome, map[string]any{
		"Name": name,
	})
}

func (s *JobSender) SendAccountBlockedEmail(ctx context.Context, to, name string, until time.Time) error {
	return s.send(ctx, to, TemplateAccountBlocked, map[string]any{
		"Name":  name,
		"Until": until.UTC().Format(time.RFC1123),
	})
}

func (s *JobSender) send(ctx context.Context, to, template string, data map[string]any) error {
	data["AppName"] = s.opts.AppName

	if err := s.transport.Deliver(ctx, EmailJob{To: to, Template: template, Data: data}); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	return nil
}
