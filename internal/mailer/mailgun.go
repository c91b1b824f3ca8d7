package mailer

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const mailgunSendTimeout = 10 * time.Second

// Mailgun renders jobs and sends them through the Mailgun API
type Mailgun struct {
	client *mg.MailgunImpl
	sender string
}

var _ Transport = (*Mailgun)(nil)

// NewMailgun creates a Mailgun transport. apiBase overrides the API endpoint when set, e.g. for the EU region.
func NewMailgun(domain, apiKey, sender, apiBase string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if apiBase != "" {
		client.SetAPIBase(apiBase)
	}
	return &Mailgun{client: client, sender: sender}
}

// Deliver renders the job template and sends it
func (m *Mailgun) Deliver(ctx context.Context, job EmailJob) error {
	msg, err := Render(job.Template, job.Data)
	if err != nil {
		return err
	}

	message := m.client.NewMessage(m.sender, msg.Subject, msg.Text, job.To)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}

	ctx, cancel := context.WithTimeout(ctx, mailgunSendTimeout)
	defer cancel()

	if _, _, err := m.client.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", job.To, err)
	}
	return nil
}
