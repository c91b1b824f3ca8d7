package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport renders jobs and writes them to the log instead of sending them.
// Used in development when no mail provider is configured.
type LogTransport struct {
	logger *zap.Logger
}

var _ Transport = (*LogTransport)(nil)

// NewLogTransport creates a log transport
func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Deliver(ctx context.Context, job EmailJob) error {
	msg, err := Render(job.Template, job.Data)
	if err != nil {
		return err
	}

	t.logger.Info("Email",
		zap.String("to", job.To),
		zap.String("template", job.Template),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}
