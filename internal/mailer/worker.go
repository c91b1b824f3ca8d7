package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	workerPrefetch    = 16
	workerSendTimeout = 15 * time.Second

	// MaxDeliveryAttempts bounds how often a failing job is retried before it is dead-lettered
	MaxDeliveryAttempts = 5
	attemptsHeader      = "x-delivery-attempts"
	retryBackoffBase    = 2 * time.Second
	retryBackoffMax     = time.Minute
)

type step int

const (
	stepAck step = iota
	stepRetry
	stepDeadLetter
)

// Worker consumes email jobs from the queue and hands them to a Transport
type Worker struct {
	transport Transport
	logger    *zap.Logger
}

// NewWorker creates a worker delivering through transport
func NewWorker(transport Transport, logger *zap.Logger) *Worker {
	return &Worker{transport: transport, logger: logger}
}

// Consume reads from queue on ch until ctx is done or the delivery channel closes
func (w *Worker) Consume(ctx context.Context, ch *amqp.Channel, queue string) error {
	if err := ch.Qos(workerPrefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}
	if err := DeclareQueue(ch, queue); err != nil {
		return err
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", queue, err)
	}

	w.logger.Info("Email worker listening", zap.String("queue", queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			ack, retryable := w.Handle(ctx, d.Body)
			attempts := deliveryAttempts(d.Headers) + 1

			switch nextStep(ack, retryable, attempts) {
			case stepAck:
				_ = d.Ack(false)
			case stepRetry:
				if err := w.retry(ctx, ch, queue, d, attempts); err != nil {
					w.logger.Error("Failed to schedule email retry", zap.Int("attempt", attempts), zap.Error(err))
					_ = d.Nack(false, true)
				}
			case stepDeadLetter:
				w.logger.Warn("Dead-lettering email job", zap.Int("attempts", attempts))
				_ = d.Nack(false, false)
			}
		}
	}
}

// Handle processes one message body. Malformed jobs are not retryable; delivery
// failures are, up to MaxDeliveryAttempts.
func (w *Worker) Handle(ctx context.Context, body []byte) (ack, retryable bool) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.Warn("Dropping malformed email job", zap.Error(err))
		return false, false
	}
	if job.To == "" || job.Template == "" {
		w.logger.Warn("Dropping incomplete email job", zap.String("template", job.Template))
		return false, false
	}

	sendCtx, cancel := context.WithTimeout(ctx, workerSendTimeout)
	defer cancel()

	if err := w.transport.Deliver(sendCtx, job); err != nil {
		w.logger.Error("Failed to deliver email",
			zap.String("to", job.To),
			zap.String("template", job.Template),
			zap.Error(err),
		)
		return false, true
	}

	w.logger.Info("Email delivered", zap.String("to", job.To), zap.String("template", job.Template))
	return true, false
}

func nextStep(ack, retryable bool, attempts int) step {
	switch {
	case ack:
		return stepAck
	case retryable && attempts < MaxDeliveryAttempts:
		return stepRetry
	default:
		return stepDeadLetter
	}
}

// retry waits out the backoff, republishes the job with the attempt count and acks the original
func (w *Worker) retry(ctx context.Context, ch *amqp.Channel, queue string, d amqp.Delivery, attempts int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryBackoff(attempts)):
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[attemptsHeader] = int32(attempts)

	err := ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Headers:      headers,
		Body:         d.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to republish email job: %w", err)
	}

	return d.Ack(false)
}

func retryBackoff(attempts int) time.Duration {
	backoff := retryBackoffBase
	for i := 1; i < attempts; i++ {
		backoff *= 2
		if backoff >= retryBackoffMax {
			return retryBackoffMax
		}
	}
	return backoff
}

func deliveryAttempts(headers amqp.Table) int {
	switch v := headers[attemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
