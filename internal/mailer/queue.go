package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueuePublisher publishes jobs to a durable RabbitMQ queue for the email worker
type QueuePublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

var _ Transport = (*QueuePublisher)(nil)

// NewQueuePublisher dials RabbitMQ and declares the queue
func NewQueuePublisher(url, queue string) (*QueuePublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &QueuePublisher{conn: conn, ch: ch, queue: queue}, nil
}

// DeadLetterQueue names the queue receiving jobs rejected from queue
func DeadLetterQueue(queue string) string {
	return queue + ".dead"
}

// DeclareQueue declares the durable email queue on ch together with its dead-letter queue
func DeclareQueue(ch *amqp.Channel, queue string) error {
	dead := DeadLetterQueue(queue)
	if _, err := ch.QueueDeclare(dead, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", dead, err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dead,
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return nil
}

// Deliver publishes the job as a persistent JSON message
func (p *QueuePublisher) Deliver(ctx context.Context, job EmailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode email job: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish email job: %w", err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *QueuePublisher) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
