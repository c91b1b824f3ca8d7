package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prperemyshlev/pagoseguro-auth/internal/config"
	"github.com/prperemyshlev/pagoseguro-auth/internal/mailer"
	"github.com/prperemyshlev/pagoseguro-auth/pkg/observability"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorker(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var transport mailer.Transport
	if cfg.Mailgun.Enabled() {
		transport = mailer.NewMailgun(cfg.Mailgun.Domain, cfg.Mailgun.APIKey, cfg.Mailgun.Sender, cfg.Mailgun.APIBase)
	} else {
		logger.Warn("Mailgun is not configured, emails will only be logged")
		transport = mailer.NewLogTransport(logger)
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", zap.Error(err))
	}
	defer ch.Close()

	worker := mailer.NewWorker(transport, logger)
	if err := worker.Consume(ctx, ch, cfg.RabbitMQ.EmailQueue); err != nil {
		logger.Fatal("Email worker stopped", zap.Error(err))
	}

	logger.Info("Email worker stopped")
}
