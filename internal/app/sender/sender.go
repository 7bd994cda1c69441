// Package sender собирает воркер, который забирает сообщения из очереди
// исходящих и отправляет их через WhatsApp Web.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/controtec/internal/config"
	"github.com/magabrotheeeer/controtec/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/lib/whatsapp"
	senderservice "github.com/magabrotheeeer/controtec/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	messenger     *whatsapp.Messenger
	senderService *senderservice.Service
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: rabbitmq.url is required", op)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetMessageQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	messenger := whatsapp.New(cfg.Messenger, logger)
	senderService := senderservice.NewService(messenger, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		messenger:     messenger,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	done, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.OutboundQueue, a.senderService.HandleOutbound, a.logger)
	if err != nil {
		a.logger.Error("failed to start outbound consumer", sl.Err(err))
		a.close()
		return err
	}

	select {
	case <-ctx.Done():
		a.logger.Info("Sender service shutting down gracefully")
	case <-done:
		a.logger.Warn("outbound consumer stopped")
	}
	// текущая отправка завершается до закрытия канала
	<-done
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.messenger.Close(); err != nil {
		a.logger.Error("failed to close browser", sl.Err(err))
	}
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
