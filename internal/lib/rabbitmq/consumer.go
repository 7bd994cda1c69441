package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/controtec/internal/lib/sl"
)

// ConsumerMessage запускает потребителя очереди queueName. Сообщения
// обрабатываются по одному: успех подтверждается, ошибка обработчика
// отклоняет сообщение без возврата в очередь.
// Функция возвращает канал, который закрывается, когда потребитель остановился.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func(context.Context, []byte) error, log *slog.Logger) (<-chan struct{}, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		consume(ctx, delivery, handler, log)
	}()
	return done, nil
}

// acknowledger часть amqp.Delivery для подтверждения.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func consume(ctx context.Context, delivery <-chan amqp.Delivery, handler func(context.Context, []byte) error, log *slog.Logger) {
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			handle(ctx, d, d.Body, handler, log)
		case <-ctx.Done():
			return
		}
	}
}

func handle(ctx context.Context, ack acknowledger, body []byte, handler func(context.Context, []byte) error, log *slog.Logger) {
	if err := handler(ctx, body); err != nil {
		log.Error("failed to handle message", sl.Err(err))
		if nackErr := ack.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
