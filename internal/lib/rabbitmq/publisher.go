package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/controtec/internal/models"
)

// Channel часть amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher ставит исходящие сообщения в очередь вместо прямой отправки.
// Успех означает, что брокер принял сообщение, а не что оно доставлено.
type Publisher struct {
	ch  Channel
	now func() time.Time
}

// NewPublisher создаёт издателя поверх открытого канала.
func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch, now: time.Now}
}

// Send публикует OutboundMessage в очередь исходящих.
func (p *Publisher) Send(ctx context.Context, phone, text string) error {
	const op = "rabbitmq.Publisher.Send"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	msg := models.OutboundMessage{
		MessageID: uuid.NewString(),
		Phone:     phone,
		Text:      text,
		CreatedAt: p.now().UTC(),
	}
	if err := PublishMessage(p.ch, ExchangeMessages, OutboundRoutingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
