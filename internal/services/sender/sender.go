// Package sender доставляет сообщения из очереди исходящих через мессенджер.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/models"
)

// ErrMalformedMessage возвращается для сообщений, которые нельзя доставить.
var ErrMalformedMessage = errors.New("malformed outbound message")

// Messenger отправляет одно сообщение на номер телефона.
type Messenger interface {
	Send(ctx context.Context, phone, text string) error
}

// Service разбирает сообщения из очереди и передаёт их мессенджеру.
type Service struct {
	messenger Messenger
	log       *slog.Logger
}

// NewService создаёт сервис отправителя.
func NewService(messenger Messenger, log *slog.Logger) *Service {
	return &Service{
		messenger: messenger,
		log:       log,
	}
}

// HandleOutbound обрабатывает тело одного сообщения из очереди.
func (s *Service) HandleOutbound(ctx context.Context, body []byte) error {
	const op = "services.sender.HandleOutbound"

	var msg models.OutboundMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrMalformedMessage, err)
	}
	if strings.TrimSpace(msg.Phone) == "" || msg.Text == "" {
		s.log.Error("message without phone or text", slog.String("message_id", msg.MessageID))
		return fmt.Errorf("%s: %w", op, ErrMalformedMessage)
	}

	log := s.log.With(slog.String("message_id", msg.MessageID), sl.Phone(msg.Phone))
	if err := s.messenger.Send(ctx, msg.Phone, msg.Text); err != nil {
		log.Error("failed to deliver message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("message delivered")
	return nil
}
