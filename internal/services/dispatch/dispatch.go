// Package dispatch проходит по всем клиентам и отправляет сообщения тем,
// кому они положены сегодня.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/controtec/internal/lib/message"
	"github.com/magabrotheeeer/controtec/internal/lib/metrics"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/models"
)

// Lister возвращает клиентов для прохода.
type Lister interface {
	List(ctx context.Context) ([]*models.Client, error)
}

// Messenger отправляет одно сообщение на номер телефона.
type Messenger interface {
	Send(ctx context.Context, phone, text string) error
}

// Service выполняет проходы рассылки. Одновременно идёт не больше одного прохода.
type Service struct {
	clients   Lister
	messenger Messenger
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewService создаёт сервис рассылки. metrics может быть nil.
func NewService(clients Lister, messenger Messenger, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		clients:   clients,
		messenger: messenger,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Sweep отправляет каждому подходящему клиенту одно сообщение, строго по очереди.
// Ошибка отправки не прерывает проход: имя клиента (или ID, если имени нет)
// попадает в FailedRecipients. Ошибку возвращает только сбой чтения списка
// или отмена ctx; в последнем случае отчёт содержит уже обработанных клиентов.
func (s *Service) Sweep(ctx context.Context) (models.SweepReport, error) {
	const op = "services.dispatch.Sweep"

	s.mu.Lock()
	defer s.mu.Unlock()

	report := models.SweepReport{
		SweepID:   uuid.NewString(),
		StartedAt: s.now(),
	}
	log := s.log.With(slog.String("op", op), slog.String("sweep_id", report.SweepID))

	clients, err := s.clients.List(ctx)
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}
	report.Total = len(clients)
	today := report.StartedAt

	for _, c := range clients {
		text := message.Compose(*c, today)
		if text == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warn("sweep interrupted", slog.Int("sent", report.Sent), sl.Err(err))
			s.finish(&report)
			return report, fmt.Errorf("%s: %w", op, err)
		}
		report.Eligible++

		if err := s.messenger.Send(ctx, c.Phone, text); err != nil {
			log.Error("failed to send message",
				slog.Int64("client_id", c.ID), sl.Phone(c.Phone), sl.Err(err))
			report.Failed++
			report.FailedRecipients = append(report.FailedRecipients, recipient(c))
			continue
		}
		log.Info("message sent", slog.Int64("client_id", c.ID), sl.Phone(c.Phone))
		report.Sent++
	}

	s.finish(&report)
	log.Info("sweep finished",
		slog.Int("total", report.Total),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed))
	return report, nil
}

func (s *Service) finish(r *models.SweepReport) {
	r.FinishedAt = s.now()
	s.metrics.ObserveSweep(r.Sent, r.Failed, r.FinishedAt.Sub(r.StartedAt))
}

func recipient(c *models.Client) string {
	if c.Name != "" {
		return c.Name
	}
	return strconv.FormatInt(c.ID, 10)
}
