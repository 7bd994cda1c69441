// Package send реализует HTTP-обработчик, запускающий проход рассылки.
//
// Проход идёт синхронно и может занять несколько минут: каждое сообщение
// отправляется примерно через минуту после предыдущего. Поэтому обработчик
// снимает ограничение на время записи ответа и не прерывает проход,
// если клиент закрыл соединение.
package send

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/controtec/internal/http/response"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/models"
)

// Handler запускает рассылку.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс рассылки.
type Service interface {
	Sweep(ctx context.Context) (models.SweepReport, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Разослать сообщения
// @Description Проходит по всем клиентам и отправляет сообщения тем, кому они положены сегодня. Возвращает отчёт с количеством отправленных и списком неудачных получателей.
// @Tags Dispatch
// @Produce  json
// @Success 200 {object} response.Response "Отчёт о рассылке"
// @Failure 500 {object} response.ErrorResponse "Не удалось прочитать клиентов"
// @Router /dispatch [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dispatch.send"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("write deadline not lifted", sl.Err(err))
	}

	report, err := h.service.Sweep(context.WithoutCancel(r.Context()))
	if err != nil {
		log.Error("dispatch failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not dispatch messages"))
		return
	}

	log.Info("dispatch finished",
		slog.String("sweep_id", report.SweepID),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"report": report,
	}))
}
