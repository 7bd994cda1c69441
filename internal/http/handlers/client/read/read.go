// Package read реализует HTTP-обработчик для получения клиента по ID.
package read

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/controtec/internal/http/response"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/models"
)

// Handler обрабатывает запросы на получение клиента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения клиента.
type Service interface {
	Read(ctx context.Context, id int64) (*models.Client, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить клиента
// @Tags Clients
// @Produce  json
// @Param id path int true "ID клиента"
// @Success 200 {object} response.Response "Карточка клиента"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /clients/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	c, err := h.service.Read(r.Context(), id)
	if err != nil {
		log.Error("failed to read client", slog.Int64("id", id), sl.Err(err))
		status, body := response.FromError(err, "could not read client")
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"client": c,
	}))
}
