// Package remove реализует HTTP-обработчик для удаления клиента по ID.
package remove

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
)

// Handler обрабатывает запросы на удаление клиента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления клиента.
type Service interface {
	Remove(ctx context.Context, id int64) error
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить клиента
// @Tags Clients
// @Produce  json
// @Param id path int true "ID клиента"
// @Success 200 {object} response.Response "Клиент удалён"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /clients/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.remove"
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

	if err := h.service.Remove(r.Context(), id); err != nil {
		log.Error("failed to remove client", slog.Int64("id", id), sl.Err(err))
		status, body := response.FromError(err, "could not remove client")
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	log.Info("client removed", slog.Int64("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_id": id,
	}))
}
