// Package update реализует HTTP-обработчик для изменения карточки клиента.
//
// Все поля карточки перезаписываются значениями из запроса.
// Телефон, занятый другим клиентом, даёт 409.
package update

import (
	"context"
	"encoding/json"
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

// Handler обрабатывает запросы на обновление клиента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обновления клиента.
type Service interface {
	Update(ctx context.Context, id int64, req models.DummyClient) (*models.Client, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Обновить клиента
// @Tags Clients
// @Accept  json
// @Produce  json
// @Param id path int true "ID клиента"
// @Param request body models.DummyClient true "Новые данные клиента"
// @Success 200 {object} response.Response "Обновлённая карточка"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID или JSON"
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 409 {object} response.ErrorResponse "Телефон уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /clients/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.update"
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

	var req models.DummyClient
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update client", slog.Int64("id", id), sl.Err(err))
		status, body := response.FromError(err, "could not update client")
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	log.Info("client updated", slog.Int64("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"client": c,
	}))
}
