// Package create реализует HTTP-обработчик для добавления клиента.
//
// Handler принимает JSON с карточкой клиента, передаёт её сервису
// и возвращает ID созданной записи.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/controtec/internal/http/response"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/models"
)

// Handler обрабатывает запросы на создание клиента.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики клиентов
}

// Service описывает интерфейс бизнес-логики создания клиента.
type Service interface {
	Create(ctx context.Context, req models.DummyClient) (int64, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Добавить клиента
// @Description Создаёт карточку клиента. Телефон должен быть уникальным.
// @Tags Clients
// @Accept  json
// @Produce  json
// @Param request body models.DummyClient true "Данные клиента"
// @Success 201 {object} response.Response "Клиент создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Телефон уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /clients [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyClient
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create client", sl.Err(err))
		status, body := response.FromError(err, "could not create client")
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	log.Info("client created", slog.Int64("id", id))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}
