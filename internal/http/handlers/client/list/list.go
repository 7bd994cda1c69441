// Package list реализует HTTP-обработчик для получения списка клиентов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/controtec/internal/http/response"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/models"
)

// Handler обрабатывает запросы на список клиентов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка клиентов.
type Service interface {
	List(ctx context.Context) ([]*models.Client, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список клиентов
// @Description Возвращает всех клиентов по алфавиту.
// @Tags Clients
// @Produce  json
// @Success 200 {object} response.Response "Список клиентов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /clients [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	clients, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list clients", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list clients"))
		return
	}
	if clients == nil {
		clients = []*models.Client{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"clients": clients,
		"total":   len(clients),
	}))
}
