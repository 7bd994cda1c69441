// Package health реализует проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/controtec/internal/http/response"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
)

// Handler отвечает на проверку здоровья.
type Handler struct {
	log   *slog.Logger
	check func(ctx context.Context) error
}

// New создает Handler. check проверяет доступность хранилища.
func New(log *slog.Logger, check func(ctx context.Context) error) *Handler {
	return &Handler{
		log:   log,
		check: check,
	}
}

// ServeHTTP godoc
// @Summary Проверка здоровья
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response "Сервис готов"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if err := h.check(r.Context()); err != nil {
		h.log.Error("storage is not ready", slog.String("op", op), sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("storage unavailable"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "ok",
	}))
}
