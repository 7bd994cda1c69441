// Package controtec собирает HTTP-приложение CRM: JSON API, HTML-интерфейс,
// метрики и документацию.
package controtec

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/controtec/internal/http/handlers/client/create"
	"github.com/magabrotheeeer/controtec/internal/http/handlers/client/list"
	"github.com/magabrotheeeer/controtec/internal/http/handlers/client/read"
	"github.com/magabrotheeeer/controtec/internal/http/handlers/client/remove"
	"github.com/magabrotheeeer/controtec/internal/http/handlers/client/update"
	"github.com/magabrotheeeer/controtec/internal/http/handlers/dispatch/send"
	"github.com/magabrotheeeer/controtec/internal/http/handlers/health"
	"github.com/magabrotheeeer/controtec/internal/http/web"
)

// ClientService объединяет операции над карточками клиентов.
type ClientService interface {
	create.Service
	read.Service
	update.Service
	remove.Service
	list.Service
}

// Routes содержит зависимости, нужные для регистрации маршрутов.
type Routes struct {
	Logger   *slog.Logger
	Clients  ClientService
	Dispatch send.Service
	Health   func(ctx context.Context) error
	Web      *web.Handler
	Metrics  bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, deps Routes) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/clients", create.New(deps.Logger, deps.Clients).ServeHTTP)
		r.Get("/clients", list.New(deps.Logger, deps.Clients).ServeHTTP)
		r.Get("/clients/{id}", read.New(deps.Logger, deps.Clients).ServeHTTP)
		r.Put("/clients/{id}", update.New(deps.Logger, deps.Clients).ServeHTTP)
		r.Delete("/clients/{id}", remove.New(deps.Logger, deps.Clients).ServeHTTP)
		r.Post("/dispatch", send.New(deps.Logger, deps.Dispatch).ServeHTTP)
		r.Get("/health", health.New(deps.Logger, deps.Health).ServeHTTP)
	})

	// HTML-интерфейс
	deps.Web.Routes(r)

	if deps.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
