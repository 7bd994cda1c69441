// Package main Controtec API
//
// @title           Controtec API
// @version         1.0
// @description     CRM клиентов и рассылка сообщений через WhatsApp

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      127.0.0.1:5000
// @BasePath  /api/v1
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/magabrotheeeer/controtec/docs"
	"github.com/magabrotheeeer/controtec/internal/app/controtec"
	"github.com/magabrotheeeer/controtec/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	logger.Info("starting controtec", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := controtec.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("controtec stopped gracefully")
}
