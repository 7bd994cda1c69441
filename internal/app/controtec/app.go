package controtec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/controtec/internal/cache"
	"github.com/magabrotheeeer/controtec/internal/config"
	"github.com/magabrotheeeer/controtec/internal/http/web"
	"github.com/magabrotheeeer/controtec/internal/lib/metrics"
	"github.com/magabrotheeeer/controtec/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/lib/whatsapp"
	"github.com/magabrotheeeer/controtec/internal/migrations"
	clientservice "github.com/magabrotheeeer/controtec/internal/services/client"
	"github.com/magabrotheeeer/controtec/internal/services/dispatch"
	"github.com/magabrotheeeer/controtec/internal/storage/repository"
)

const (
	shutdownTimeout = 15 * time.Second
	readyPoll       = 200 * time.Millisecond
	readyAttempts   = 50
)

// App HTTP-приложение CRM.
type App struct {
	server      *http.Server
	logger      *slog.Logger
	db          *repository.Storage
	closers     []io.Closer
	openBrowser bool
}

// New открывает хранилище, накатывает миграции и собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.controtec.New"

	db, err := repository.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Storage.Migrate {
		if err = migrations.Run(db.DB, db.Driver()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	a := &App{
		logger:      logger,
		db:          db,
		openBrowser: cfg.OpenBrowser,
	}

	var clientCache clientservice.Cache = cache.Nop{}
	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, cacheRedis)
		clientCache = cacheRedis
	} else {
		logger.Info("redis address is empty, cache disabled")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	messenger, err := a.newMessenger(cfg, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	clientService := clientservice.NewService(db, clientCache, logger, cfg.TTL)
	dispatchService := dispatch.NewService(clientService, messenger, m, logger)

	webHandler, err := web.New(logger, clientService, dispatchService)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, Routes{
		Logger:   logger,
		Clients:  clientService,
		Dispatch: dispatchService,
		Health: func(ctx context.Context) error {
			return repository.CheckDatabaseReady(ctx, db)
		},
		Web:     webHandler,
		Metrics: cfg.Metrics.Enabled,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// newMessenger выбирает транспорт: браузер на этой машине или очередь для cmd/sender.
func (a *App) newMessenger(cfg *config.Config, logger *slog.Logger) (dispatch.Messenger, error) {
	if cfg.Transport != "queue" {
		wa := whatsapp.New(cfg.Messenger, logger)
		a.closers = append(a.closers, wa)
		return wa, nil
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetMessageQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// канал закрывается раньше соединения
	a.closers = append(a.closers, ch, conn)
	return rabbitmq.NewPublisher(ch), nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	if a.openBrowser {
		go a.openUI(ctx)
	}

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

// openUI ждёт, пока сервер начнёт отвечать, и открывает интерфейс в браузере по умолчанию.
func (a *App) openUI(ctx context.Context) {
	uiURL := LocalURL(a.server.Addr)
	client := &http.Client{Timeout: time.Second}
	for range readyAttempts {
		if serverReady(ctx, client, uiURL+"api/v1/health") {
			if err := openURL(uiURL); err != nil {
				a.logger.Warn("failed to open browser", slog.String("url", uiURL), sl.Err(err))
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(readyPoll):
		}
	}
	a.logger.Warn("server did not answer, browser not opened", slog.String("url", uiURL))
}

// LocalURL строит адрес интерфейса для адреса прослушивания.
// Пустой или нулевой хост заменяется на 127.0.0.1.
func LocalURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func serverReady(ctx context.Context, client *http.Client, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func openURL(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
