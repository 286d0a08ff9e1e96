// Пакет server — HTTP-сервер витрины с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на реверс-прокси.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zolotnik/goldshop/internal/config"
	"github.com/zolotnik/goldshop/internal/web/middleware"
	"github.com/zolotnik/goldshop/internal/web/session"
	"github.com/zolotnik/goldshop/internal/web/static"
)

// Server — HTTP-сервер витрины.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер: собирает роутер из таблицы маршрутов,
// применяет middleware и монтирует всё под базовым путём приложения.
func New(cfg *config.Config, logger *slog.Logger, sessions *session.Manager, remember middleware.RememberStore, h Handlers) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.Recoverer(logger, cfg.AppDebug))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	sub := buildRouter(cfg, logger, sessions, remember, h)

	if cfg.BasePath == "" {
		router.Mount("/", sub)
	} else {
		router.Mount(cfg.BasePath, sub)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// buildRouter монтирует таблицу маршрутов с проверками сессии и ролей.
func buildRouter(cfg *config.Config, logger *slog.Logger, sessions *session.Manager, remember middleware.RememberStore, h Handlers) chi.Router {
	sub := chi.NewRouter()

	sessionAuth := middleware.NewSessionAuth(sessions, remember, cfg.BasePath+"/login", logger).Middleware()

	for _, rt := range Routes(h) {
		handler := http.Handler(rt.Handler)
		if rt.Roles != accessPublic {
			handler = sessionAuth(middleware.RequireRole(rt.Roles)(handler))
		}
		sub.Method(rt.Method, rt.Pattern, handler)
	}

	// Статические ресурсы из бинарника
	sub.Handle("/static/*", http.StripPrefix(cfg.BasePath+"/static/",
		http.FileServer(static.FileSystem())))

	// Неизвестный путь — страница 404 витрины
	sub.NotFound(h.Products.NotFoundPage)

	return sub
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
			slog.String("base_path", s.cfg.BasePath),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
