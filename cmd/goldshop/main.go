// Точка входа витрины «Золотник» — ювелирного интернет-магазина.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// собирает репозитории, менеджеры аутентификации и сессий, обработчики
// и запускает HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/zolotnik/goldshop/internal/auth"
	"github.com/zolotnik/goldshop/internal/config"
	"github.com/zolotnik/goldshop/internal/database"
	"github.com/zolotnik/goldshop/internal/repository"
	"github.com/zolotnik/goldshop/internal/server"
	"github.com/zolotnik/goldshop/internal/web/handlers"
	"github.com/zolotnik/goldshop/internal/web/session"
	"github.com/zolotnik/goldshop/internal/web/views"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Золотник запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("env", cfg.AppEnv),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Репозитории
	productRepo := repository.NewProductRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	marginRepo := repository.NewMarginRepository(pool)
	contactRepo := repository.NewContactRepository(pool)

	// 6. Менеджер аутентификации
	authMgr := auth.NewManager(pool, userRepo, roleRepo, cfg, logger)

	// 7. Менеджер сессий (AES-256-GCM cookie)
	sessionMgr, err := session.NewManager(cfg)
	if err != nil {
		logger.Error("Ошибка создания менеджера сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("GS_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	// 8. Рендерер HTML-страниц
	renderer, err := views.NewRenderer(cfg.AppName, logger)
	if err != nil {
		logger.Error("Ошибка инициализации шаблонов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Обработчики
	h := server.Handlers{
		Dashboard: handlers.NewDashboardHandler(productRepo, userRepo, marginRepo,
			renderer, sessionMgr, cfg.BasePath, logger),
		Products: handlers.NewProductsHandler(productRepo, marginRepo,
			renderer, sessionMgr, cfg.BasePath, logger),
		Auth: handlers.NewAuthHandler(authMgr,
			renderer, sessionMgr, cfg.BasePath, logger),
		Users: handlers.NewUsersHandler(userRepo, roleRepo,
			renderer, sessionMgr, cfg.BasePath, logger),
		Contact: handlers.NewContactHandler(contactRepo,
			renderer, sessionMgr, cfg.BasePath, logger),
		Health: handlers.NewHealthHandler(database.NewReadinessChecker(pool)),
	}

	// 10. Запуск HTTP-сервера
	srv := server.New(cfg, logger, sessionMgr, authMgr, h)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Золотник остановлен")
}
