// Пакет config — загрузка и валидация конфигурации приложения
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации приложения.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Базовый префикс путей (например, "/shop"); пустой — корень
	BasePath string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration

	// --- Приложение ---

	// Название магазина (отображается в шапке страниц)
	AppName string
	// Окружение: development или production
	AppEnv string
	// Режим отладки: стек-трейсы на странице 500
	AppDebug bool
	// Внешний URL приложения (для ссылок в письмах)
	AppURL string
	// Часовой пояс приложения
	AppTimezone string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимум подключений в пуле
	DBMaxConns int
	// Время жизни подключения в пуле
	DBConnLifetime time.Duration

	// --- Сессии ---

	// Секрет шифрования cookie сессий (AES-256-GCM)
	SessionSecret string
	// Время жизни сессии
	SessionLifetime time.Duration
	// Path атрибут cookie сессии
	SessionPath string
	// Domain атрибут cookie сессии (пустой — текущий хост)
	SessionDomain string
	// Secure флаг cookie сессии
	SessionSecure bool
	// HttpOnly флаг cookie сессии
	SessionHTTPOnly bool

	// --- Аутентификация ---

	// Максимум неудачных попыток входа до блокировки
	AuthMaxAttempts int
	// Длительность блокировки после исчерпания попыток
	AuthLockout time.Duration
	// Время жизни токена сброса пароля
	AuthResetTTL time.Duration
	// Секрет подписи токенов сброса пароля (HS256)
	AuthResetSecret string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// GS_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("GS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("GS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("GS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// GS_BASE_PATH — базовый префикс путей (по умолчанию пустой)
	cfg.BasePath = getEnvDefault("GS_BASE_PATH", "")
	if cfg.BasePath != "" {
		if !strings.HasPrefix(cfg.BasePath, "/") {
			cfg.BasePath = "/" + cfg.BasePath
		}
		cfg.BasePath = strings.TrimRight(cfg.BasePath, "/")
	}

	// GS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("GS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("GS_LOG_LEVEL: %w", err)
	}

	// GS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("GS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("GS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// GS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("GS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GS_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Приложение ---

	// GS_APP_NAME — название магазина (по умолчанию "Золотник")
	cfg.AppName = getEnvDefault("GS_APP_NAME", "Золотник")

	// GS_APP_ENV — окружение (по умолчанию production)
	cfg.AppEnv = getEnvDefault("GS_APP_ENV", "production")
	if cfg.AppEnv != "development" && cfg.AppEnv != "production" {
		return nil, fmt.Errorf("GS_APP_ENV: недопустимое значение %q, допустимые: development, production", cfg.AppEnv)
	}

	// GS_APP_DEBUG — режим отладки (по умолчанию true только в development)
	cfg.AppDebug, err = getEnvBool("GS_APP_DEBUG", cfg.AppEnv == "development")
	if err != nil {
		return nil, fmt.Errorf("GS_APP_DEBUG: %w", err)
	}

	// GS_APP_URL — внешний URL (по умолчанию http://localhost:<port>)
	cfg.AppURL = getEnvDefault("GS_APP_URL", fmt.Sprintf("http://localhost:%d", cfg.Port))
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")

	// GS_APP_TIMEZONE — часовой пояс (по умолчанию Europe/Moscow)
	cfg.AppTimezone = getEnvDefault("GS_APP_TIMEZONE", "Europe/Moscow")
	if _, tzErr := time.LoadLocation(cfg.AppTimezone); tzErr != nil {
		return nil, fmt.Errorf("GS_APP_TIMEZONE: неизвестный часовой пояс %q", cfg.AppTimezone)
	}

	// --- PostgreSQL ---

	// GS_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("GS_DB_HOST")
	if err != nil {
		return nil, err
	}

	// GS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("GS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("GS_DB_PORT: %w", err)
	}

	// GS_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("GS_DB_NAME")
	if err != nil {
		return nil, err
	}

	// GS_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("GS_DB_USER")
	if err != nil {
		return nil, err
	}

	// GS_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("GS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// GS_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("GS_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("GS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// GS_DB_MAX_CONNS — максимум подключений в пуле (по умолчанию 8)
	cfg.DBMaxConns, err = getEnvInt("GS_DB_MAX_CONNS", 8)
	if err != nil {
		return nil, fmt.Errorf("GS_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("GS_DB_MAX_CONNS: значение %d должно быть положительным", cfg.DBMaxConns)
	}

	// GS_DB_CONN_LIFETIME — время жизни подключения (по умолчанию 30m)
	cfg.DBConnLifetime, err = getEnvDuration("GS_DB_CONN_LIFETIME", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("GS_DB_CONN_LIFETIME: %w", err)
	}

	// --- Сессии ---

	// GS_SESSION_SECRET — секрет шифрования сессий (опционально,
	// при отсутствии генерируется случайный ключ на время жизни процесса)
	cfg.SessionSecret = getEnvDefault("GS_SESSION_SECRET", "")

	// GS_SESSION_LIFETIME — время жизни сессии (по умолчанию 24h)
	cfg.SessionLifetime, err = getEnvDuration("GS_SESSION_LIFETIME", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("GS_SESSION_LIFETIME: %w", err)
	}

	// GS_SESSION_PATH — Path атрибут cookie (по умолчанию "/")
	cfg.SessionPath = getEnvDefault("GS_SESSION_PATH", "/")

	// GS_SESSION_DOMAIN — Domain атрибут cookie (по умолчанию пустой)
	cfg.SessionDomain = getEnvDefault("GS_SESSION_DOMAIN", "")

	// GS_SESSION_SECURE — Secure флаг (по умолчанию true если GS_APP_URL https)
	cfg.SessionSecure, err = getEnvBool("GS_SESSION_SECURE", strings.HasPrefix(cfg.AppURL, "https"))
	if err != nil {
		return nil, fmt.Errorf("GS_SESSION_SECURE: %w", err)
	}

	// GS_SESSION_HTTPONLY — HttpOnly флаг (по умолчанию true)
	cfg.SessionHTTPOnly, err = getEnvBool("GS_SESSION_HTTPONLY", true)
	if err != nil {
		return nil, fmt.Errorf("GS_SESSION_HTTPONLY: %w", err)
	}

	// --- Аутентификация ---

	// GS_AUTH_MAX_ATTEMPTS — попытки входа до блокировки (по умолчанию 5)
	cfg.AuthMaxAttempts, err = getEnvInt("GS_AUTH_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, fmt.Errorf("GS_AUTH_MAX_ATTEMPTS: %w", err)
	}
	if cfg.AuthMaxAttempts < 1 {
		return nil, fmt.Errorf("GS_AUTH_MAX_ATTEMPTS: значение %d должно быть не меньше 1", cfg.AuthMaxAttempts)
	}

	// GS_AUTH_LOCKOUT — длительность блокировки (по умолчанию 15m)
	cfg.AuthLockout, err = getEnvDuration("GS_AUTH_LOCKOUT", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("GS_AUTH_LOCKOUT: %w", err)
	}

	// GS_AUTH_RESET_TTL — время жизни токена сброса (по умолчанию 1h)
	cfg.AuthResetTTL, err = getEnvDuration("GS_AUTH_RESET_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("GS_AUTH_RESET_TTL: %w", err)
	}

	// GS_AUTH_RESET_SECRET — секрет подписи токенов сброса.
	// Обязательный в production: непостоянный секрет сделал бы все
	// выданные ссылки недействительными после рестарта.
	cfg.AuthResetSecret = getEnvDefault("GS_AUTH_RESET_SECRET", "")
	if cfg.AuthResetSecret == "" && cfg.AppEnv == "production" {
		return nil, fmt.Errorf("GS_AUTH_RESET_SECRET: обязательная переменная окружения не задана")
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
