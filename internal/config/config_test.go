package config

import (
	"log/slog"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"GS_DB_HOST":     "localhost",
		"GS_DB_NAME":     "goldshop",
		"GS_DB_USER":     "goldshop",
		"GS_DB_PASSWORD": "secret",
		"GS_APP_ENV":     "development",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.BasePath != "" {
		t.Errorf("BasePath = %q, ожидается пустой", cfg.BasePath)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, ожидается localhost", cfg.DBHost)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.DBMaxConns != 8 {
		t.Errorf("DBMaxConns = %d, ожидается 8", cfg.DBMaxConns)
	}
	if cfg.DBConnLifetime != 30*time.Minute {
		t.Errorf("DBConnLifetime = %v, ожидается 30m", cfg.DBConnLifetime)
	}
	if cfg.SessionLifetime != 24*time.Hour {
		t.Errorf("SessionLifetime = %v, ожидается 24h", cfg.SessionLifetime)
	}
	if cfg.SessionPath != "/" {
		t.Errorf("SessionPath = %q, ожидается /", cfg.SessionPath)
	}
	if !cfg.SessionHTTPOnly {
		t.Error("SessionHTTPOnly = false, ожидается true")
	}
	if cfg.SessionSecure {
		t.Error("SessionSecure = true для http URL, ожидается false")
	}
	if cfg.AuthMaxAttempts != 5 {
		t.Errorf("AuthMaxAttempts = %d, ожидается 5", cfg.AuthMaxAttempts)
	}
	if cfg.AuthLockout != 15*time.Minute {
		t.Errorf("AuthLockout = %v, ожидается 15m", cfg.AuthLockout)
	}
	if cfg.AuthResetTTL != time.Hour {
		t.Errorf("AuthResetTTL = %v, ожидается 1h", cfg.AuthResetTTL)
	}
	// В development отладка включена по умолчанию
	if !cfg.AppDebug {
		t.Error("AppDebug = false в development, ожидается true")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	envs := minimalEnvs()
	delete(envs, "GS_DB_HOST")
	setEnvs(t, envs)
	t.Setenv("GS_DB_HOST", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() без GS_DB_HOST должен вернуть ошибку")
	}
}

func TestLoad_ResetSecretRequiredInProduction(t *testing.T) {
	envs := minimalEnvs()
	envs["GS_APP_ENV"] = "production"
	setEnvs(t, envs)

	if _, err := Load(); err == nil {
		t.Fatal("Load() в production без GS_AUTH_RESET_SECRET должен вернуть ошибку")
	}

	t.Setenv("GS_AUTH_RESET_SECRET", "super-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	// В production отладка по умолчанию выключена
	if cfg.AppDebug {
		t.Error("AppDebug = true в production, ожидается false")
	}
}

func TestLoad_BasePathNormalization(t *testing.T) {
	setEnvs(t, minimalEnvs())
	t.Setenv("GS_BASE_PATH", "shop/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.BasePath != "/shop" {
		t.Errorf("BasePath = %q, ожидается /shop", cfg.BasePath)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"некорректный порт", "GS_PORT", "abc"},
		{"порт вне диапазона", "GS_PORT", "70000"},
		{"некорректный уровень логов", "GS_LOG_LEVEL", "verbose"},
		{"некорректный формат логов", "GS_LOG_FORMAT", "xml"},
		{"некорректный ssl mode", "GS_DB_SSL_MODE", "maybe"},
		{"некорректное окружение", "GS_APP_ENV", "staging"},
		{"некорректный часовой пояс", "GS_APP_TIMEZONE", "Mars/Olympus"},
		{"некорректная длительность", "GS_SESSION_LIFETIME", "полчаса"},
		{"нулевые попытки входа", "GS_AUTH_MAX_ATTEMPTS", "0"},
		{"нулевой размер пула", "GS_DB_MAX_CONNS", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setEnvs(t, minimalEnvs())
			t.Setenv(tc.key, tc.val)

			if _, err := Load(); err == nil {
				t.Errorf("Load() с %s=%q должен вернуть ошибку", tc.key, tc.val)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	want := "host=localhost port=5432 dbname=goldshop user=goldshop password=secret sslmode=disable"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", got, want)
	}
}
