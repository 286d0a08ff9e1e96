// Пакет auth — подсистема аутентификации магазина: регистрация,
// вход с ограничением попыток, подтверждение аккаунта, сброс пароля
// и журнал событий безопасности.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zolotnik/goldshop/internal/config"
	"github.com/zolotnik/goldshop/internal/record"
	"github.com/zolotnik/goldshop/internal/repository"
)

// Ошибки подсистемы аутентификации.
var (
	// ErrInvalidCredentials — неверная пара логин/пароль.
	// Возвращается и для несуществующего пользователя.
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	// ErrLocked — аккаунт временно заблокирован после серии неудачных попыток.
	ErrLocked = errors.New("аккаунт временно заблокирован")
	// ErrNotVerified — аккаунт ещё не подтверждён по ссылке из письма.
	ErrNotVerified = errors.New("аккаунт не подтверждён")
	// ErrTokenInvalid — токен не прошёл проверку подписи или формата.
	ErrTokenInvalid = errors.New("недействительный токен")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("срок действия токена истёк")
	// ErrTokenUsed — токен уже был использован.
	ErrTokenUsed = errors.New("токен уже использован")
)

// События журнала безопасности.
const (
	EventLogin         = "login"
	EventLoginFailed   = "login_failed"
	EventLockout       = "lockout"
	EventLogout        = "logout"
	EventRegister      = "register"
	EventConfirm       = "confirm"
	EventResetRequest  = "reset_request"
	EventResetComplete = "reset_complete"
)

// Manager — менеджер аутентификации. Работает поверх репозитория
// пользователей и служебных таблиц auth_*.
type Manager struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	confirm  *record.Base
	reset    *record.Base
	remember *record.Base
	throttle *record.Base
	audit    *record.Base

	maxAttempts int
	lockout     time.Duration
	resetTTL    time.Duration
	resetSecret []byte

	logger *slog.Logger
}

// NewManager создаёт менеджер аутентификации.
func NewManager(db record.DBTX, users repository.UserRepository, roles repository.RoleRepository, cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{
		users: users,
		roles: roles,
		confirm: record.New(db, "auth_confirmation_tokens", "id",
			[]string{"user_id", "token", "expires_at", "used_at", "created_at"}),
		reset: record.New(db, "auth_reset_tokens", "id",
			[]string{"user_id", "token_id", "expires_at", "used_at", "created_at"}),
		remember: record.New(db, "auth_remember_tokens", "id",
			[]string{"user_id", "token", "expires_at", "created_at"}),
		throttle: record.New(db, "auth_throttle", "username",
			[]string{"fail_count", "locked_until", "updated_at"}),
		audit: record.New(db, "auth_audit_log", "id",
			[]string{"user_id", "username", "event", "detail", "remote_ip", "created_at"}),
		maxAttempts: cfg.AuthMaxAttempts,
		lockout:     cfg.AuthLockout,
		resetTTL:    cfg.AuthResetTTL,
		resetSecret: []byte(cfg.AuthResetSecret),
		logger:      logger.With(slog.String("component", "auth")),
	}
}

// Audit записывает событие безопасности в журнал.
// Ошибка записи логируется, но не прерывает основную операцию.
func (m *Manager) Audit(ctx context.Context, userID int64, username, event, detail, remoteIP string) {
	data := map[string]any{
		"username":  username,
		"event":     event,
		"detail":    detail,
		"remote_ip": remoteIP,
	}
	if userID != 0 {
		data["user_id"] = userID
	}
	if _, err := m.audit.Insert(ctx, data); err != nil {
		m.logger.Error("Ошибка записи в журнал безопасности",
			slog.String("event", event), slog.Any("error", err))
	}
}
