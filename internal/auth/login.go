package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/record"
	"github.com/zolotnik/goldshop/internal/repository"
)

// Login проверяет пару логин/пароль с учётом ограничения попыток.
// Для несуществующего пользователя и неверного пароля возвращается
// одна и та же ошибка ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, username, password, remoteIP string) (*model.User, error) {
	locked, err := m.isLocked(ctx, username)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrLocked
	}

	user, err := m.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.recordFailure(ctx, username, remoteIP)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		m.recordFailure(ctx, username, remoteIP)
		return nil, ErrInvalidCredentials
	}

	if !user.Verified {
		return nil, ErrNotVerified
	}

	// Успешный вход сбрасывает счётчик неудач
	if err := m.clearThrottle(ctx, username); err != nil {
		m.logger.Warn("Ошибка сброса счётчика попыток",
			slog.String("username", username), slog.Any("error", err))
	}

	m.Audit(ctx, user.ID, username, EventLogin, "", remoteIP)
	m.logger.Info("Успешный вход", slog.String("username", username))
	return user, nil
}

// isLocked сообщает, заблокирован ли сейчас вход для username.
func (m *Manager) isLocked(ctx context.Context, username string) (bool, error) {
	row, err := m.throttle.FindOneWhere(ctx, record.Conditions{"username": username})
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("ошибка проверки блокировки: %w", err)
	}

	lockedUntil := row.NullTime("locked_until")
	return lockedUntil != nil && time.Now().Before(*lockedUntil), nil
}

// recordFailure увеличивает счётчик неудачных попыток и при достижении
// лимита блокирует вход на время lockout.
func (m *Manager) recordFailure(ctx context.Context, username, remoteIP string) {
	row, err := m.throttle.QueryOne(ctx,
		`INSERT INTO auth_throttle (username, fail_count, updated_at)
		 VALUES ($1, 1, now())
		 ON CONFLICT (username) DO UPDATE
		 SET fail_count = auth_throttle.fail_count + 1, updated_at = now()
		 RETURNING fail_count`, username)
	if err != nil {
		m.logger.Error("Ошибка учёта неудачной попытки входа",
			slog.String("username", username), slog.Any("error", err))
		return
	}

	m.Audit(ctx, 0, username, EventLoginFailed, "", remoteIP)

	failCount := row.Int("fail_count")
	if failCount < m.maxAttempts {
		return
	}

	until := time.Now().Add(m.lockout)
	if _, err := m.throttle.Exec(ctx,
		`UPDATE auth_throttle SET locked_until = $2, fail_count = 0, updated_at = now()
		 WHERE username = $1`, username, until); err != nil {
		m.logger.Error("Ошибка установки блокировки",
			slog.String("username", username), slog.Any("error", err))
		return
	}

	m.Audit(ctx, 0, username, EventLockout,
		fmt.Sprintf("после %d неудачных попыток", failCount), remoteIP)
	m.logger.Warn("Вход заблокирован",
		slog.String("username", username), slog.Time("until", until))
}

// clearThrottle удаляет запись счётчика попыток.
func (m *Manager) clearThrottle(ctx context.Context, username string) error {
	_, err := m.throttle.Delete(ctx, record.Conditions{"username": username})
	return err
}
