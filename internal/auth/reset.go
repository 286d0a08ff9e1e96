package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zolotnik/goldshop/internal/record"
	"github.com/zolotnik/goldshop/internal/repository"
)

// resetClaims — полезная нагрузка токена сброса пароля.
// Идентификатор jti привязывает токен к одноразовой записи в БД.
type resetClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// ForgotPassword выпускает токен сброса пароля для владельца email.
// Чтобы не раскрывать, зарегистрирован ли адрес, для неизвестного
// email возвращается пустой токен без ошибки.
func (m *Manager) ForgotPassword(ctx context.Context, email, remoteIP string) (string, error) {
	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.logger.Info("Запрос сброса пароля для неизвестного email")
			return "", nil
		}
		return "", err
	}

	now := time.Now()
	tokenID := uuid.NewString()
	claims := resetClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.resetTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.resetSecret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена сброса: %w", err)
	}

	if _, err := m.reset.Insert(ctx, map[string]any{
		"user_id":    user.ID,
		"token_id":   tokenID,
		"expires_at": now.Add(m.resetTTL),
	}); err != nil {
		return "", fmt.Errorf("ошибка сохранения токена сброса: %w", err)
	}

	m.Audit(ctx, user.ID, user.Username, EventResetRequest, "", remoteIP)
	return token, nil
}

// ResetPassword устанавливает новый пароль по токену сброса.
// Токен проверяется по подписи и по отметке одноразовости в БД.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword, remoteIP string) error {
	claims, err := m.parseResetToken(token)
	if err != nil {
		return err
	}

	row, err := m.reset.FindOneWhere(ctx, record.Conditions{"token_id": claims.ID})
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("ошибка поиска токена сброса: %w", err)
	}
	if row.NullTime("used_at") != nil {
		return ErrTokenUsed
	}
	if time.Now().After(row.Time("expires_at")) {
		return ErrTokenExpired
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	// Отметка одноразовости ставится условным UPDATE: из
	// параллельных запросов токен достаётся ровно одному
	affected, err := m.reset.Exec(ctx,
		`UPDATE auth_reset_tokens SET used_at = now() WHERE token_id = $1 AND used_at IS NULL`,
		claims.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка отметки токена сброса: %w", err)
	}
	if affected == 0 {
		return ErrTokenUsed
	}

	if _, err := m.users.UpdatePassword(ctx, claims.UserID, hash); err != nil {
		return err
	}

	// Новый пароль отменяет выданные remember-токены
	if _, err := m.remember.Delete(ctx, record.Conditions{"user_id": claims.UserID}); err != nil {
		m.logger.Warn("Ошибка отзыва remember-токенов", slog.Any("error", err))
	}

	m.Audit(ctx, claims.UserID, claims.Subject, EventResetComplete, "", remoteIP)
	m.logger.Info("Пароль сброшен", slog.String("username", claims.Subject))
	return nil
}

// parseResetToken проверяет подпись и срок действия токена сброса.
func (m *Manager) parseResetToken(token string) (*resetClaims, error) {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return m.resetSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid || claims.ID == "" || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
