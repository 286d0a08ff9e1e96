package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/record"
)

// RememberTokenTTL — срок действия remember-токена «запомнить меня».
const RememberTokenTTL = 30 * 24 * time.Hour

// CreateRememberToken выпускает токен «запомнить меня» для пользователя.
func (m *Manager) CreateRememberToken(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	if _, err := m.remember.Insert(ctx, map[string]any{
		"user_id":    userID,
		"token":      token,
		"expires_at": time.Now().Add(RememberTokenTTL),
	}); err != nil {
		return "", fmt.Errorf("ошибка выпуска remember-токена: %w", err)
	}
	return token, nil
}

// ConsumeRememberToken обменивает действующий remember-токен на
// пользователя. Токен одноразовый: после обмена он удаляется,
// вызывающий выпускает новый.
func (m *Manager) ConsumeRememberToken(ctx context.Context, token string) (*model.User, error) {
	row, err := m.remember.FindOneWhere(ctx, record.Conditions{"token": token})
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("ошибка поиска remember-токена: %w", err)
	}

	// Удаление забирает токен атомарно: при параллельных обменах
	// строку получает ровно один из них
	affected, err := m.remember.DeleteByID(ctx, row.Int64("id"))
	if err != nil {
		return nil, fmt.Errorf("ошибка удаления remember-токена: %w", err)
	}
	if affected == 0 {
		return nil, ErrTokenInvalid
	}
	if time.Now().After(row.Time("expires_at")) {
		return nil, ErrTokenExpired
	}

	return m.users.GetByID(ctx, row.Int64("user_id"))
}

// RevokeRememberTokens отзывает все remember-токены пользователя.
func (m *Manager) RevokeRememberTokens(ctx context.Context, userID int64) error {
	if _, err := m.remember.Delete(ctx, record.Conditions{"user_id": userID}); err != nil {
		return fmt.Errorf("ошибка отзыва remember-токенов: %w", err)
	}
	return nil
}
