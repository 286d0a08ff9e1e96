package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/record"
)

// Срок действия токена подтверждения аккаунта.
const confirmTokenTTL = 24 * time.Hour

// RegisterInput — данные формы регистрации.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register создаёт нового неподтверждённого покупателя и выпускает
// токен подтверждения аккаунта. Токен возвращается вызывающему
// для доставки пользователю.
func (m *Manager) Register(ctx context.Context, in RegisterInput, remoteIP string) (*model.User, string, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	// Роль ищется по имени: id строки в roles и бит маски — разные вещи
	role, err := m.roles.GetByName(ctx, "customer")
	if err != nil {
		return nil, "", fmt.Errorf("ошибка поиска роли покупателя: %w", err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		RolesID:      role.ID,
		RolesMask:    role.Mask,
	}
	if err := m.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token := uuid.NewString()
	if _, err := m.confirm.Insert(ctx, map[string]any{
		"user_id":    user.ID,
		"token":      token,
		"expires_at": time.Now().Add(confirmTokenTTL),
	}); err != nil {
		return nil, "", fmt.Errorf("ошибка выпуска токена подтверждения: %w", err)
	}

	m.Audit(ctx, user.ID, user.Username, EventRegister, "", remoteIP)
	m.logger.Info("Зарегистрирован пользователь", slog.String("username", user.Username))
	return user, token, nil
}

// Confirm подтверждает аккаунт по токену из письма.
// Токен одноразовый; повторное применение — ErrTokenUsed.
func (m *Manager) Confirm(ctx context.Context, token, remoteIP string) error {
	row, err := m.confirm.FindOneWhere(ctx, record.Conditions{"token": token})
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("ошибка поиска токена подтверждения: %w", err)
	}

	if row.NullTime("used_at") != nil {
		return ErrTokenUsed
	}
	if time.Now().After(row.Time("expires_at")) {
		return ErrTokenExpired
	}

	userID := row.Int64("user_id")
	if _, err := m.users.SetVerified(ctx, userID, true); err != nil {
		return err
	}
	if _, err := m.confirm.UpdateByID(ctx, row.Int64("id"), map[string]any{
		"used_at": time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("ошибка отметки токена подтверждения: %w", err)
	}

	m.Audit(ctx, userID, "", EventConfirm, "", remoteIP)
	return nil
}
