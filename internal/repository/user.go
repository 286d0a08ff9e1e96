package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/record"
)

// UserRepository — операции над пользователями (таблица users).
type UserRepository interface {
	// Create создаёт пользователя и заполняет ID и временные метки.
	// Дубликат username или email — ErrConflict.
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя по id или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByUsername возвращает пользователя по имени или ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByEmail возвращает пользователя по email или ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// List возвращает всех пользователей, отсортированных по имени.
	List(ctx context.Context) ([]*model.User, error)
	// Update обновляет профиль и роли; возвращает число затронутых строк.
	Update(ctx context.Context, u *model.User) (int64, error)
	// UpdatePassword заменяет хеш пароля; возвращает число затронутых строк.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error)
	// SetVerified выставляет флаг подтверждения; возвращает число затронутых строк.
	SetVerified(ctx context.Context, id int64, verified bool) (int64, error)
	// Delete удаляет пользователя; возвращает число затронутых строк.
	Delete(ctx context.Context, id int64) (int64, error)
	// Count возвращает количество пользователей.
	Count(ctx context.Context) (int, error)
}

// userRepo — реализация UserRepository поверх record.Base.
type userRepo struct {
	base *record.Base
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db record.DBTX) UserRepository {
	return &userRepo{
		base: record.New(db, "users", "id", model.UserColumns),
	}
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	id, err := r.base.Insert(ctx, map[string]any{
		"username":      u.Username,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"roles_id":      u.RolesID,
		"roles_mask":    u.RolesMask,
		"verified":      u.Verified,
	})
	if err != nil {
		if errors.Is(err, record.ErrConflict) {
			return fmt.Errorf("%w: имя пользователя или email уже занят", ErrConflict)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ошибка чтения созданного пользователя: %w", err)
	}
	*u = *created
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, record.Conditions{"id": id})
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, record.Conditions{"username": username})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, record.Conditions{"email": email})
}

func (r *userRepo) getOne(ctx context.Context, conds record.Conditions) (*model.User, error) {
	row, err := r.base.FindOneWhere(ctx, conds)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return model.UserFromRow(row), nil
}

func (r *userRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.base.FindAll(ctx, nil, []record.Order{{Column: "username"}})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}

	result := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		result = append(result, model.UserFromRow(row))
	}
	return result, nil
}

func (r *userRepo) Update(ctx context.Context, u *model.User) (int64, error) {
	affected, err := r.base.UpdateByID(ctx, u.ID, map[string]any{
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"roles_id":   u.RolesID,
		"roles_mask": u.RolesMask,
		"verified":   u.Verified,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, record.ErrConflict) {
			return 0, fmt.Errorf("%w: имя пользователя или email уже занят", ErrConflict)
		}
		return 0, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	return affected, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error) {
	affected, err := r.base.UpdateByID(ctx, id, map[string]any{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка смены пароля: %w", err)
	}
	return affected, nil
}

func (r *userRepo) SetVerified(ctx context.Context, id int64, verified bool) (int64, error) {
	affected, err := r.base.UpdateByID(ctx, id, map[string]any{
		"verified":   verified,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка изменения флага подтверждения: %w", err)
	}
	return affected, nil
}

func (r *userRepo) Delete(ctx context.Context, id int64) (int64, error) {
	affected, err := r.base.DeleteByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления пользователя: %w", err)
	}
	return affected, nil
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	return r.base.Count(ctx, nil)
}
