package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/record"
)

// RoleRepository — чтение справочника ролей (таблица roles).
// Роли заполняются миграциями и в рантайме не меняются.
type RoleRepository interface {
	// List возвращает все роли по возрастанию id.
	List(ctx context.Context) ([]*model.Role, error)
	// GetByID возвращает роль по id или ErrNotFound.
	GetByID(ctx context.Context, id int) (*model.Role, error)
	// GetByName возвращает роль по имени или ErrNotFound.
	GetByName(ctx context.Context, name string) (*model.Role, error)
}

// roleRepo — реализация RoleRepository поверх record.Base.
type roleRepo struct {
	base *record.Base
}

// NewRoleRepository создаёт репозиторий ролей.
func NewRoleRepository(db record.DBTX) RoleRepository {
	return &roleRepo{
		base: record.New(db, "roles", "id", model.RoleColumns),
	}
}

func (r *roleRepo) List(ctx context.Context) ([]*model.Role, error) {
	rows, err := r.base.FindAll(ctx, nil, []record.Order{{Column: "id"}})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка ролей: %w", err)
	}

	result := make([]*model.Role, 0, len(rows))
	for _, row := range rows {
		result = append(result, model.RoleFromRow(row))
	}
	return result, nil
}

func (r *roleRepo) GetByID(ctx context.Context, id int) (*model.Role, error) {
	row, err := r.base.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения роли: %w", err)
	}
	return model.RoleFromRow(row), nil
}

func (r *roleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	row, err := r.base.FindOneWhere(ctx, record.Conditions{"name": name})
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения роли: %w", err)
	}
	return model.RoleFromRow(row), nil
}
