package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/record"
)

// MarginRepository — торговая наценка магазина (таблица profit_margin,
// единственная строка, создаётся миграцией).
type MarginRepository interface {
	// Get возвращает текущую наценку.
	Get(ctx context.Context) (*model.ProfitMargin, error)
	// Set устанавливает наценку в процентах.
	Set(ctx context.Context, percent float64) error
}

// marginRepo — реализация MarginRepository поверх record.Base.
type marginRepo struct {
	base *record.Base
}

// NewMarginRepository создаёт репозиторий наценки.
func NewMarginRepository(db record.DBTX) MarginRepository {
	return &marginRepo{
		base: record.New(db, "profit_margin", "id", model.ProfitMarginColumns),
	}
}

func (r *marginRepo) Get(ctx context.Context) (*model.ProfitMargin, error) {
	rows, err := r.base.FindAll(ctx, nil, []record.Order{{Column: "id"}})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения наценки: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return model.ProfitMarginFromRow(rows[0]), nil
}

func (r *marginRepo) Set(ctx context.Context, percent float64) error {
	if percent < 0 {
		return errors.New("наценка не может быть отрицательной")
	}

	current, err := r.Get(ctx)
	if err != nil {
		return err
	}

	if _, err := r.base.UpdateByID(ctx, current.ID, map[string]any{
		"margin_percent": percent,
		"updated_at":     time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("ошибка изменения наценки: %w", err)
	}
	return nil
}
