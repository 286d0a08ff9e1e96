package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/record"
)

// ContactRepository — обращения покупателей через форму обратной связи.
type ContactRepository interface {
	// Create сохраняет новое обращение.
	Create(ctx context.Context, c *model.ContactSubmission) error
	// List возвращает обращения, новые первыми.
	List(ctx context.Context) ([]*model.ContactSubmission, error)
}

type contactRepo struct {
	base *record.Base
}

// NewContactRepository создаёт репозиторий обращений.
func NewContactRepository(db record.DBTX) ContactRepository {
	return &contactRepo{
		base: record.New(db, "contact_submission", "id", model.ContactColumns),
	}
}

func (r *contactRepo) Create(ctx context.Context, c *model.ContactSubmission) error {
	now := time.Now().UTC()
	id, err := r.base.Insert(ctx, map[string]any{
		"name":       c.Name,
		"email":      c.Email,
		"message":    c.Message,
		"created_at": now,
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения обращения: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

func (r *contactRepo) List(ctx context.Context) ([]*model.ContactSubmission, error) {
	rows, err := r.base.FindAll(ctx, nil, []record.Order{{Column: "created_at", Desc: true}})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения обращений: %w", err)
	}
	out := make([]*model.ContactSubmission, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.ContactFromRow(row))
	}
	return out, nil
}
