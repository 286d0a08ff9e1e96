package model

import (
	"time"

	"github.com/zolotnik/goldshop/internal/record"
)

// ProfitMargin — торговая наценка магазина (единственная строка таблицы).
type ProfitMargin struct {
	// ID — первичный ключ
	ID int
	// MarginPercent — наценка в процентах к закупочной цене
	MarginPercent float64
	// UpdatedAt — время последнего изменения
	UpdatedAt time.Time
}

// ProfitMarginColumns — закрытый список колонок таблицы profit_margin.
var ProfitMarginColumns = []string{"margin_percent", "updated_at"}

// ProfitMarginFromRow собирает ProfitMargin из строки результата.
func ProfitMarginFromRow(r record.Row) *ProfitMargin {
	return &ProfitMargin{
		ID:            r.Int("id"),
		MarginPercent: r.Float64("margin_percent"),
		UpdatedAt:     r.Time("updated_at"),
	}
}

// ContactSubmission — обращение покупателя через форму обратной связи.
type ContactSubmission struct {
	// ID — первичный ключ
	ID int64
	// Name — имя отправителя
	Name string
	// Email — адрес для ответа
	Email string
	// Message — текст обращения
	Message string
	// CreatedAt — время отправки
	CreatedAt time.Time
}

// ContactColumns — закрытый список колонок таблицы contact_submission.
var ContactColumns = []string{"name", "email", "message", "created_at"}

// ContactFromRow собирает ContactSubmission из строки результата.
func ContactFromRow(r record.Row) *ContactSubmission {
	return &ContactSubmission{
		ID:        r.Int64("id"),
		Name:      r.String("name"),
		Email:     r.String("email"),
		Message:   r.String("message"),
		CreatedAt: r.Time("created_at"),
	}
}
