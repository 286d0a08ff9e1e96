// Пакет model — доменные модели магазина.
package model

import (
	"time"

	"github.com/zolotnik/goldshop/internal/record"
)

// Product — товар: изделие из драгоценного металла.
// Хранится в таблице product_data.
type Product struct {
	// ID — первичный ключ
	ID int64
	// Name — название изделия
	Name string
	// Description — описание
	Description string
	// Metal — металл (gold, silver, platinum)
	Metal string
	// Purity — проба (585, 750, 999)
	Purity int
	// PricePerGram — закупочная цена за грамм
	PricePerGram float64
	// Stock — остаток на складе, не может быть отрицательным
	Stock int
	// LowStockThreshold — порог «мало на складе»
	LowStockThreshold int
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// ProductColumns — закрытый список колонок таблицы product_data.
var ProductColumns = []string{
	"name", "description", "metal", "purity", "price_per_gram",
	"stock", "low_stock_threshold", "created_at", "updated_at",
}

// ProductFromRow собирает Product из строки результата.
func ProductFromRow(r record.Row) *Product {
	return &Product{
		ID:                r.Int64("id"),
		Name:              r.String("name"),
		Description:       r.String("description"),
		Metal:             r.String("metal"),
		Purity:            r.Int("purity"),
		PricePerGram:      r.Float64("price_per_gram"),
		Stock:             r.Int("stock"),
		LowStockThreshold: r.Int("low_stock_threshold"),
		CreatedAt:         r.Time("created_at"),
		UpdatedAt:         r.Time("updated_at"),
	}
}

// RetailPrice возвращает розничную цену за грамм с учётом наценки.
func (p *Product) RetailPrice(marginPercent float64) float64 {
	return p.PricePerGram * (1 + marginPercent/100)
}

// StockValue возвращает закупочную стоимость остатка товара.
func (p *Product) StockValue() float64 {
	return p.PricePerGram * float64(p.Stock)
}

// IsLowStock сообщает, опустился ли остаток до порога (но не до нуля).
func (p *Product) IsLowStock() bool {
	return p.Stock > 0 && p.Stock <= p.LowStockThreshold
}

// IsOutOfStock сообщает, распродан ли товар.
func (p *Product) IsOutOfStock() bool {
	return p.Stock == 0
}
