package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/record"
)

// ProductRepository — операции над товарами (таблица product_data).
type ProductRepository interface {
	// Create создаёт товар и заполняет ID и временные метки.
	Create(ctx context.Context, p *model.Product) error
	// GetByID возвращает товар по id или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	// List возвращает все товары, отсортированные по названию.
	List(ctx context.Context) ([]*model.Product, error)
	// Search ищет товары по подстроке названия или описания.
	Search(ctx context.Context, q string) ([]*model.Product, error)
	// Update обновляет товар; возвращает число затронутых строк
	// (0 — товар не найден, не ошибка).
	Update(ctx context.Context, p *model.Product) (int64, error)
	// Delete удаляет товар; возвращает число затронутых строк.
	Delete(ctx context.Context, id int64) (int64, error)
	// AddStock увеличивает остаток на qty (qty > 0).
	AddStock(ctx context.Context, id int64, qty int) error
	// ReduceStock атомарно списывает qty с остатка (qty > 0);
	// при нехватке остатка возвращает ErrInsufficientStock,
	// остаток не меняется.
	ReduceStock(ctx context.Context, id int64, qty int) error
	// SetStock выставляет остаток в абсолютное значение (stock >= 0).
	SetStock(ctx context.Context, id int64, stock int) error
	// LowStock возвращает товары, остаток которых опустился до порога.
	LowStock(ctx context.Context) ([]*model.Product, error)
	// OutOfStock возвращает распроданные товары.
	OutOfStock(ctx context.Context) ([]*model.Product, error)
	// TotalStockValue возвращает закупочную стоимость всех остатков.
	TotalStockValue(ctx context.Context) (float64, error)
	// Count возвращает количество товаров.
	Count(ctx context.Context) (int, error)
}

// productRepo — реализация ProductRepository поверх record.Base.
type productRepo struct {
	base *record.Base
}

// NewProductRepository создаёт репозиторий товаров.
func NewProductRepository(db record.DBTX) ProductRepository {
	return &productRepo{
		base: record.New(db, "product_data", "id", model.ProductColumns),
	}
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	id, err := r.base.Insert(ctx, map[string]any{
		"name":                p.Name,
		"description":         p.Description,
		"metal":               p.Metal,
		"purity":              p.Purity,
		"price_per_gram":      p.PricePerGram,
		"stock":               p.Stock,
		"low_stock_threshold": p.LowStockThreshold,
	})
	if err != nil {
		return fmt.Errorf("ошибка создания товара: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ошибка чтения созданного товара: %w", err)
	}
	*p = *created
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	row, err := r.base.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}
	return model.ProductFromRow(row), nil
}

func (r *productRepo) List(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.base.FindAll(ctx, nil, []record.Order{{Column: "name"}})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка товаров: %w", err)
	}
	return productsFromRows(rows), nil
}

func (r *productRepo) Search(ctx context.Context, q string) ([]*model.Product, error) {
	// ILIKE не выражается условиями-равенствами — параметризованный SQL
	rows, err := r.base.Query(ctx, `
		SELECT id, name, description, metal, purity, price_per_gram,
			stock, low_stock_threshold, created_at, updated_at
		FROM product_data
		WHERE name ILIKE $1 OR description ILIKE $1
		ORDER BY name`,
		"%"+q+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска товаров: %w", err)
	}
	return productsFromRows(rows), nil
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) (int64, error) {
	affected, err := r.base.UpdateByID(ctx, p.ID, map[string]any{
		"name":                p.Name,
		"description":         p.Description,
		"metal":               p.Metal,
		"purity":              p.Purity,
		"price_per_gram":      p.PricePerGram,
		"low_stock_threshold": p.LowStockThreshold,
		"updated_at":          time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка обновления товара: %w", err)
	}
	return affected, nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) (int64, error) {
	affected, err := r.base.DeleteByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления товара: %w", err)
	}
	return affected, nil
}

func (r *productRepo) AddStock(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	affected, err := r.base.Exec(ctx,
		`UPDATE product_data SET stock = stock + $2, updated_at = now() WHERE id = $1`,
		id, qty,
	)
	if err != nil {
		return fmt.Errorf("ошибка пополнения остатка: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) ReduceStock(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	// Атомарное условное списание: остаток проверяется и уменьшается
	// одним оператором, число затронутых строк отличает нехватку
	// остатка от отсутствия товара.
	affected, err := r.base.Exec(ctx,
		`UPDATE product_data SET stock = stock - $2, updated_at = now()
		 WHERE id = $1 AND stock >= $2`,
		id, qty,
	)
	if err != nil {
		return fmt.Errorf("ошибка списания остатка: %w", err)
	}
	if affected > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrInsufficientStock
}

func (r *productRepo) SetStock(ctx context.Context, id int64, stock int) error {
	if stock < 0 {
		return ErrInvalidQuantity
	}

	affected, err := r.base.UpdateByID(ctx, id, map[string]any{
		"stock":      stock,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("ошибка установки остатка: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) LowStock(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.base.Query(ctx, `
		SELECT id, name, description, metal, purity, price_per_gram,
			stock, low_stock_threshold, created_at, updated_at
		FROM product_data
		WHERE stock > 0 AND stock <= low_stock_threshold
		ORDER BY stock, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки товаров с низким остатком: %w", err)
	}
	return productsFromRows(rows), nil
}

func (r *productRepo) OutOfStock(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.base.FindWhere(ctx, record.Conditions{"stock": 0}, nil, []record.Order{{Column: "name"}}, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки распроданных товаров: %w", err)
	}
	return productsFromRows(rows), nil
}

func (r *productRepo) TotalStockValue(ctx context.Context) (float64, error) {
	row, err := r.base.QueryOne(ctx,
		`SELECT COALESCE(SUM(price_per_gram * stock), 0) AS total FROM product_data`,
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта стоимости остатков: %w", err)
	}
	return row.Float64("total"), nil
}

func (r *productRepo) Count(ctx context.Context) (int, error) {
	return r.base.Count(ctx, nil)
}

// productsFromRows преобразует строки результата в модели.
func productsFromRows(rows []record.Row) []*model.Product {
	result := make([]*model.Product, 0, len(rows))
	for _, row := range rows {
		result = append(result, model.ProductFromRow(row))
	}
	return result
}
