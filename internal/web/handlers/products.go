// products.go — обработчики каталога товаров: список, поиск,
// карточка, создание/изменение/удаление, складские операции.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/repository"
	"github.com/zolotnik/goldshop/internal/web/respond"
	"github.com/zolotnik/goldshop/internal/web/session"
	"github.com/zolotnik/goldshop/internal/web/views"
)

// ProductsHandler — обработчики каталога товаров.
type ProductsHandler struct {
	base
	products repository.ProductRepository
	margin   repository.MarginRepository
}

// NewProductsHandler создаёт обработчики каталога.
func NewProductsHandler(
	products repository.ProductRepository,
	margin repository.MarginRepository,
	v *views.Renderer,
	s *session.Manager,
	basePath string,
	logger *slog.Logger,
) *ProductsHandler {
	return &ProductsHandler{
		base:     newBase(v, s, basePath, "products", logger),
		products: products,
		margin:   margin,
	}
}

// productsListData — данные страницы списка товаров.
type productsListData struct {
	Products []*model.Product
	Query    string
	Margin   float64
}

// productFormData — данные формы товара.
type productFormData struct {
	Product *model.Product
	IsNew   bool
}

// productShowData — данные карточки товара.
type productShowData struct {
	Product     *model.Product
	RetailPrice float64
}

// marginPercent возвращает текущую наценку; при ошибке — 0 и запись в лог.
func (h *ProductsHandler) marginPercent(r *http.Request) float64 {
	m, err := h.margin.Get(r.Context())
	if err != nil {
		h.logger.Error("Ошибка чтения наценки", slog.Any("error", err))
		return 0
	}
	return m.MarginPercent
}

// List — GET /products, список всех товаров.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка товаров", slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "products_list", "Товары", &productsListData{
		Products: products,
		Margin:   h.marginPercent(r),
	})
}

// Search — GET /products/search?q=…, поиск по названию и описанию.
func (h *ProductsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.redirect(w, r, "/products")
		return
	}

	products, err := h.products.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("Ошибка поиска товаров",
			slog.String("query", query), slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "products_list",
		fmt.Sprintf("Поиск: %s", query), &productsListData{
			Products: products,
			Query:    query,
			Margin:   h.marginPercent(r),
		})
}

// LowStock — GET /products/low-stock, товары на пороге остатка.
func (h *ProductsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.LowStock(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения заканчивающихся товаров", slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "products_list", "Заканчиваются", &productsListData{
		Products: products,
		Margin:   h.marginPercent(r),
	})
}

// OutOfStock — GET /products/out-of-stock, распроданные товары.
func (h *ProductsHandler) OutOfStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.OutOfStock(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения распроданных товаров", slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "products_list", "Нет в наличии", &productsListData{
		Products: products,
		Margin:   h.marginPercent(r),
	})
}

// Show — GET /products/{id}, карточка товара.
func (h *ProductsHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.notFound(w, r)
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.notFound(w, r)
			return
		}
		h.logger.Error("Ошибка получения товара",
			slog.Int64("id", id), slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "products_show", product.Name, &productShowData{
		Product:     product,
		RetailPrice: product.RetailPrice(h.marginPercent(r)),
	})
}

// CreateForm — GET /products/create, форма нового товара.
func (h *ProductsHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "products_form", "Новый товар", &productFormData{
		Product: &model.Product{Metal: "gold", Purity: 585, LowStockThreshold: 5},
		IsNew:   true,
	})
}

// Create — POST /products/create.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	product, msg := h.parseProductForm(r, true)
	if msg != "" {
		h.flashRedirect(w, r, "error", msg, "/products/create")
		return
	}

	if err := h.products.Create(r.Context(), product); err != nil {
		h.logger.Error("Ошибка создания товара", slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Не удалось сохранить товар", "/products/create")
		return
	}

	h.logger.Info("Создан товар",
		slog.Int64("id", product.ID), slog.String("name", product.Name))
	h.flashRedirect(w, r, "success", "Товар добавлен",
		fmt.Sprintf("/products/%d", product.ID))
}

// EditForm — GET /products/{id}/edit, форма изменения товара.
func (h *ProductsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.notFound(w, r)
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.notFound(w, r)
			return
		}
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "products_form", "Изменение товара", &productFormData{
		Product: product,
	})
}

// Edit — POST /products/{id}/update.
// Остаток формой не меняется: для него есть складские операции.
func (h *ProductsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.notFound(w, r)
		return
	}

	product, msg := h.parseProductForm(r, false)
	if msg != "" {
		h.flashRedirect(w, r, "error", msg, fmt.Sprintf("/products/%d/edit", id))
		return
	}
	product.ID = id

	affected, err := h.products.Update(r.Context(), product)
	if err != nil {
		h.logger.Error("Ошибка изменения товара",
			slog.Int64("id", id), slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Не удалось сохранить товар",
			fmt.Sprintf("/products/%d/edit", id))
		return
	}
	if affected == 0 {
		h.notFound(w, r)
		return
	}

	h.flashRedirect(w, r, "success", "Товар обновлён", fmt.Sprintf("/products/%d", id))
}

// Delete — POST /products/{id}/delete.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.notFound(w, r)
		return
	}

	affected, err := h.products.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("Ошибка удаления товара",
			slog.Int64("id", id), slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Не удалось удалить товар", "/products")
		return
	}
	if affected == 0 {
		h.notFound(w, r)
		return
	}

	h.logger.Info("Удалён товар", slog.Int64("id", id))
	h.flashRedirect(w, r, "success", "Товар удалён", "/products")
}

// Stock — POST /products/{id}/stock, AJAX-установка остатка
// в абсолютное значение. Отвечает обновлённой строкой товара.
func (h *ProductsHandler) Stock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Товар не найден")
		return
	}

	stock, err := strconv.Atoi(r.PostFormValue("stock"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Остаток должен быть числом")
		return
	}

	if err := h.products.SetStock(r.Context(), id, stock); err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidQuantity):
			respond.Error(w, http.StatusBadRequest, "Остаток не может быть отрицательным")
		case errors.Is(err, repository.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "Товар не найден")
		default:
			h.logger.Error("Ошибка установки остатка",
				slog.Int64("id", id), slog.Any("error", err))
			respond.Error(w, http.StatusInternalServerError, "Внутренняя ошибка")
		}
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Внутренняя ошибка")
		return
	}

	respond.Success(w, "Остаток обновлён", map[string]any{
		"product": map[string]any{
			"id":           product.ID,
			"name":         product.Name,
			"stock":        product.Stock,
			"low_stock":    product.IsLowStock(),
			"out_of_stock": product.IsOutOfStock(),
		},
	})
}

// AddStock — POST /products/{id}/add-stock, приёмка на склад.
func (h *ProductsHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	h.stockOp(w, r, "add", h.products.AddStock)
}

// ReduceStock — POST /products/{id}/reduce-stock, списание со склада.
// Списание атомарное: при нехватке остатка операция отклоняется целиком.
func (h *ProductsHandler) ReduceStock(w http.ResponseWriter, r *http.Request) {
	h.stockOp(w, r, "reduce", h.products.ReduceStock)
}

// stockOp — общий код складских операций: разбор qty, выполнение,
// ответ JSON для AJAX либо flash+redirect для формы.
func (h *ProductsHandler) stockOp(
	w http.ResponseWriter, r *http.Request,
	op string,
	fn func(ctx context.Context, id int64, qty int) error,
) {
	id, err := idParam(r)
	if err != nil {
		h.stockFail(w, r, 0, http.StatusNotFound, "Товар не найден")
		return
	}

	qty, err := strconv.Atoi(r.PostFormValue("qty"))
	if err != nil {
		h.stockFail(w, r, id, http.StatusBadRequest, "Количество должно быть числом")
		return
	}

	if err := fn(r.Context(), id, qty); err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidQuantity):
			h.stockFail(w, r, id, http.StatusBadRequest, "Количество должно быть положительным")
		case errors.Is(err, repository.ErrInsufficientStock):
			h.stockFail(w, r, id, http.StatusConflict, "Недостаточно товара на складе")
		case errors.Is(err, repository.ErrNotFound):
			h.stockFail(w, r, 0, http.StatusNotFound, "Товар не найден")
		default:
			h.logger.Error("Ошибка складской операции",
				slog.String("op", op), slog.Int64("id", id), slog.Any("error", err))
			h.stockFail(w, r, id, http.StatusInternalServerError, "Внутренняя ошибка")
		}
		return
	}

	h.logger.Info("Складская операция выполнена",
		slog.String("op", op), slog.Int64("id", id), slog.Int("qty", qty))

	if respond.WantsJSON(r) {
		product, err := h.products.GetByID(r.Context(), id)
		if err != nil {
			respond.Success(w, "Остаток изменён", nil)
			return
		}
		respond.Success(w, "Остаток изменён", map[string]any{
			"product": map[string]any{
				"id":    product.ID,
				"stock": product.Stock,
			},
		})
		return
	}
	h.flashRedirect(w, r, "success", "Остаток изменён", fmt.Sprintf("/products/%d", id))
}

// stockFail отклоняет складскую операцию: JSON для AJAX, flash для формы.
func (h *ProductsHandler) stockFail(w http.ResponseWriter, r *http.Request, id int64, status int, message string) {
	if respond.WantsJSON(r) {
		respond.Error(w, status, message)
		return
	}
	if id == 0 {
		h.flashRedirect(w, r, "error", message, "/products")
		return
	}
	h.flashRedirect(w, r, "error", message, fmt.Sprintf("/products/%d", id))
}

// NotFoundPage — страница 404 для неизвестных путей.
func (h *ProductsHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r)
}

// parseProductForm разбирает форму товара.
// Возвращает товар либо текст ошибки для flash.
func (h *ProductsHandler) parseProductForm(r *http.Request, withStock bool) (*model.Product, string) {
	if err := r.ParseForm(); err != nil {
		return nil, "Не удалось разобрать форму"
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		return nil, "Укажите название товара"
	}

	price, err := strconv.ParseFloat(r.PostFormValue("price_per_gram"), 64)
	if err != nil || price < 0 {
		return nil, "Цена за грамм должна быть неотрицательным числом"
	}

	purity, err := strconv.Atoi(r.PostFormValue("purity"))
	if err != nil || purity < 1 || purity > 1000 {
		return nil, "Проба должна быть числом от 1 до 1000"
	}

	threshold := 5
	if v := r.PostFormValue("low_stock_threshold"); v != "" {
		threshold, err = strconv.Atoi(v)
		if err != nil || threshold < 0 {
			return nil, "Порог остатка должен быть неотрицательным числом"
		}
	}

	product := &model.Product{
		Name:              name,
		Description:       strings.TrimSpace(r.PostFormValue("description")),
		Metal:             r.PostFormValue("metal"),
		Purity:            purity,
		PricePerGram:      price,
		LowStockThreshold: threshold,
	}

	if withStock {
		if v := r.PostFormValue("stock"); v != "" {
			stock, err := strconv.Atoi(v)
			if err != nil || stock < 0 {
				return nil, "Остаток должен быть неотрицательным числом"
			}
			product.Stock = stock
		}
	}

	return product, ""
}
