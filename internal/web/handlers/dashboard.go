// dashboard.go — главная страница и настройки магазина.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/domain/rolemask"
	"github.com/zolotnik/goldshop/internal/repository"
	"github.com/zolotnik/goldshop/internal/web/middleware"
	"github.com/zolotnik/goldshop/internal/web/session"
	"github.com/zolotnik/goldshop/internal/web/views"
)

// DashboardHandler — главная страница и настройки.
type DashboardHandler struct {
	base
	products repository.ProductRepository
	users    repository.UserRepository
	margin   repository.MarginRepository
}

// NewDashboardHandler создаёт обработчики главной страницы и настроек.
func NewDashboardHandler(
	products repository.ProductRepository,
	users repository.UserRepository,
	margin repository.MarginRepository,
	v *views.Renderer,
	s *session.Manager,
	basePath string,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		base:     newBase(v, s, basePath, "dashboard", logger),
		products: products,
		users:    users,
		margin:   margin,
	}
}

// dashboardData — данные главной страницы.
type dashboardData struct {
	ProductCount int
	UserCount    int
	TotalValue   float64
	Margin       float64
	LowStock     []*model.Product
}

// settingsData — данные страницы настроек.
type settingsData struct {
	Margin float64
}

// Home — GET /, обзор магазина.
func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := &dashboardData{}

	var err error
	if data.ProductCount, err = h.products.Count(ctx); err != nil {
		h.logger.Error("Ошибка подсчёта товаров", slog.Any("error", err))
	}
	if data.TotalValue, err = h.products.TotalStockValue(ctx); err != nil {
		h.logger.Error("Ошибка подсчёта стоимости склада", slog.Any("error", err))
	}
	if m, err := h.margin.Get(ctx); err == nil {
		data.Margin = m.MarginPercent
	}

	sess := middleware.SessionFromContext(ctx)
	if sess != nil && rolemask.HasAny(sess.RolesMask, rolemask.Admin|rolemask.Manager|rolemask.Seller) {
		if data.LowStock, err = h.products.LowStock(ctx); err != nil {
			h.logger.Error("Ошибка получения заканчивающихся товаров", slog.Any("error", err))
		}
	}
	if sess != nil && rolemask.Has(sess.RolesMask, rolemask.Admin) {
		if data.UserCount, err = h.users.Count(ctx); err != nil {
			h.logger.Error("Ошибка подсчёта пользователей", slog.Any("error", err))
		}
	}

	h.render(w, r, http.StatusOK, "dashboard", "Обзор", data)
}

// Settings — GET /settings, страница настроек (admin only).
func (h *DashboardHandler) Settings(w http.ResponseWriter, r *http.Request) {
	m, err := h.margin.Get(r.Context())
	if err != nil {
		h.logger.Error("Ошибка чтения наценки", slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "settings", "Настройки", &settingsData{
		Margin: m.MarginPercent,
	})
}

// UpdateMargin — POST /settings/margin.
func (h *DashboardHandler) UpdateMargin(w http.ResponseWriter, r *http.Request) {
	percent, err := strconv.ParseFloat(r.PostFormValue("margin"), 64)
	if err != nil || percent < 0 {
		h.flashRedirect(w, r, "error",
			"Наценка должна быть неотрицательным числом", "/settings")
		return
	}

	if err := h.margin.Set(r.Context(), percent); err != nil {
		h.logger.Error("Ошибка изменения наценки", slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Не удалось сохранить наценку", "/settings")
		return
	}

	h.logger.Info("Изменена наценка", slog.Float64("percent", percent))
	h.flashRedirect(w, r, "success", "Наценка сохранена", "/settings")
}
