// routes.go — таблица маршрутов витрины.
// Маршруты описываются данными и монтируются в роутер одним проходом;
// буквальные пути объявлены раньше параметризованных.
package server

import (
	"net/http"

	"github.com/zolotnik/goldshop/internal/domain/rolemask"
	"github.com/zolotnik/goldshop/internal/web/handlers"
)

// Доступ к маршруту.
const (
	// accessPublic — маршрут доступен без сессии.
	accessPublic = 0
	// accessStaff — персонал магазина.
	accessStaff = rolemask.Admin | rolemask.Manager | rolemask.Seller
	// accessManager — управляющие и администраторы.
	accessManager = rolemask.Admin | rolemask.Manager
	// accessAdmin — только администраторы.
	accessAdmin = rolemask.Admin
)

// Route — один маршрут таблицы.
type Route struct {
	// Method — HTTP-метод.
	Method string
	// Pattern — шаблон пути в нотации chi ({id} — параметр).
	Pattern string
	// Handler — обработчик.
	Handler http.HandlerFunc
	// Roles — маска ролей, которым разрешён маршрут;
	// accessPublic — без проверки сессии.
	Roles int
}

// Handlers — обработчики, из которых собирается таблица маршрутов.
type Handlers struct {
	Dashboard *handlers.DashboardHandler
	Products  *handlers.ProductsHandler
	Auth      *handlers.AuthHandler
	Users     *handlers.UsersHandler
	Contact   *handlers.ContactHandler
	Health    *handlers.HealthHandler
}

// Routes возвращает полную таблицу маршрутов витрины.
func Routes(h Handlers) []Route {
	return []Route{
		// Служебные endpoints
		{http.MethodGet, "/health/live", h.Health.HealthLive, accessPublic},
		{http.MethodGet, "/health/ready", h.Health.HealthReady, accessPublic},
		{http.MethodGet, "/metrics", h.Health.GetMetrics, accessPublic},

		// Главная
		{http.MethodGet, "/", h.Dashboard.Home, accessPublic},

		// Аутентификация
		{http.MethodGet, "/login", h.Auth.LoginForm, accessPublic},
		{http.MethodPost, "/login", h.Auth.Login, accessPublic},
		{http.MethodGet, "/logout", h.Auth.Logout, accessPublic},
		{http.MethodGet, "/register", h.Auth.RegisterForm, accessPublic},
		{http.MethodPost, "/register", h.Auth.Register, accessPublic},
		{http.MethodGet, "/confirm", h.Auth.Confirm, accessPublic},
		{http.MethodGet, "/forgot-password", h.Auth.ForgotForm, accessPublic},
		{http.MethodPost, "/forgot-password", h.Auth.Forgot, accessPublic},
		{http.MethodGet, "/reset-password", h.Auth.ResetForm, accessPublic},
		{http.MethodPost, "/reset-password", h.Auth.Reset, accessPublic},

		// Каталог: буквальные пути раньше /products/{id}
		{http.MethodGet, "/products", h.Products.List, accessPublic},
		{http.MethodGet, "/products/search", h.Products.Search, accessPublic},
		{http.MethodGet, "/products/low-stock", h.Products.LowStock, accessStaff},
		{http.MethodGet, "/products/out-of-stock", h.Products.OutOfStock, accessStaff},
		{http.MethodGet, "/products/create", h.Products.CreateForm, accessStaff},
		{http.MethodPost, "/products/create", h.Products.Create, accessStaff},
		{http.MethodGet, "/products/{id}", h.Products.Show, accessPublic},
		{http.MethodPost, "/products/{id}/stock", h.Products.Stock, accessStaff},
		{http.MethodGet, "/products/{id}/edit", h.Products.EditForm, accessStaff},
		{http.MethodPost, "/products/{id}/update", h.Products.Edit, accessStaff},
		{http.MethodPost, "/products/{id}/delete", h.Products.Delete, accessManager},
		{http.MethodPost, "/products/{id}/add-stock", h.Products.AddStock, accessStaff},
		{http.MethodPost, "/products/{id}/reduce-stock", h.Products.ReduceStock, accessStaff},

		// Обратная связь
		{http.MethodGet, "/contact", h.Contact.Form, accessPublic},
		{http.MethodPost, "/contact", h.Contact.Submit, accessPublic},
		{http.MethodGet, "/contact/submissions", h.Contact.List, accessStaff},

		// Пользователи (admin only)
		{http.MethodGet, "/users", h.Users.List, accessAdmin},
		{http.MethodGet, "/users/create", h.Users.CreateForm, accessAdmin},
		{http.MethodPost, "/users/create", h.Users.Create, accessAdmin},
		{http.MethodGet, "/users/{id}", h.Users.Show, accessAdmin},
		{http.MethodGet, "/users/{id}/edit", h.Users.EditForm, accessAdmin},
		{http.MethodPost, "/users/{id}/update", h.Users.Edit, accessAdmin},
		{http.MethodPost, "/users/{id}/delete", h.Users.Delete, accessAdmin},
		{http.MethodGet, "/users/{id}/change-password", h.Users.PasswordForm, accessAdmin},
		{http.MethodPost, "/users/{id}/change-password", h.Users.ChangePassword, accessAdmin},
		{http.MethodPost, "/users/{id}/verify", h.Users.Verify, accessAdmin},

		// Настройки (admin only)
		{http.MethodGet, "/settings", h.Dashboard.Settings, accessAdmin},
		{http.MethodPost, "/settings/margin", h.Dashboard.UpdateMargin, accessAdmin},
	}
}
