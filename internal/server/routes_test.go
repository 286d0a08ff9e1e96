package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// mountStubs монтирует шаблоны таблицы маршрутов со стабами,
// возвращающими свой шаблон. Позволяет проверить диспетчеризацию
// без полной сборки обработчиков.
func mountStubs(t *testing.T) chi.Router {
	t.Helper()

	router := chi.NewRouter()
	for _, rt := range Routes(Handlers{}) {
		pattern := rt.Pattern
		router.Method(rt.Method, pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, pattern)
		}))
	}
	return router
}

// matchedPattern возвращает шаблон, на который попал запрос.
func matchedPattern(t *testing.T, router chi.Router, method, path string) (string, int) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Body.String(), w.Code
}

func TestRoutes_LiteralBeforeParameterized(t *testing.T) {
	router := mountStubs(t)

	tests := []struct {
		method string
		path   string
		want   string
	}{
		// Буквальные пути не захватываются /products/{id}
		{http.MethodGet, "/products/create", "/products/create"},
		{http.MethodGet, "/products/search", "/products/search"},
		{http.MethodGet, "/products/search?q=gold", "/products/search"},
		{http.MethodGet, "/products/low-stock", "/products/low-stock"},
		{http.MethodGet, "/products/out-of-stock", "/products/out-of-stock"},
		// Параметризованные пути работают
		{http.MethodGet, "/products/123", "/products/{id}"},
		{http.MethodGet, "/products/123/edit", "/products/{id}/edit"},
		{http.MethodPost, "/products/123/update", "/products/{id}/update"},
		{http.MethodPost, "/products/123/stock", "/products/{id}/stock"},
		{http.MethodPost, "/products/123/reduce-stock", "/products/{id}/reduce-stock"},
		{http.MethodGet, "/users/7/change-password", "/users/{id}/change-password"},
		{http.MethodPost, "/users/7/verify", "/users/{id}/verify"},
		{http.MethodGet, "/users/create", "/users/create"},
	}

	for _, tt := range tests {
		got, code := matchedPattern(t, router, tt.method, tt.path)
		if code != http.StatusOK {
			t.Errorf("%s %s: статус = %d", tt.method, tt.path, code)
			continue
		}
		if got != tt.want {
			t.Errorf("%s %s попал в %q, хотели %q", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestRoutes_UnknownPathIs404(t *testing.T) {
	router := mountStubs(t)

	for _, path := range []string{"/nope", "/products/123/nope", "/users/abc/verify/extra"} {
		if _, code := matchedPattern(t, router, http.MethodGet, path); code != http.StatusNotFound {
			t.Errorf("GET %s: статус = %d, хотели 404", path, code)
		}
	}
}

func TestRoutes_MethodMatters(t *testing.T) {
	router := mountStubs(t)

	// Удаление товара — только POST
	if _, code := matchedPattern(t, router, http.MethodGet, "/products/1/delete"); code == http.StatusOK {
		t.Error("GET /products/1/delete не должен совпадать с маршрутом POST")
	}
	if _, code := matchedPattern(t, router, http.MethodPost, "/products/1/delete"); code != http.StatusOK {
		t.Errorf("POST /products/1/delete: статус = %d", code)
	}
}

func TestRoutes_NoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, rt := range Routes(Handlers{}) {
		key := rt.Method + " " + rt.Pattern
		if seen[key] {
			t.Errorf("маршрут объявлен дважды: %s", key)
		}
		seen[key] = true
	}
}

func TestRoutes_GuardsDeclared(t *testing.T) {
	// Администрирование пользователей и настройки не бывают публичными
	for _, rt := range Routes(Handlers{}) {
		switch {
		case rt.Pattern == "/users" || len(rt.Pattern) > 6 && rt.Pattern[:7] == "/users/":
			if rt.Roles != accessAdmin {
				t.Errorf("%s %s: ожидали доступ только для admin", rt.Method, rt.Pattern)
			}
		case rt.Pattern == "/settings" || rt.Pattern == "/settings/margin":
			if rt.Roles != accessAdmin {
				t.Errorf("%s %s: ожидали доступ только для admin", rt.Method, rt.Pattern)
			}
		}
	}
}
