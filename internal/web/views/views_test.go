package views

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/domain/rolemask"
	"github.com/zolotnik/goldshop/internal/web/session"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("Золотник", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewRenderer() ошибка: %v", err)
	}
	return r
}

func TestNewRenderer_ParsesAllPages(t *testing.T) {
	r := testRenderer(t)

	// Каждая страница из pages/ должна собраться с layout
	want := []string{
		"contact", "contacts_list", "dashboard", "error404", "error500",
		"forgot_password", "login", "products_form", "products_list",
		"products_show", "register", "reset_password", "settings",
		"users_form", "users_list", "users_password",
	}
	for _, page := range want {
		if _, ok := r.pages[page]; !ok {
			t.Errorf("страница %q не разобрана", page)
		}
	}
}

func TestRender_GuestPage(t *testing.T) {
	r := testRenderer(t)

	w := httptest.NewRecorder()
	r.Render(w, 200, "login", &PageData{Title: "Вход"})

	if w.Code != 200 {
		t.Fatalf("статус = %d, хотели 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Вход — Золотник") {
		t.Error("заголовок страницы не отрисован")
	}
	// Гость видит ссылки входа, но не админских разделов
	if !strings.Contains(body, "/login") || strings.Contains(body, "/settings") {
		t.Error("навигация гостя отрисована неверно")
	}
}

func TestRender_ProductsListWithMargin(t *testing.T) {
	r := testRenderer(t)

	admin := &session.Data{
		UserID: 1, Username: "petrov", RolesMask: rolemask.Admin,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	data := struct {
		Products []*model.Product
		Query    string
		Margin   float64
	}{
		Products: []*model.Product{
			{ID: 7, Name: "Кольцо", Metal: "gold", Purity: 585,
				PricePerGram: 100, Stock: 3, LowStockThreshold: 5},
		},
		Margin: 20,
	}

	w := httptest.NewRecorder()
	r.Render(w, 200, "products_list", &PageData{
		Title: "Товары", Session: admin, Data: data,
	})

	if w.Code != 200 {
		t.Fatalf("статус = %d, хотели 200", w.Code)
	}
	body := w.Body.String()
	// Розничная цена за грамм: 100 * 1.20 = 120.00
	if !strings.Contains(body, "120.00 ₽") {
		t.Errorf("розничная цена не отрисована: %s", body)
	}
	if !strings.Contains(body, "/products/7") {
		t.Error("ссылка на карточку товара не отрисована")
	}
	// Админ видит меню пользователей и настроек
	if !strings.Contains(body, "/users") || !strings.Contains(body, "/settings") {
		t.Error("админская навигация не отрисована")
	}
}

func TestRender_UnknownPageIs500(t *testing.T) {
	r := testRenderer(t)

	w := httptest.NewRecorder()
	r.Render(w, 200, "нет-такой-страницы", nil)

	if w.Code != 500 {
		t.Fatalf("статус = %d, хотели 500", w.Code)
	}
}

func TestRender_FlashMessage(t *testing.T) {
	r := testRenderer(t)

	w := httptest.NewRecorder()
	r.Render(w, 200, "login", &PageData{
		Title: "Вход",
		Flash: &session.Flash{Kind: "error", Message: "Неверный пароль"},
	})

	if !strings.Contains(w.Body.String(), "Неверный пароль") {
		t.Error("flash-сообщение не отрисовано")
	}
}
