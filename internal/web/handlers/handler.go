// Пакет handlers — HTTP-обработчики витрины магазина.
// Файл handler.go — общая часть обработчиков: отрисовка страниц
// с сессией и flash-сообщением, редиректы с учётом базового пути.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zolotnik/goldshop/internal/web/middleware"
	"github.com/zolotnik/goldshop/internal/web/respond"
	"github.com/zolotnik/goldshop/internal/web/session"
	"github.com/zolotnik/goldshop/internal/web/views"
)

// base — общая часть всех обработчиков витрины.
type base struct {
	views    *views.Renderer
	sessions *session.Manager
	basePath string
	logger   *slog.Logger
}

// newBase собирает общую часть с компонентным логгером.
func newBase(v *views.Renderer, s *session.Manager, basePath, component string, logger *slog.Logger) base {
	return base{
		views:    v,
		sessions: s,
		basePath: basePath,
		logger:   logger.With(slog.String("component", component)),
	}
}

// render отрисовывает страницу, дополняя данные сессией,
// flash-сообщением и базовым путём.
func (b *base) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		// Страница может отрисовываться и вне SessionAuth
		if fromCookie, err := b.sessions.FromRequest(r); err == nil && fromCookie != nil && !fromCookie.IsExpired() {
			sess = fromCookie
		}
	}

	b.views.Render(w, status, page, &views.PageData{
		Title:    title,
		BasePath: b.basePath,
		Session:  sess,
		Flash:    b.sessions.PopFlash(w, r),
		Data:     data,
	})
}

// redirect выполняет redirect с учётом базового пути приложения.
func (b *base) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, b.basePath+path, http.StatusFound)
}

// flashRedirect сохраняет flash-сообщение и выполняет redirect.
func (b *base) flashRedirect(w http.ResponseWriter, r *http.Request, kind, message, path string) {
	b.sessions.SetFlash(w, kind, message)
	b.redirect(w, r, path)
}

// notFound отрисовывает страницу 404 (JSON для AJAX-запросов).
func (b *base) notFound(w http.ResponseWriter, r *http.Request) {
	if respond.WantsJSON(r) {
		respond.Error(w, http.StatusNotFound, "Страница не найдена")
		return
	}
	b.render(w, r, http.StatusNotFound, "error404", "Страница не найдена", nil)
}

// idParam извлекает числовой параметр {id} из пути.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
