// Пакет views — HTML-представления витрины.
// Шаблоны встраиваются в бинарник; каждая страница собирается
// из общего каркаса layout.html и своего файла в pages/.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/zolotnik/goldshop/internal/domain/rolemask"
	"github.com/zolotnik/goldshop/internal/web/session"
)

//go:embed templates
var templatesFS embed.FS

// PageData — данные, доступные каждому шаблону.
type PageData struct {
	// Title — заголовок страницы.
	Title string
	// AppName — название магазина.
	AppName string
	// BasePath — префикс URL приложения.
	BasePath string
	// Session — сессия текущего пользователя, nil для гостя.
	Session *session.Data
	// Flash — одноразовое сообщение, nil если нет.
	Flash *session.Flash
	// Data — данные конкретной страницы.
	Data any
}

// IsAdmin сообщает, входит ли пользователь в роль admin.
func (p *PageData) IsAdmin() bool {
	return p.Session != nil && rolemask.Has(p.Session.RolesMask, rolemask.Admin)
}

// IsStaff сообщает, относится ли пользователь к персоналу магазина.
func (p *PageData) IsStaff() bool {
	return p.Session != nil &&
		rolemask.HasAny(p.Session.RolesMask, rolemask.Admin|rolemask.Manager|rolemask.Seller)
}

// Renderer — рендерер HTML-страниц из встроенных шаблонов.
type Renderer struct {
	pages   map[string]*template.Template
	appName string
	logger  *slog.Logger
}

// funcMap — функции, доступные в шаблонах.
var funcMap = template.FuncMap{
	"money": func(v float64) string {
		return fmt.Sprintf("%.2f ₽", v)
	},
	"roles": rolemask.String,
}

// NewRenderer разбирает все встроенные шаблоны страниц.
func NewRenderer(appName string, logger *slog.Logger) (*Renderer, error) {
	pageFiles, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска шаблонов: %w", err)
	}
	if len(pageFiles) == 0 {
		return nil, fmt.Errorf("шаблоны страниц не найдены")
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New("layout.html").Funcs(funcMap).
			ParseFS(templatesFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("ошибка разбора шаблона %s: %w", file, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{
		pages:   pages,
		appName: appName,
		logger:  logger.With(slog.String("component", "views")),
	}, nil
}

// Render отрисовывает страницу page с данными data.
// Страница сначала собирается в буфер: при ошибке шаблона клиент
// получает целый 500, а не пол-страницы.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *PageData) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.logger.Error("Неизвестный шаблон страницы", slog.String("page", page))
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = &PageData{}
	}
	if data.AppName == "" {
		data.AppName = r.appName
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		r.logger.Error("Ошибка отрисовки шаблона",
			slog.String("page", page), slog.Any("error", err))
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
