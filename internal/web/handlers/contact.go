// contact.go — форма обратной связи и просмотр обращений.
package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/repository"
	"github.com/zolotnik/goldshop/internal/web/session"
	"github.com/zolotnik/goldshop/internal/web/views"
)

// ContactHandler — обработчики обратной связи.
type ContactHandler struct {
	base
	contacts repository.ContactRepository
}

// NewContactHandler создаёт обработчики обратной связи.
func NewContactHandler(
	contacts repository.ContactRepository,
	v *views.Renderer,
	s *session.Manager,
	basePath string,
	logger *slog.Logger,
) *ContactHandler {
	return &ContactHandler{
		base:     newBase(v, s, basePath, "contact", logger),
		contacts: contacts,
	}
}

// contactFormData — данные формы обратной связи.
type contactFormData struct {
	Name    string
	Email   string
	Message string
}

// contactsListData — данные страницы обращений.
type contactsListData struct {
	Submissions []*model.ContactSubmission
}

// Form — GET /contact.
func (h *ContactHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contact", "Связаться с нами", &contactFormData{})
}

// Submit — POST /contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashRedirect(w, r, "error", "Не удалось разобрать форму", "/contact")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	message := strings.TrimSpace(r.PostFormValue("message"))

	switch {
	case name == "" || message == "":
		h.flashRedirect(w, r, "error", "Заполните имя и сообщение", "/contact")
		return
	case !validEmail(email):
		h.flashRedirect(w, r, "error", "Укажите корректный email", "/contact")
		return
	}

	submission := &model.ContactSubmission{Name: name, Email: email, Message: message}
	if err := h.contacts.Create(r.Context(), submission); err != nil {
		h.logger.Error("Ошибка сохранения обращения", slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Не удалось отправить сообщение", "/contact")
		return
	}

	h.logger.Info("Получено обращение", slog.Int64("id", submission.ID))
	h.flashRedirect(w, r, "success", "Сообщение отправлено, мы ответим на ваш email", "/contact")
}

// List — GET /contact/submissions, просмотр обращений персоналом.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.contacts.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения обращений", slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "contacts_list", "Обращения", &contactsListData{
		Submissions: submissions,
	})
}

// validEmail проверяет синтаксис адреса.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}
