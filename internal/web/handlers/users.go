// users.go — администрирование пользователей: список, создание,
// изменение, удаление, смена пароля, переключение подтверждения.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zolotnik/goldshop/internal/auth"
	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/repository"
	"github.com/zolotnik/goldshop/internal/web/middleware"
	"github.com/zolotnik/goldshop/internal/web/respond"
	"github.com/zolotnik/goldshop/internal/web/session"
	"github.com/zolotnik/goldshop/internal/web/views"
)

// UsersHandler — обработчики администрирования пользователей.
type UsersHandler struct {
	base
	users repository.UserRepository
	roles repository.RoleRepository
}

// NewUsersHandler создаёт обработчики пользователей.
func NewUsersHandler(
	users repository.UserRepository,
	roles repository.RoleRepository,
	v *views.Renderer,
	s *session.Manager,
	basePath string,
	logger *slog.Logger,
) *UsersHandler {
	return &UsersHandler{
		base:  newBase(v, s, basePath, "users", logger),
		users: users,
		roles: roles,
	}
}

// usersListData — данные страницы списка пользователей.
type usersListData struct {
	Users []*model.User
}

// userFormData — данные формы пользователя.
type userFormData struct {
	User  *model.User
	Roles []*model.Role
	IsNew bool
}

// List — GET /users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка пользователей", slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "users_list", "Пользователи", &usersListData{Users: users})
}

// CreateForm — GET /users/create.
func (h *UsersHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	// По умолчанию в форме выбрана роль покупателя
	blank := &model.User{}
	for _, role := range roles {
		if role.Name == "customer" {
			blank.RolesID = role.ID
			break
		}
	}

	h.render(w, r, http.StatusOK, "users_form", "Новый пользователь", &userFormData{
		User:  blank,
		Roles: roles,
		IsNew: true,
	})
}

// Create — POST /users/create.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, msg := h.parseUserForm(r)
	if msg != "" {
		h.flashRedirect(w, r, "error", msg, "/users/create")
		return
	}

	hash, err := auth.HashPassword(r.PostFormValue("password"))
	if err != nil {
		h.flashRedirect(w, r, "error", err.Error(), "/users/create")
		return
	}
	user.PasswordHash = hash

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			h.flashRedirect(w, r, "error",
				"Имя пользователя или email уже заняты", "/users/create")
			return
		}
		h.logger.Error("Ошибка создания пользователя", slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Не удалось создать пользователя", "/users/create")
		return
	}

	h.logger.Info("Создан пользователь",
		slog.Int64("id", user.ID), slog.String("username", user.Username))
	h.flashRedirect(w, r, "success", "Пользователь создан", "/users")
}

// Show — GET /users/{id}. Карточка пользователя совпадает с формой
// редактирования, поэтому просто переадресуем на неё.
func (h *UsersHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	h.redirect(w, r, fmt.Sprintf("/users/%d/edit", user.ID))
}

// EditForm — GET /users/{id}/edit.
func (h *UsersHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	roles, err := h.roles.List(r.Context())
	if err != nil {
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return
	}

	h.render(w, r, http.StatusOK, "users_form", "Изменение пользователя", &userFormData{
		User:  user,
		Roles: roles,
	})
}

// Edit — POST /users/{id}/update.
func (h *UsersHandler) Edit(w http.ResponseWriter, r *http.Request) {
	current, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	user, msg := h.parseUserForm(r)
	if msg != "" {
		h.flashRedirect(w, r, "error", msg, fmt.Sprintf("/users/%d/edit", current.ID))
		return
	}
	user.ID = current.ID

	if _, err := h.users.Update(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			h.flashRedirect(w, r, "error", "Имя пользователя или email уже заняты",
				fmt.Sprintf("/users/%d/edit", current.ID))
			return
		}
		h.logger.Error("Ошибка изменения пользователя",
			slog.Int64("id", current.ID), slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Не удалось сохранить пользователя",
			fmt.Sprintf("/users/%d/edit", current.ID))
		return
	}

	h.flashRedirect(w, r, "success", "Пользователь сохранён", "/users")
}

// Delete — POST /users/{id}/delete.
// Администратор не может удалить собственный аккаунт.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.notFound(w, r)
		return
	}

	if sess := middleware.SessionFromContext(r.Context()); sess != nil && sess.UserID == id {
		h.flashRedirect(w, r, "error", "Нельзя удалить собственный аккаунт", "/users")
		return
	}

	affected, err := h.users.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("Ошибка удаления пользователя",
			slog.Int64("id", id), slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Не удалось удалить пользователя", "/users")
		return
	}
	if affected == 0 {
		h.notFound(w, r)
		return
	}

	h.logger.Info("Удалён пользователь", slog.Int64("id", id))
	h.flashRedirect(w, r, "success", "Пользователь удалён", "/users")
}

// PasswordForm — GET /users/{id}/change-password.
func (h *UsersHandler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	h.render(w, r, http.StatusOK, "users_password", "Смена пароля", &userFormData{User: user})
}

// ChangePassword — POST /users/{id}/change-password.
func (h *UsersHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	password := r.PostFormValue("password")
	if password != r.PostFormValue("password_confirm") {
		h.flashRedirect(w, r, "error", "Пароли не совпадают",
			fmt.Sprintf("/users/%d/change-password", user.ID))
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.flashRedirect(w, r, "error", err.Error(),
			fmt.Sprintf("/users/%d/change-password", user.ID))
		return
	}

	if _, err := h.users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		h.logger.Error("Ошибка смены пароля",
			slog.Int64("id", user.ID), slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Не удалось сменить пароль",
			fmt.Sprintf("/users/%d/change-password", user.ID))
		return
	}

	h.logger.Info("Сменён пароль пользователя", slog.Int64("id", user.ID))
	h.flashRedirect(w, r, "success", "Пароль изменён", "/users")
}

// Verify — POST /users/{id}/verify, AJAX-переключение подтверждения.
func (h *UsersHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Пользователь не найден")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Пользователь не найден")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "Внутренняя ошибка")
		return
	}

	verified := !user.Verified
	if _, err := h.users.SetVerified(r.Context(), id, verified); err != nil {
		h.logger.Error("Ошибка переключения подтверждения",
			slog.Int64("id", id), slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "Внутренняя ошибка")
		return
	}

	message := "Аккаунт подтверждён"
	if !verified {
		message = "Подтверждение снято"
	}
	respond.Success(w, message, map[string]any{"verified": verified})
}

// loadUser извлекает пользователя из {id}; при отсутствии — 404.
func (h *UsersHandler) loadUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, err := idParam(r)
	if err != nil {
		h.notFound(w, r)
		return nil, false
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.notFound(w, r)
			return nil, false
		}
		h.logger.Error("Ошибка получения пользователя",
			slog.Int64("id", id), slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, "error500", "Ошибка", nil)
		return nil, false
	}
	return user, true
}

// parseUserForm разбирает форму пользователя (без пароля).
// Роль ищется в справочнике по имени: в roles_id попадает id строки,
// в roles_mask — бит роли.
func (h *UsersHandler) parseUserForm(r *http.Request) (*model.User, string) {
	if err := r.ParseForm(); err != nil {
		return nil, "Не удалось разобрать форму"
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	if username == "" || email == "" {
		return nil, "Укажите имя пользователя и email"
	}

	role, err := h.roles.GetByName(r.Context(), r.PostFormValue("role"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "Укажите роль"
		}
		h.logger.Error("Ошибка поиска роли", slog.Any("error", err))
		return nil, "Не удалось определить роль"
	}

	return &model.User{
		Username:  username,
		Email:     email,
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		RolesID:   role.ID,
		RolesMask: role.Mask,
		Verified:  r.PostFormValue("verified") == "1",
	}, ""
}
