// auth.go — обработчики входа, регистрации, подтверждения аккаунта
// и восстановления пароля.
package handlers

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/zolotnik/goldshop/internal/auth"
	"github.com/zolotnik/goldshop/internal/repository"
	"github.com/zolotnik/goldshop/internal/web/session"
	"github.com/zolotnik/goldshop/internal/web/views"
)

// AuthHandler — обработчики аутентификации.
type AuthHandler struct {
	base
	auth *auth.Manager
}

// NewAuthHandler создаёт обработчики аутентификации.
func NewAuthHandler(
	manager *auth.Manager,
	v *views.Renderer,
	s *session.Manager,
	basePath string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		base: newBase(v, s, basePath, "auth", logger),
		auth: manager,
	}
}

// loginFormData — данные формы входа.
type loginFormData struct {
	Username string
}

// registerFormData — данные формы регистрации.
type registerFormData struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// resetFormData — данные формы нового пароля.
type resetFormData struct {
	Token string
}

// remoteIP извлекает адрес клиента без порта.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginForm — GET /login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", "Вход", &loginFormData{})
}

// Login — POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashRedirect(w, r, "error", "Не удалось разобрать форму", "/login")
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	user, err := h.auth.Login(r.Context(), username, password, remoteIP(r))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrLocked):
			h.flashRedirect(w, r, "error",
				"Слишком много неудачных попыток, попробуйте позже", "/login")
		case errors.Is(err, auth.ErrNotVerified):
			h.flashRedirect(w, r, "error",
				"Подтвердите аккаунт по ссылке из письма", "/login")
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.flashRedirect(w, r, "error", "Неверное имя пользователя или пароль", "/login")
		default:
			h.logger.Error("Ошибка входа", slog.Any("error", err))
			h.flashRedirect(w, r, "error", "Внутренняя ошибка, попробуйте позже", "/login")
		}
		return
	}

	data := h.sessions.NewData(user.ID, user.Username, user.Email, user.RolesMask)
	if err := h.sessions.SetCookie(w, data); err != nil {
		h.logger.Error("Ошибка установки сессии", slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Внутренняя ошибка, попробуйте позже", "/login")
		return
	}

	if r.PostFormValue("remember") == "1" {
		token, err := h.auth.CreateRememberToken(r.Context(), user.ID)
		if err != nil {
			h.logger.Warn("Ошибка выпуска remember-токена", slog.Any("error", err))
		} else {
			h.sessions.SetRememberCookie(w, token, auth.RememberTokenTTL)
		}
	}

	h.redirect(w, r, "/")
}

// Logout — GET /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, err := h.sessions.FromRequest(r); err == nil && sess != nil {
		h.auth.Audit(r.Context(), sess.UserID, sess.Username, auth.EventLogout, "", remoteIP(r))
		if err := h.auth.RevokeRememberTokens(r.Context(), sess.UserID); err != nil {
			h.logger.Warn("Ошибка отзыва remember-токенов", slog.Any("error", err))
		}
	}
	h.sessions.ClearCookie(w)
	h.sessions.ClearRememberCookie(w)
	h.flashRedirect(w, r, "success", "Вы вышли из магазина", "/login")
}

// RegisterForm — GET /register.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Регистрация", &registerFormData{})
}

// Register — POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashRedirect(w, r, "error", "Не удалось разобрать форму", "/register")
		return
	}

	if r.PostFormValue("password") != r.PostFormValue("password_confirm") {
		h.flashRedirect(w, r, "error", "Пароли не совпадают", "/register")
		return
	}

	in := auth.RegisterInput{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password:  r.PostFormValue("password"),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
	}
	if in.Username == "" || in.Email == "" {
		h.flashRedirect(w, r, "error", "Укажите имя пользователя и email", "/register")
		return
	}

	user, token, err := h.auth.Register(r.Context(), in, remoteIP(r))
	if err != nil {
		h.flashRedirect(w, r, "error", registerErrorMessage(err), "/register")
		return
	}

	// Доставка письма не настроена: ссылка подтверждения попадает в лог
	h.logger.Info("Ссылка подтверждения аккаунта",
		slog.String("username", user.Username),
		slog.String("url", h.basePath+"/confirm?token="+token))

	h.flashRedirect(w, r, "success",
		"Регистрация завершена, подтвердите аккаунт по ссылке из письма", "/login")
}

// registerErrorMessage переводит ошибку регистрации в текст для пользователя.
func registerErrorMessage(err error) string {
	if errors.Is(err, repository.ErrConflict) {
		return "Имя пользователя или email уже заняты"
	}
	return err.Error()
}

// Confirm — GET /confirm?token=…, подтверждение аккаунта.
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.notFound(w, r)
		return
	}

	if err := h.auth.Confirm(r.Context(), token, remoteIP(r)); err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenUsed):
			h.flashRedirect(w, r, "error", "Аккаунт уже подтверждён", "/login")
		case errors.Is(err, auth.ErrTokenExpired):
			h.flashRedirect(w, r, "error", "Срок действия ссылки истёк", "/login")
		case errors.Is(err, auth.ErrTokenInvalid):
			h.notFound(w, r)
		default:
			h.logger.Error("Ошибка подтверждения аккаунта", slog.Any("error", err))
			h.flashRedirect(w, r, "error", "Внутренняя ошибка, попробуйте позже", "/login")
		}
		return
	}

	h.flashRedirect(w, r, "success", "Аккаунт подтверждён, можно войти", "/login")
}

// ForgotForm — GET /forgot-password.
func (h *AuthHandler) ForgotForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "forgot_password", "Восстановление пароля", nil)
}

// Forgot — POST /forgot-password.
// Ответ одинаков для любого email: зарегистрирован адрес или нет,
// наружу это не раскрывается.
func (h *AuthHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	if email == "" {
		h.flashRedirect(w, r, "error", "Укажите email", "/forgot-password")
		return
	}

	token, err := h.auth.ForgotPassword(r.Context(), email, remoteIP(r))
	if err != nil {
		h.logger.Error("Ошибка запроса сброса пароля", slog.Any("error", err))
		h.flashRedirect(w, r, "error", "Внутренняя ошибка, попробуйте позже", "/forgot-password")
		return
	}

	if token != "" {
		// Доставка письма не настроена: ссылка сброса попадает в лог
		h.logger.Info("Ссылка сброса пароля",
			slog.String("url", h.basePath+"/reset-password?token="+token))
	}

	h.flashRedirect(w, r, "success",
		"Если адрес зарегистрирован, на него отправлена ссылка для сброса пароля", "/login")
}

// ResetForm — GET /reset-password?token=….
func (h *AuthHandler) ResetForm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.notFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "reset_password", "Новый пароль", &resetFormData{Token: token})
}

// Reset — POST /reset-password.
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashRedirect(w, r, "error", "Не удалось разобрать форму", "/forgot-password")
		return
	}

	token := r.PostFormValue("token")
	password := r.PostFormValue("password")
	if password != r.PostFormValue("password_confirm") {
		h.flashRedirect(w, r, "error", "Пароли не совпадают", "/reset-password?token="+token)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), token, password, remoteIP(r)); err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenUsed), errors.Is(err, auth.ErrTokenExpired),
			errors.Is(err, auth.ErrTokenInvalid):
			h.flashRedirect(w, r, "error",
				"Ссылка сброса недействительна, запросите новую", "/forgot-password")
		default:
			h.flashRedirect(w, r, "error", err.Error(), "/reset-password?token="+token)
		}
		return
	}

	h.flashRedirect(w, r, "success", "Пароль изменён, войдите с новым паролем", "/login")
}
