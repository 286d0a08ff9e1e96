// Пакет middleware — HTTP middleware витрины: сессии, роли,
// логирование, метрики, восстановление после паники.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/zolotnik/goldshop/internal/auth"
	"github.com/zolotnik/goldshop/internal/domain/model"
	"github.com/zolotnik/goldshop/internal/domain/rolemask"
	"github.com/zolotnik/goldshop/internal/web/respond"
	"github.com/zolotnik/goldshop/internal/web/session"
)

// RememberStore обменивает remember-токены на пользователей.
// Реализуется auth.Manager.
type RememberStore interface {
	ConsumeRememberToken(ctx context.Context, token string) (*model.User, error)
	CreateRememberToken(ctx context.Context, userID int64) (string, error)
}

// contextKey — тип для ключей контекста middleware.
type contextKey string

const (
	// ContextKeySession — данные сессии в контексте запроса.
	ContextKeySession contextKey = "session"
)

// SessionAuth — middleware проверки сессии.
// Извлекает сессию из зашифрованного cookie; без действующей сессии —
// redirect на страницу входа (или 401 для AJAX).
type SessionAuth struct {
	sessions *session.Manager
	remember RememberStore
	loginURL string
	logger   *slog.Logger
}

// NewSessionAuth создаёт middleware проверки сессии.
// remember может быть nil — тогда вход по cookie «запомнить меня»
// отключён.
func NewSessionAuth(sessions *session.Manager, remember RememberStore, loginURL string, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		sessions: sessions,
		remember: remember,
		loginURL: loginURL,
		logger:   logger.With(slog.String("component", "auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware для проверки сессии.
func (sa *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sa.sessions.FromRequest(r)
			if err != nil {
				sa.logger.Debug("Ошибка чтения сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				// Повреждённый cookie — очищаем и на вход
				sa.sessions.ClearCookie(w)
				sa.deny(w, r)
				return
			}

			if sess == nil || sess.IsExpired() {
				if sess != nil {
					sa.sessions.ClearCookie(w)
				}
				// Последний шанс — cookie «запомнить меня»
				sess = sa.revive(w, r)
				if sess == nil {
					sa.deny(w, r)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// revive восстанавливает сессию по remember-токену из cookie.
// Токен одноразовый, поэтому после обмена выпускается новый.
// Возвращает nil если войти по токену не удалось.
func (sa *SessionAuth) revive(w http.ResponseWriter, r *http.Request) *session.Data {
	if sa.remember == nil {
		return nil
	}
	cookie, err := r.Cookie(session.RememberCookieName)
	if err != nil {
		return nil
	}
	if cookie.Value == "" {
		// net/http отбрасывает недопустимые значения cookie, оставляя пустую строку
		sa.sessions.ClearRememberCookie(w)
		return nil
	}

	user, err := sa.remember.ConsumeRememberToken(r.Context(), cookie.Value)
	if err != nil {
		sa.logger.Debug("Вход по remember-токену не удался",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
		)
		sa.sessions.ClearRememberCookie(w)
		return nil
	}

	sess := sa.sessions.NewData(user.ID, user.Username, user.Email, user.RolesMask)
	if err := sa.sessions.SetCookie(w, sess); err != nil {
		sa.logger.Error("Ошибка установки сессии", slog.Any("error", err))
		return nil
	}

	next, err := sa.remember.CreateRememberToken(r.Context(), user.ID)
	if err != nil {
		sa.logger.Warn("Ошибка ротации remember-токена", slog.Any("error", err))
		sa.sessions.ClearRememberCookie(w)
	} else {
		sa.sessions.SetRememberCookie(w, next, auth.RememberTokenTTL)
	}

	sa.logger.Info("Сессия восстановлена по remember-токену",
		slog.String("username", user.Username),
	)
	return sess
}

// deny отклоняет неаутентифицированный запрос.
func (sa *SessionAuth) deny(w http.ResponseWriter, r *http.Request) {
	if respond.WantsJSON(r) {
		respond.Error(w, http.StatusUnauthorized, "Требуется вход")
		return
	}
	http.Redirect(w, r, sa.loginURL, http.StatusFound)
}

// RequireRole возвращает middleware, пропускающий только пользователей,
// маска ролей которых покрывает хотя бы одну из требуемых ролей.
// Применяется после SessionAuth.
func RequireRole(mask int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil || !rolemask.HasAny(sess.RolesMask, mask) {
				if respond.WantsJSON(r) {
					respond.Error(w, http.StatusForbidden, "Недостаточно прав")
					return
				}
				http.Error(w, "Недостаточно прав", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext извлекает данные сессии из контекста запроса.
// Возвращает nil если запрос не прошёл через SessionAuth.
func SessionFromContext(ctx context.Context) *session.Data {
	sess, ok := ctx.Value(ContextKeySession).(*session.Data)
	if !ok {
		return nil
	}
	return sess
}
