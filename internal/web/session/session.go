// Пакет session — сессии покупателей и сотрудников магазина.
// Данные сессии шифруются AES-256-GCM и хранятся в HTTP cookie,
// состояние на сервере не держится.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zolotnik/goldshop/internal/config"
)

// Имя cookie для зашифрованной сессии.
const CookieName = "goldshop_session"

// Имя cookie одноразового flash-сообщения.
const FlashCookieName = "goldshop_flash"

// Имя cookie remember-токена («запомнить меня»).
const RememberCookieName = "goldshop_remember"

// Data — данные сессии, хранящиеся в зашифрованном cookie.
type Data struct {
	// UserID — идентификатор пользователя.
	UserID int64 `json:"uid"`
	// Username — имя для входа.
	Username string `json:"username"`
	// Email — адрес пользователя.
	Email string `json:"email"`
	// RolesMask — битовая маска ролей на момент входа.
	RolesMask int `json:"roles"`
	// ExpiresAt — время истечения сессии (Unix timestamp).
	ExpiresAt int64 `json:"expires_at"`
}

// IsExpired проверяет, истекла ли сессия.
func (d *Data) IsExpired() bool {
	return time.Now().Unix() >= d.ExpiresAt
}

// Flash — одноразовое сообщение для следующей страницы.
type Flash struct {
	// Kind — тип сообщения: success или error.
	Kind string `json:"kind"`
	// Message — текст сообщения.
	Message string `json:"message"`
}

// Manager — менеджер сессий. Шифрует/дешифрует Data в HTTP cookies
// через AES-256-GCM; атрибуты cookie берутся из конфигурации.
type Manager struct {
	gcm      cipher.AEAD
	lifetime time.Duration
	path     string
	domain   string
	secure   bool
	httpOnly bool
}

// NewManager создаёт менеджер сессий.
// Если секрет пустой — генерируется случайный ключ
// (сессии не переживут рестарт).
func NewManager(cfg *config.Config) (*Manager, error) {
	var keyBytes []byte

	if cfg.SessionSecret == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		// Декодируем base64-ключ или используем как raw bytes
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(cfg.SessionSecret)
		if err != nil || len(keyBytes) != 32 {
			// Если не base64 — хешируем строку до 32 bytes через SHA-256
			// (для удобства конфигурации)
			keyBytes = sha256Key(cfg.SessionSecret)
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &Manager{
		gcm:      gcm,
		lifetime: cfg.SessionLifetime,
		path:     cfg.SessionPath,
		domain:   cfg.SessionDomain,
		secure:   cfg.SessionSecure,
		httpOnly: cfg.SessionHTTPOnly,
	}, nil
}

// NewData собирает данные сессии со сроком жизни из конфигурации.
func (m *Manager) NewData(userID int64, username, email string, rolesMask int) *Data {
	return &Data{
		UserID:    userID,
		Username:  username,
		Email:     email,
		RolesMask: rolesMask,
		ExpiresAt: time.Now().Add(m.lifetime).Unix(),
	}
}

// Encrypt шифрует Data и возвращает base64-строку.
func (m *Manager) Encrypt(data *Data) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	// Уникальный nonce для каждого шифрования
	nonce := make([]byte, m.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	ciphertext := m.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует base64-строку обратно в Data.
func (m *Manager) Decrypt(encrypted string) (*Data, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := m.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := m.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data Data
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}

	return &data, nil
}

// SetCookie устанавливает зашифрованный session cookie в ответ.
func (m *Manager) SetCookie(w http.ResponseWriter, data *Data) error {
	encrypted, err := m.Encrypt(data)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encrypted,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   int(m.lifetime.Seconds()),
		HttpOnly: m.httpOnly,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// FromRequest извлекает и дешифрует Data из cookie запроса.
// Возвращает nil, nil если cookie отсутствует.
func (m *Manager) FromRequest(r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	return m.Decrypt(cookie.Value)
}

// ClearCookie удаляет session cookie из ответа (выход).
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   -1,
		HttpOnly: m.httpOnly,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetRememberCookie устанавливает cookie с remember-токеном.
// Срок жизни задаёт вызывающая сторона (срок токена в базе).
func (m *Manager) SetRememberCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    token,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearRememberCookie удаляет cookie remember-токена.
func (m *Manager) ClearRememberCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    "",
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetFlash сохраняет одноразовое сообщение для следующей страницы.
func (m *Manager) SetFlash(w http.ResponseWriter, kind, message string) {
	payload, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.URLEncoding.EncodeToString(payload),
		Path:     m.path,
		MaxAge:   60,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash извлекает flash-сообщение и сразу удаляет его cookie.
// Возвращает nil если сообщения нет.
func (m *Manager) PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     m.path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	payload, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flash Flash
	if err := json.Unmarshal(payload, &flash); err != nil {
		return nil
	}
	return &flash
}

// sha256Key хеширует строковый ключ в 32 bytes через SHA-256.
func sha256Key(key string) []byte {
	h := sha256.Sum256([]byte(key))
	return h[:]
}
