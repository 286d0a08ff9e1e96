package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zolotnik/goldshop/internal/config"
	"github.com/zolotnik/goldshop/internal/domain/rolemask"
)

// testManager создаёт Manager с заданным секретом и атрибутами по умолчанию.
func testManager(t *testing.T, secret string) *Manager {
	t.Helper()
	m, err := NewManager(&config.Config{
		SessionSecret:   secret,
		SessionLifetime: time.Hour,
		SessionPath:     "/",
		SessionHTTPOnly: true,
	})
	if err != nil {
		t.Fatalf("Ошибка создания Manager: %v", err)
	}
	return m
}

// TestEncryptDecryptRoundTrip проверяет шифрование и дешифрование Data.
func TestEncryptDecryptRoundTrip(t *testing.T) {
	m := testManager(t, "")

	original := &Data{
		UserID:    42,
		Username:  "petrova",
		Email:     "petrova@example.com",
		RolesMask: rolemask.Manager | rolemask.Seller,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}

	encrypted, err := m.Encrypt(original)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if encrypted == "" {
		t.Fatal("Зашифрованная строка пустая")
	}

	decrypted, err := m.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}

	if decrypted.UserID != original.UserID {
		t.Errorf("UserID: want %d, got %d", original.UserID, decrypted.UserID)
	}
	if decrypted.Username != original.Username {
		t.Errorf("Username: want %q, got %q", original.Username, decrypted.Username)
	}
	if decrypted.Email != original.Email {
		t.Errorf("Email: want %q, got %q", original.Email, decrypted.Email)
	}
	if decrypted.RolesMask != original.RolesMask {
		t.Errorf("RolesMask: want %d, got %d", original.RolesMask, decrypted.RolesMask)
	}
	if decrypted.ExpiresAt != original.ExpiresAt {
		t.Errorf("ExpiresAt: want %d, got %d", original.ExpiresAt, decrypted.ExpiresAt)
	}
}

// TestDecryptWithWrongKey проверяет, что дешифрование чужим ключом не работает.
func TestDecryptWithWrongKey(t *testing.T) {
	m1 := testManager(t, "key-one")
	m2 := testManager(t, "key-two")

	encrypted, err := m1.Encrypt(&Data{Username: "secret"})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	if _, err := m2.Decrypt(encrypted); err == nil {
		t.Error("Ожидалась ошибка при дешифровании чужим ключом")
	}
}

// TestDecryptTampered проверяет, что подмена шифротекста обнаруживается.
func TestDecryptTampered(t *testing.T) {
	m := testManager(t, "test-key")

	encrypted, err := m.Encrypt(&Data{UserID: 1, Username: "admin"})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	// Портим последний символ base64-строки
	tampered := encrypted[:len(encrypted)-2] + "AA"
	if tampered == encrypted {
		tampered = encrypted[:len(encrypted)-2] + "BB"
	}
	if _, err := m.Decrypt(tampered); err == nil {
		t.Error("Ожидалась ошибка при подменённом шифротексте")
	}
}

// TestIsExpired проверяет логику истечения сессии.
func TestIsExpired(t *testing.T) {
	expired := &Data{ExpiresAt: time.Now().Add(-time.Minute).Unix()}
	if !expired.IsExpired() {
		t.Error("Ожидалось IsExpired()=true для истёкшей сессии")
	}

	fresh := &Data{ExpiresAt: time.Now().Add(time.Minute).Unix()}
	if fresh.IsExpired() {
		t.Error("Ожидалось IsExpired()=false для свежей сессии")
	}
}

// TestCookieSetAndGet проверяет установку и извлечение cookie.
func TestCookieSetAndGet(t *testing.T) {
	m := testManager(t, "test-key")

	data := m.NewData(7, "ivanova", "ivanova@example.com", rolemask.Admin)

	w := httptest.NewRecorder()
	if err := m.SetCookie(w, data); err != nil {
		t.Fatalf("Ошибка установки cookie: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Cookie не установлен")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	got, err := m.FromRequest(req)
	if err != nil {
		t.Fatalf("Ошибка чтения сессии из cookie: %v", err)
	}
	if got == nil {
		t.Fatal("Сессия не найдена")
	}
	if got.UserID != 7 {
		t.Errorf("UserID: want 7, got %d", got.UserID)
	}
	if got.Username != "ivanova" {
		t.Errorf("Username: want %q, got %q", "ivanova", got.Username)
	}
	if got.IsExpired() {
		t.Error("Свежая сессия не должна быть истёкшей")
	}

	cookie := cookies[0]
	if cookie.Name != CookieName {
		t.Errorf("Cookie name: want %q, got %q", CookieName, cookie.Name)
	}
	if cookie.Path != "/" {
		t.Errorf("Cookie path: want %q, got %q", "/", cookie.Path)
	}
	if !cookie.HttpOnly {
		t.Error("Cookie должен быть HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("Cookie должен быть SameSite=Lax")
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("MaxAge: want 3600, got %d", cookie.MaxAge)
	}
}

// TestCookieMissing проверяет, что отсутствие cookie возвращает nil, nil.
func TestCookieMissing(t *testing.T) {
	m := testManager(t, "test-key")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	data, err := m.FromRequest(req)
	if err != nil {
		t.Fatalf("Ожидалось nil error, получено: %v", err)
	}
	if data != nil {
		t.Error("Ожидалось nil data при отсутствии cookie")
	}
}

// TestClearCookie проверяет очистку session cookie.
func TestClearCookie(t *testing.T) {
	m := testManager(t, "test-key")

	w := httptest.NewRecorder()
	m.ClearCookie(w)

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Cookie очистки не установлен")
	}
	if cookies[0].MaxAge != -1 {
		t.Errorf("MaxAge: want -1, got %d", cookies[0].MaxAge)
	}
	if cookies[0].Value != "" {
		t.Error("Value должен быть пустым")
	}
}

// TestFlashRoundTrip проверяет одноразовое flash-сообщение.
func TestFlashRoundTrip(t *testing.T) {
	m := testManager(t, "test-key")

	w := httptest.NewRecorder()
	m.SetFlash(w, "success", "Товар добавлен")

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Flash cookie не установлен")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	w2 := httptest.NewRecorder()
	flash := m.PopFlash(w2, req)
	if flash == nil {
		t.Fatal("PopFlash() не нашёл сообщение")
	}
	if flash.Kind != "success" {
		t.Errorf("Kind: want %q, got %q", "success", flash.Kind)
	}
	if flash.Message != "Товар добавлен" {
		t.Errorf("Message: want %q, got %q", "Товар добавлен", flash.Message)
	}

	// PopFlash стирает cookie
	popped := w2.Result().Cookies()
	if len(popped) == 0 || popped[0].MaxAge != -1 {
		t.Error("PopFlash() должен удалить flash cookie")
	}

	// Без cookie сообщения нет
	if m.PopFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)) != nil {
		t.Error("PopFlash() без cookie должен вернуть nil")
	}
}
