package auth

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("правильный-пароль")
	if err != nil {
		t.Fatalf("HashPassword() ошибка: %v", err)
	}
	if hash == "правильный-пароль" {
		t.Fatal("HashPassword() вернул пароль открытым текстом")
	}

	if !CheckPassword(hash, "правильный-пароль") {
		t.Error("CheckPassword() отверг верный пароль")
	}
	if CheckPassword(hash, "неверный-пароль") {
		t.Error("CheckPassword() принял неверный пароль")
	}
	if CheckPassword("не-хеш", "правильный-пароль") {
		t.Error("CheckPassword() принял пароль при повреждённом хеше")
	}
}

func TestHashPassword_Unique(t *testing.T) {
	// bcrypt солит каждый хеш
	h1, err := HashPassword("одинаковый-пароль")
	if err != nil {
		t.Fatalf("HashPassword() ошибка: %v", err)
	}
	h2, err := HashPassword("одинаковый-пароль")
	if err != nil {
		t.Fatalf("HashPassword() ошибка: %v", err)
	}
	if h1 == h2 {
		t.Error("два хеша одного пароля совпали")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"минимальная длина", "12345678", false},
		{"короткий", "1234567", true},
		{"пустой", "", true},
		{"кириллица считается посимвольно", "пароль12", false},
		{"слишком длинный", strings.Repeat("a", 73), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) ошибка = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestParseResetToken_Invalid(t *testing.T) {
	m := &Manager{resetSecret: []byte("test-secret")}

	if _, err := m.parseResetToken("не-jwt"); err != ErrTokenInvalid {
		t.Errorf("parseResetToken(мусор): ошибка = %v, хотели ErrTokenInvalid", err)
	}

	// Токен, подписанный другим секретом
	other := &Manager{resetSecret: []byte("other-secret")}
	claims := &resetClaims{UserID: 7}
	claims.ID = "abc"
	token := mustSignReset(t, other, claims)
	if _, err := m.parseResetToken(token); err != ErrTokenInvalid {
		t.Errorf("parseResetToken(чужая подпись): ошибка = %v, хотели ErrTokenInvalid", err)
	}
}
