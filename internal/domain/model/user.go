package model

import (
	"time"

	"github.com/zolotnik/goldshop/internal/record"
)

// User — пользователь магазина. Хранится в таблице users.
type User struct {
	// ID — первичный ключ
	ID int64
	// Username — имя для входа, уникально
	Username string
	// Email — адрес электронной почты, уникален
	Email string
	// PasswordHash — bcrypt-хеш пароля
	PasswordHash string
	// FirstName — имя
	FirstName string
	// LastName — фамилия
	LastName string
	// RolesID — основная роль (FK на roles.id)
	RolesID int
	// RolesMask — битовая маска всех ролей пользователя
	RolesMask int
	// Verified — подтверждён ли аккаунт
	Verified bool
	// CreatedAt — время регистрации
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// UserColumns — закрытый список колонок таблицы users.
var UserColumns = []string{
	"username", "email", "password_hash", "first_name", "last_name",
	"roles_id", "roles_mask", "verified", "created_at", "updated_at",
}

// UserFromRow собирает User из строки результата.
func UserFromRow(r record.Row) *User {
	return &User{
		ID:           r.Int64("id"),
		Username:     r.String("username"),
		Email:        r.String("email"),
		PasswordHash: r.String("password_hash"),
		FirstName:    r.String("first_name"),
		LastName:     r.String("last_name"),
		RolesID:      r.Int("roles_id"),
		RolesMask:    r.Int("roles_mask"),
		Verified:     r.Bool("verified"),
		CreatedAt:    r.Time("created_at"),
		UpdatedAt:    r.Time("updated_at"),
	}
}

// FullName возвращает отображаемое имя пользователя.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Role — роль пользователя с битом маски. Хранится в таблице roles.
type Role struct {
	// ID — первичный ключ
	ID int
	// Name — имя роли (admin, manager, seller, customer)
	Name string
	// Mask — бит роли в битовой маске
	Mask int
	// Description — описание роли
	Description string
}

// RoleColumns — закрытый список колонок таблицы roles.
var RoleColumns = []string{"name", "mask", "description"}

// RoleFromRow собирает Role из строки результата.
func RoleFromRow(r record.Row) *Role {
	return &Role{
		ID:          r.Int("id"),
		Name:        r.String("name"),
		Mask:        r.Int("mask"),
		Description: r.String("description"),
	}
}
