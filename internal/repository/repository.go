// Пакет repository — типизированные репозитории доменных моделей.
// Каждый репозиторий построен композицией поверх record.Base:
// типовые операции идут через обобщённый CRUD, предикаты сложнее
// равенств — через параметризованный SQL (Query/Exec).
package repository

import (
	"errors"

	"github.com/zolotnik/goldshop/internal/record"
)

// Ошибки слоя репозиториев. Ошибки record переиспользуются,
// чтобы вызывающие проверяли один набор sentinel-ошибок.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = record.ErrNotFound
	// ErrConflict — конфликт уникальности.
	ErrConflict = record.ErrConflict
	// ErrInvalidQuantity — количество должно быть положительным.
	ErrInvalidQuantity = errors.New("количество должно быть больше нуля")
	// ErrInsufficientStock — остатка недостаточно для списания.
	ErrInsufficientStock = errors.New("недостаточно товара на складе")
)
