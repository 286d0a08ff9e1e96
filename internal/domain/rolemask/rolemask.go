// Пакет rolemask — битовая маска ролей пользователя.
// Каждая роль занимает один бит; пользователь может состоять
// в нескольких ролях одновременно. Права сравниваются по весу:
// роль с большим весом включает все возможности ролей с меньшим.
package rolemask

import "strings"

// Биты ролей в порядке возрастания привилегий.
const (
	Customer = 8
	Seller   = 4
	Manager  = 2
	Admin    = 1
)

// roleNames — бит роли → имя.
var roleNames = map[int]string{
	Admin:    "admin",
	Manager:  "manager",
	Seller:   "seller",
	Customer: "customer",
}

// roleBits — имя роли → бит.
var roleBits = map[string]int{
	"admin":    Admin,
	"manager":  Manager,
	"seller":   Seller,
	"customer": Customer,
}

// roleWeight — вес роли для сравнения привилегий.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[int]int{
	Customer: 1,
	Seller:   2,
	Manager:  3,
	Admin:    4,
}

// allBits — все известные биты в порядке убывания веса.
var allBits = []int{Admin, Manager, Seller, Customer}

// Has проверяет наличие роли в маске.
func Has(mask, role int) bool {
	return mask&role != 0
}

// HasAny проверяет наличие хотя бы одной из требуемых ролей.
func HasAny(mask, required int) bool {
	return mask&required != 0
}

// Add возвращает маску с добавленной ролью.
func Add(mask, role int) int {
	return mask | role
}

// Remove возвращает маску без указанной роли.
func Remove(mask, role int) int {
	return mask &^ role
}

// Names возвращает имена ролей маски в порядке убывания привилегий.
func Names(mask int) []string {
	var names []string
	for _, bit := range allBits {
		if Has(mask, bit) {
			names = append(names, roleNames[bit])
		}
	}
	return names
}

// String возвращает маску как перечень имён через запятую.
func String(mask int) string {
	return strings.Join(Names(mask), ", ")
}

// FromNames собирает маску из имён ролей. Неизвестные имена игнорируются.
func FromNames(names []string) int {
	mask := 0
	for _, n := range names {
		if bit, ok := roleBits[strings.ToLower(strings.TrimSpace(n))]; ok {
			mask |= bit
		}
	}
	return mask
}

// BitByName возвращает бит роли по имени; 0 — имя неизвестно.
func BitByName(name string) int {
	return roleBits[strings.ToLower(strings.TrimSpace(name))]
}

// Highest возвращает бит роли с максимальными привилегиями в маске.
// Пустая маска — 0.
func Highest(mask int) int {
	highest, weight := 0, 0
	for _, bit := range allBits {
		if Has(mask, bit) && roleWeight[bit] > weight {
			highest, weight = bit, roleWeight[bit]
		}
	}
	return highest
}

// IsValid проверяет, что маска состоит только из известных битов.
func IsValid(mask int) bool {
	known := 0
	for _, bit := range allBits {
		known |= bit
	}
	return mask > 0 && mask&^known == 0
}
