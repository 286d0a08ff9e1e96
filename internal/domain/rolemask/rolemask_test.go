package rolemask

import (
	"reflect"
	"testing"
)

func TestHasAddRemove(t *testing.T) {
	mask := 0
	mask = Add(mask, Manager)
	mask = Add(mask, Customer)

	if !Has(mask, Manager) {
		t.Error("Has(Manager) = false после Add")
	}
	if !Has(mask, Customer) {
		t.Error("Has(Customer) = false после Add")
	}
	if Has(mask, Admin) {
		t.Error("Has(Admin) = true для маски без admin")
	}

	mask = Remove(mask, Customer)
	if Has(mask, Customer) {
		t.Error("Has(Customer) = true после Remove")
	}
	if !Has(mask, Manager) {
		t.Error("Remove затронул чужой бит")
	}

	// Повторное добавление — идемпотентно
	if Add(mask, Manager) != mask {
		t.Error("повторный Add изменил маску")
	}
}

func TestHasAny(t *testing.T) {
	mask := Add(0, Seller)

	if !HasAny(mask, Manager|Seller) {
		t.Error("HasAny(manager|seller) = false для продавца")
	}
	if HasAny(mask, Admin|Manager) {
		t.Error("HasAny(admin|manager) = true для продавца")
	}
}

func TestNamesAndString(t *testing.T) {
	mask := Admin | Customer

	want := []string{"admin", "customer"}
	if got := Names(mask); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, хотели %v", got, want)
	}
	if got := String(mask); got != "admin, customer" {
		t.Errorf("String() = %q, хотели %q", got, "admin, customer")
	}
	if Names(0) != nil {
		t.Error("Names(0) должен вернуть nil")
	}
}

func TestFromNames(t *testing.T) {
	mask := FromNames([]string{"Admin", " seller ", "неизвестная"})
	if mask != Admin|Seller {
		t.Errorf("FromNames() = %d, хотели %d", mask, Admin|Seller)
	}
	if FromNames(nil) != 0 {
		t.Error("FromNames(nil) должен вернуть 0")
	}
}

func TestHighest(t *testing.T) {
	cases := []struct {
		name string
		mask int
		want int
	}{
		{"пустая маска", 0, 0},
		{"только покупатель", Customer, Customer},
		{"менеджер и покупатель", Manager | Customer, Manager},
		{"все роли", Admin | Manager | Seller | Customer, Admin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Highest(tc.mask); got != tc.want {
				t.Errorf("Highest(%d) = %d, хотели %d", tc.mask, got, tc.want)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(Admin | Customer) {
		t.Error("IsValid(admin|customer) = false")
	}
	if IsValid(0) {
		t.Error("IsValid(0) = true")
	}
	if IsValid(16) {
		t.Error("IsValid(16) = true для неизвестного бита")
	}
}

func TestBitByName(t *testing.T) {
	if BitByName("manager") != Manager {
		t.Errorf("BitByName(manager) = %d, хотели %d", BitByName("manager"), Manager)
	}
	if BitByName("root") != 0 {
		t.Error("BitByName(root) != 0 для неизвестной роли")
	}
}
