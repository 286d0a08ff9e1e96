package repository

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/zolotnik/goldshop/internal/config"
	"github.com/zolotnik/goldshop/internal/database"
	"github.com/zolotnik/goldshop/internal/domain/model"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("goldshop_test"),
		postgres.WithUsername("goldshop"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("GS_DB_HOST", host)
	t.Setenv("GS_DB_PORT", port.Port())
	t.Setenv("GS_DB_NAME", "goldshop_test")
	t.Setenv("GS_DB_USER", "goldshop")
	t.Setenv("GS_DB_PASSWORD", "test-password")
	t.Setenv("GS_DB_SSL_MODE", "disable")
	t.Setenv("GS_APP_ENV", "development")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newTestProduct(name string, price float64, stock int) *model.Product {
	return &model.Product{
		Name:              name,
		Metal:             "gold",
		Purity:            585,
		PricePerGram:      price,
		Stock:             stock,
		LowStockThreshold: 5,
	}
}

func TestProductReduceStock_Insufficient(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(pool)

	p := newTestProduct("Цепочка", 290.0, 3)
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	err := repo.ReduceStock(ctx, p.ID, 10)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("ReduceStock(10) при остатке 3: ошибка = %v, хотели ErrInsufficientStock", err)
	}

	// Остаток не изменился
	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Stock != 3 {
		t.Errorf("stock = %d после неудачного списания, хотели 3", got.Stock)
	}
}

func TestProductReduceStock_ExactAndThenEmpty(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(pool)

	p := newTestProduct("Кулон", 300.0, 5)
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Списание ровно всего остатка допустимо
	if err := repo.ReduceStock(ctx, p.ID, 5); err != nil {
		t.Fatalf("ReduceStock(5) при остатке 5: ошибка = %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Stock != 0 {
		t.Errorf("stock = %d, хотели 0", got.Stock)
	}

	// С пустого остатка списать нечего
	if err := repo.ReduceStock(ctx, p.ID, 1); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("ReduceStock(1) при остатке 0: ошибка = %v, хотели ErrInsufficientStock", err)
	}
}

func TestProductStockOps_InvalidQuantity(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(pool)

	p := newTestProduct("Брошь", 280.0, 2)
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	for _, qty := range []int{0, -1} {
		if err := repo.AddStock(ctx, p.ID, qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("AddStock(%d): ошибка = %v, хотели ErrInvalidQuantity", qty, err)
		}
		if err := repo.ReduceStock(ctx, p.ID, qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("ReduceStock(%d): ошибка = %v, хотели ErrInvalidQuantity", qty, err)
		}
	}
}

func TestProductSetStock(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(pool)

	p := newTestProduct("Цепочка", 410.0, 10)
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	if err := repo.SetStock(ctx, p.ID, 0); err != nil {
		t.Fatalf("SetStock(0) ошибка: %v", err)
	}
	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Stock != 0 {
		t.Errorf("остаток = %d, хотели 0", got.Stock)
	}

	if err := repo.SetStock(ctx, p.ID, -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("SetStock(-1): ошибка = %v, хотели ErrInvalidQuantity", err)
	}
	if err := repo.SetStock(ctx, 999999, 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetStock() для отсутствующего товара: ошибка = %v, хотели ErrNotFound", err)
	}
}

func TestProductReduceStock_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewProductRepository(pool)

	if err := repo.ReduceStock(context.Background(), 999999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReduceStock() для отсутствующего товара: ошибка = %v, хотели ErrNotFound", err)
	}
}

func TestProductTotalStockValue(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(pool)

	total, err := repo.TotalStockValue(ctx)
	if err != nil {
		t.Fatalf("TotalStockValue() ошибка: %v", err)
	}
	if total != 0 {
		t.Fatalf("TotalStockValue() на пустом складе = %v, хотели 0", total)
	}

	if err := repo.Create(ctx, newTestProduct("Слиток", 285.50, 50)); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	total, err = repo.TotalStockValue(ctx)
	if err != nil {
		t.Fatalf("TotalStockValue() ошибка: %v", err)
	}
	if math.Abs(total-14275.00) > 1e-9 {
		t.Errorf("TotalStockValue() = %v, хотели 14275.00", total)
	}
}

func TestProductLowStockAndOutOfStock(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(pool)

	low := newTestProduct("Кольцо на пороге", 300.0, 5)
	ok := newTestProduct("Кольцо в достатке", 300.0, 20)
	empty := newTestProduct("Распроданное кольцо", 300.0, 0)
	for _, p := range []*model.Product{low, ok, empty} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) ошибка: %v", p.Name, err)
		}
	}

	lowStock, err := repo.LowStock(ctx)
	if err != nil {
		t.Fatalf("LowStock() ошибка: %v", err)
	}
	if len(lowStock) != 1 || lowStock[0].ID != low.ID {
		t.Errorf("LowStock() = %d товаров, хотели только %q", len(lowStock), low.Name)
	}

	outOfStock, err := repo.OutOfStock(ctx)
	if err != nil {
		t.Fatalf("OutOfStock() ошибка: %v", err)
	}
	if len(outOfStock) != 1 || outOfStock[0].ID != empty.ID {
		t.Errorf("OutOfStock() = %d товаров, хотели только %q", len(outOfStock), empty.Name)
	}
}

func TestProductSearch(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(pool)

	ring := newTestProduct("Обручальное кольцо", 310.0, 10)
	ring.Description = "классическое"
	chain := newTestProduct("Цепочка панцирная", 295.0, 8)
	chain.Description = "плетение кольцо в кольцо"
	for _, p := range []*model.Product{ring, chain} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) ошибка: %v", p.Name, err)
		}
	}

	// Подстрока встречается в названии одного и в описании другого
	found, err := repo.Search(ctx, "кольцо")
	if err != nil {
		t.Fatalf("Search() ошибка: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("Search(%q) = %d товаров, хотели 2", "кольцо", len(found))
	}

	found, err = repo.Search(ctx, "панцирная")
	if err != nil {
		t.Fatalf("Search() ошибка: %v", err)
	}
	if len(found) != 1 || found[0].ID != chain.ID {
		t.Errorf("Search(%q) = %d товаров, хотели только %q", "панцирная", len(found), chain.Name)
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	seller, err := NewRoleRepository(pool).GetByName(ctx, "seller")
	if err != nil {
		t.Fatalf("GetByName(seller) ошибка: %v", err)
	}

	u := &model.User{
		Username:     "ivanov",
		Email:        "ivanov@example.com",
		PasswordHash: "x",
		FirstName:    "Иван",
		LastName:     "Иванов",
		RolesID:      seller.ID,
		RolesMask:    seller.Mask,
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	dup := &model.User{
		Username:     "ivanov",
		Email:        "other@example.com",
		PasswordHash: "x",
		RolesID:      seller.ID,
		RolesMask:    seller.Mask,
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Create() с занятым username: ошибка = %v, хотели ErrConflict", err)
	}
}

func TestUserRoleLinkage(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	roles := NewRoleRepository(pool)
	users := NewUserRepository(pool)

	// У каждой стартовой роли id строки и бит маски — разные значения
	for _, name := range []string{"admin", "manager", "seller", "customer"} {
		role, err := roles.GetByName(ctx, name)
		if err != nil {
			t.Fatalf("GetByName(%s) ошибка: %v", name, err)
		}

		u := &model.User{
			Username:     "role-" + name,
			Email:        name + "@example.com",
			PasswordHash: "x",
			RolesID:      role.ID,
			RolesMask:    role.Mask,
		}
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("Create(%s) ошибка: %v", name, err)
		}

		got, err := users.GetByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("GetByID(%s) ошибка: %v", name, err)
		}
		if got.RolesID != role.ID || got.RolesMask != role.Mask {
			t.Errorf("%s: roles_id=%d roles_mask=%d, хотели %d и %d",
				name, got.RolesID, got.RolesMask, role.ID, role.Mask)
		}
	}
}

func TestMarginGetSet(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMarginRepository(pool)

	// Значение по умолчанию задаётся миграцией
	m, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if m.MarginPercent != 20.0 {
		t.Errorf("MarginPercent = %v, хотели 20.0", m.MarginPercent)
	}

	if err := repo.Set(ctx, 35.5); err != nil {
		t.Fatalf("Set() ошибка: %v", err)
	}

	m, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if m.MarginPercent != 35.5 {
		t.Errorf("MarginPercent после Set() = %v, хотели 35.5", m.MarginPercent)
	}

	if err := repo.Set(ctx, -1); err == nil {
		t.Error("Set(-1): ожидали ошибку")
	}
}

func TestContactCreateList(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewContactRepository(pool)

	first := &model.ContactSubmission{Name: "Анна", Email: "anna@example.com", Message: "Есть ли доставка?"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if first.ID == 0 {
		t.Error("Create() не заполнил ID")
	}

	second := &model.ContactSubmission{Name: "Борис", Email: "boris@example.com", Message: "Хочу заказать кольцо"}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() = %d обращений, хотели 2", len(list))
	}
}
