// Пакет record — обобщённый слой CRUD поверх одной таблицы PostgreSQL.
// Все значения передаются только через параметры ($n); имена колонок
// (условия, сортировка, выборка) проверяются по закрытому списку
// колонок таблицы до подстановки в SQL.
package record

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибки слоя данных.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — запись уже существует")
	// ErrUnknownColumn — имя колонки отсутствует в списке разрешённых.
	ErrUnknownColumn = errors.New("неизвестная колонка")
	// ErrEmptyConditions — изменяющая операция без условий запрещена.
	ErrEmptyConditions = errors.New("условия не заданы")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать Base как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Row — одна строка результата: колонка → значение.
type Row map[string]any

// Conditions — условия выборки: колонка → значение.
// Интерпретируются как равенства, объединённые через AND.
// Более сложные предикаты — через Query/QueryOne/Exec.
type Conditions map[string]any

// Order — элемент сортировки.
type Order struct {
	// Column — имя колонки (проверяется по списку разрешённых).
	Column string
	// Desc — сортировка по убыванию.
	Desc bool
}

// Base — обобщённый доступ к одной таблице.
// Конкретные репозитории строятся композицией поверх Base.
type Base struct {
	db      DBTX
	table   string
	pk      string
	columns []string
	colSet  map[string]struct{}
}

// New создаёт Base для таблицы table с первичным ключом pk.
// columns — закрытый список колонок таблицы; pk добавляется автоматически.
func New(db DBTX, table, pk string, columns []string) *Base {
	colSet := make(map[string]struct{}, len(columns)+1)
	all := make([]string, 0, len(columns)+1)
	for _, c := range append([]string{pk}, columns...) {
		if _, ok := colSet[c]; ok {
			continue
		}
		colSet[c] = struct{}{}
		all = append(all, c)
	}
	return &Base{
		db:      db,
		table:   table,
		pk:      pk,
		columns: all,
		colSet:  colSet,
	}
}

// WithTx возвращает копию Base, привязанную к переданной транзакции.
func (b *Base) WithTx(tx DBTX) *Base {
	clone := *b
	clone.db = tx
	return &clone
}

// Table возвращает имя таблицы.
func (b *Base) Table() string { return b.table }

// PK возвращает имя первичного ключа.
func (b *Base) PK() string { return b.pk }

// checkColumns проверяет имена колонок по закрытому списку.
func (b *Base) checkColumns(names ...string) error {
	for _, n := range names {
		if _, ok := b.colSet[n]; !ok {
			return fmt.Errorf("%w: %q в таблице %s", ErrUnknownColumn, n, b.table)
		}
	}
	return nil
}

// sortedKeys возвращает отсортированные ключи отображения.
// Сортировка даёт детерминированный SQL при одинаковых входных данных.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildWhere строит WHERE-часть из условий.
// argNum — номер первого параметра; возвращает SQL, аргументы и следующий номер.
func (b *Base) buildWhere(conds Conditions, argNum int) (string, []any, int, error) {
	if len(conds) == 0 {
		return "", nil, argNum, nil
	}
	keys := sortedKeys(conds)
	if err := b.checkColumns(keys...); err != nil {
		return "", nil, argNum, err
	}

	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s = $%d", k, argNum))
		args = append(args, conds[k])
		argNum++
	}
	return " WHERE " + strings.Join(parts, " AND "), args, argNum, nil
}

// buildSelect строит SELECT-запрос.
// columns == nil — все колонки таблицы; limit <= 0 — без LIMIT.
func (b *Base) buildSelect(columns []string, conds Conditions, orderBy []Order, limit int) (string, []any, error) {
	if columns == nil {
		columns = b.columns
	}
	if err := b.checkColumns(columns...); err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)

	where, args, argNum, err := b.buildWhere(conds, 1)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(where)

	if len(orderBy) > 0 {
		parts := make([]string, 0, len(orderBy))
		for _, o := range orderBy {
			if err := b.checkColumns(o.Column); err != nil {
				return "", nil, err
			}
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, o.Column+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argNum))
		args = append(args, limit)
	}

	return sb.String(), args, nil
}

// FindAll возвращает все строки таблицы.
// columns == nil — все колонки; orderBy может быть nil.
func (b *Base) FindAll(ctx context.Context, columns []string, orderBy []Order) ([]Row, error) {
	query, args, err := b.buildSelect(columns, nil, orderBy, 0)
	if err != nil {
		return nil, err
	}
	return b.Query(ctx, query, args...)
}

// FindByID возвращает строку по первичному ключу или ErrNotFound.
func (b *Base) FindByID(ctx context.Context, id any) (Row, error) {
	query, args, err := b.buildSelect(nil, Conditions{b.pk: id}, nil, 1)
	if err != nil {
		return nil, err
	}
	return b.QueryOne(ctx, query, args...)
}

// FindWhere возвращает строки, удовлетворяющие всем условиям.
// limit <= 0 — без ограничения.
func (b *Base) FindWhere(ctx context.Context, conds Conditions, columns []string, orderBy []Order, limit int) ([]Row, error) {
	query, args, err := b.buildSelect(columns, conds, orderBy, limit)
	if err != nil {
		return nil, err
	}
	return b.Query(ctx, query, args...)
}

// FindOneWhere возвращает первую строку по условиям или ErrNotFound.
func (b *Base) FindOneWhere(ctx context.Context, conds Conditions) (Row, error) {
	query, args, err := b.buildSelect(nil, conds, nil, 1)
	if err != nil {
		return nil, err
	}
	return b.QueryOne(ctx, query, args...)
}

// buildInsert строит INSERT-запрос с RETURNING первичного ключа.
func (b *Base) buildInsert(data map[string]any) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("нет данных для вставки в %s", b.table)
	}
	keys := sortedKeys(data)
	if err := b.checkColumns(keys...); err != nil {
		return "", nil, err
	}

	placeholders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, data[k])
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		b.table, strings.Join(keys, ", "), strings.Join(placeholders, ", "), b.pk,
	)
	return query, args, nil
}

// Insert вставляет строку и возвращает присвоенный первичный ключ.
// Нарушение уникальности транслируется в ErrConflict.
func (b *Base) Insert(ctx context.Context, data map[string]any) (int64, error) {
	query, args, err := b.buildInsert(data)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := b.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrConflict, b.table)
		}
		return 0, fmt.Errorf("ошибка вставки в %s: %w", b.table, err)
	}
	return id, nil
}

// buildUpdate строит UPDATE-запрос.
func (b *Base) buildUpdate(data map[string]any, conds Conditions) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("нет данных для обновления %s", b.table)
	}
	if len(conds) == 0 {
		return "", nil, fmt.Errorf("%w: обновление %s без условий", ErrEmptyConditions, b.table)
	}
	keys := sortedKeys(data)
	if err := b.checkColumns(keys...); err != nil {
		return "", nil, err
	}

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+len(conds))
	argNum := 1
	for _, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = $%d", k, argNum))
		args = append(args, data[k])
		argNum++
	}

	where, whereArgs, _, err := b.buildWhere(conds, argNum)
	if err != nil {
		return "", nil, err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", b.table, strings.Join(sets, ", "), where)
	return query, args, nil
}

// Update обновляет строки по условиям и возвращает число затронутых строк.
// Ноль затронутых строк — не ошибка: условия никого не выбрали.
func (b *Base) Update(ctx context.Context, data map[string]any, conds Conditions) (int64, error) {
	query, args, err := b.buildUpdate(data, conds)
	if err != nil {
		return 0, err
	}

	tag, err := b.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrConflict, b.table)
		}
		return 0, fmt.Errorf("ошибка обновления %s: %w", b.table, err)
	}
	return tag.RowsAffected(), nil
}

// UpdateByID обновляет строку по первичному ключу.
func (b *Base) UpdateByID(ctx context.Context, id any, data map[string]any) (int64, error) {
	return b.Update(ctx, data, Conditions{b.pk: id})
}

// Delete удаляет строки по условиям и возвращает число затронутых строк.
func (b *Base) Delete(ctx context.Context, conds Conditions) (int64, error) {
	if len(conds) == 0 {
		return 0, fmt.Errorf("%w: удаление из %s без условий", ErrEmptyConditions, b.table)
	}
	where, args, _, err := b.buildWhere(conds, 1)
	if err != nil {
		return 0, err
	}

	tag, err := b.db.Exec(ctx, "DELETE FROM "+b.table+where, args...)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления из %s: %w", b.table, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByID удаляет строку по первичному ключу.
func (b *Base) DeleteByID(ctx context.Context, id any) (int64, error) {
	return b.Delete(ctx, Conditions{b.pk: id})
}

// Count возвращает количество строк, удовлетворяющих условиям.
func (b *Base) Count(ctx context.Context, conds Conditions) (int, error) {
	where, args, _, err := b.buildWhere(conds, 1)
	if err != nil {
		return 0, err
	}

	var count int
	if err := b.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+b.table+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта в %s: %w", b.table, err)
	}
	return count, nil
}

// Query выполняет произвольный параметризованный SELECT и возвращает строки.
// Запасной выход для предикатов, не выражаемых условиями-равенствами.
func (b *Base) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к %s: %w", b.table, err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// QueryOne выполняет произвольный SELECT и возвращает первую строку
// или ErrNotFound.
func (b *Base) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	result, err := b.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result[0], nil
}

// Exec выполняет произвольный изменяющий запрос и возвращает
// число затронутых строк.
func (b *Base) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := b.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrConflict, b.table)
		}
		return 0, fmt.Errorf("ошибка выполнения запроса к %s: %w", b.table, err)
	}
	return tag.RowsAffected(), nil
}

// collectRows преобразует pgx.Rows в срез Row по описаниям колонок.
func collectRows(rows pgx.Rows) ([]Row, error) {
	fields := rows.FieldDescriptions()

	var result []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения строки: %w", err)
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[string(f.Name)] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// TxRunner позволяет выполнять операции в транзакции.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner для управления транзакциями.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn внутри транзакции.
// При ошибке fn — транзакция откатывается. При успехе — коммитится.
// Вложенные транзакции не поддерживаются.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
