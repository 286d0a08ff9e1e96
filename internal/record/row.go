package record

import "time"

// Типизированные аксессоры Row. pgx возвращает значения в типах колонок
// (int4 → int32, int8 → int64, float8 → float64), аксессоры приводят
// их к единому виду. Отсутствующая колонка или NULL — нулевое значение.

// Int64 возвращает целочисленное значение колонки.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Int возвращает значение колонки как int.
func (r Row) Int(col string) int {
	return int(r.Int64(col))
}

// Float64 возвращает значение колонки с плавающей точкой.
func (r Row) Float64(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	default:
		return 0
	}
}

// String возвращает строковое значение колонки.
func (r Row) String(col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// Bool возвращает булево значение колонки.
func (r Row) Bool(col string) bool {
	if v, ok := r[col].(bool); ok {
		return v
	}
	return false
}

// Time возвращает значение колонки-времени.
func (r Row) Time(col string) time.Time {
	if v, ok := r[col].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// NullTime возвращает указатель на время или nil для NULL.
func (r Row) NullTime(col string) *time.Time {
	if v, ok := r[col].(time.Time); ok {
		return &v
	}
	return nil
}
