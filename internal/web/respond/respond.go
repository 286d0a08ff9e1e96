// Пакет respond — формат JSON-ответов для AJAX-запросов витрины.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON отправляет произвольную структуру как JSON-ответ.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Ошибка сериализации JSON-ответа", slog.Any("error", err))
	}
}

// Success отправляет успешный AJAX-ответ: {"success": true, ...extra}.
func Success(w http.ResponseWriter, message string, extra map[string]any) {
	payload := map[string]any{"success": true}
	if message != "" {
		payload["message"] = message
	}
	for k, v := range extra {
		payload[k] = v
	}
	JSON(w, http.StatusOK, payload)
}

// Error отправляет AJAX-ошибку: {"error": true, "message": ..., "code": ...}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

// WantsJSON определяет, ожидает ли клиент JSON-ответ
// (AJAX-запрос или явный Accept: application/json).
func WantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := r.Header.Get("Accept")
	return accept == "application/json"
}
