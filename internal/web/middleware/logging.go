// logging.go — структурированное логирование HTTP-запросов
// и восстановление после паники в обработчиках.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// RequestLogger возвращает middleware, логирующее каждый запрос:
// метод, путь, статус, длительность, адрес клиента.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			log.Info("HTTP запрос",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// Recoverer возвращает middleware, перехватывающее панику обработчика.
// Паника логируется со стектрейсом; клиент получает 500.
// При debug стектрейс попадает и в тело ответа.
func Recoverer(logger *slog.Logger, debugMode bool) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "recoverer"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := debug.Stack()
					log.Error("Паника в обработчике",
						slog.Any("panic", rec),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(stack)),
					)
					w.Header().Set("Content-Type", "text/plain; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					if debugMode {
						w.Write([]byte("Внутренняя ошибка сервера\n\n"))
						w.Write(stack)
						return
					}
					w.Write([]byte("Внутренняя ошибка сервера"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
