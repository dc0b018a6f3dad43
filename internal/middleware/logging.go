// Package middleware содержит HTTP middleware API: логирование, восстановление
// после паники, CORS и ограничение частоты запросов.
package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
)

// TraceHeader заголовок с идентификатором запроса
const TraceHeader = "X-Trace-ID"

// LoggingMiddleware присваивает запросу trace_id и логирует начало и завершение
func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			ctx := logger.WithTraceID(r.Context(), traceID)
			ctx = errors.WithTraceID(ctx, traceID)
			r = r.WithContext(ctx)
			w.Header().Set(TraceHeader, traceID)

			logFields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("url", r.URL.String()),
				logger.String("remote_addr", r.RemoteAddr),
				logger.String("user_agent", r.UserAgent()),
				logger.String("trace_id", traceID),
			}
			log.Debug("Started request", logFields...)

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			logFields = append(logFields,
				logger.Int("status_code", wrapped.statusCode),
				logger.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			)
			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				log.Error("Completed request", logFields...)
			case wrapped.statusCode >= http.StatusBadRequest:
				log.Warn("Completed request", logFields...)
			default:
				log.Info("Completed request", logFields...)
			}
		})
	}
}

// responseWriter обертка для перехвата статуса ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// WriteHeader перехватывает установку статуса
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}
